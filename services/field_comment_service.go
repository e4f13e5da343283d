package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"review-workflow-api/models"

	"gorm.io/gorm"
)

// FieldCommentService manages reviewer notes bound to one field of the
// document under review. The reviewer writes them, the requester resolves them.
type FieldCommentService struct {
	db     *gorm.DB
	events *EventBus
	now    func() time.Time
}

func NewFieldCommentService(db *gorm.DB, events *EventBus) *FieldCommentService {
	return &FieldCommentService{
		db:     db,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// AddFieldComment attaches a field comment to a pending review.
func (s *FieldCommentService) AddFieldComment(ctx context.Context, reviewID, locale, fieldName string, authorID int, content string) (*models.ReviewComment, error) {
	content = strings.TrimSpace(content)
	fieldName = strings.TrimSpace(fieldName)
	if content == "" {
		return nil, validationError("comment content is required")
	}
	if fieldName == "" {
		return nil, validationError("field name is required")
	}

	var comment *models.ReviewComment
	var review *models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		review, err = findReview(tx, reviewID, locale, true)
		if err != nil {
			return err
		}
		if review.AssignedTo != authorID {
			return authorizationError("only the assigned reviewer can add field comments")
		}
		if !review.IsPending() {
			return invalidStateError("field comments can only be added while the review is pending")
		}
		if err := requireCurrent(tx, review); err != nil {
			return err
		}

		comment = &models.ReviewComment{
			ReviewID:    review.ReviewID,
			Content:     content,
			CommentType: models.CommentTypeFieldComment,
			AuthorID:    authorID,
			FieldName:   &fieldName,
			CreatedAt:   s.now(),
		}
		return createComment(tx, comment)
	})
	if err != nil {
		return nil, err
	}

	s.events.NotifyChanged(ReviewEvent{Action: ActionFieldCommentAdded, ActorID: authorID, Review: review, Comment: comment})
	return comment, nil
}

// DeleteFieldComment removes a field comment. Only its author may delete it,
// and only while the review is still pending.
func (s *FieldCommentService) DeleteFieldComment(ctx context.Context, commentID, callerID int) error {
	var comment *models.ReviewComment
	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		comment, err = findComment(tx, commentID)
		if err != nil {
			return err
		}
		if !comment.IsFieldComment() {
			return invalidStateError("comment %d is not a field comment", commentID)
		}
		if comment.AuthorID != callerID {
			return authorizationError("only the author can delete this field comment")
		}
		if err := tx.First(&review, comment.ReviewID).Error; err != nil {
			return fmt.Errorf("failed to load review: %w", err)
		}
		if !review.IsPending() {
			return invalidStateError("field comments can only be deleted while the review is pending")
		}
		if err := tx.Delete(&models.ReviewComment{}, comment.CommentID).Error; err != nil {
			return fmt.Errorf("failed to delete field comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.NotifyChanged(ReviewEvent{Action: ActionFieldCommentDeleted, ActorID: callerID, Review: &review, Comment: comment})
	return nil
}

// ResolveFieldComment toggles the resolved flag. Only the requester of the
// parent review may toggle it, so a comment resolved too early can be reopened.
func (s *FieldCommentService) ResolveFieldComment(ctx context.Context, commentID, callerID int) (*models.ReviewComment, error) {
	var comment *models.ReviewComment
	var review models.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		comment, err = findComment(tx, commentID)
		if err != nil {
			return err
		}
		if !comment.IsFieldComment() {
			return invalidStateError("comment %d is not a field comment", commentID)
		}
		if err := tx.First(&review, comment.ReviewID).Error; err != nil {
			return fmt.Errorf("failed to load review: %w", err)
		}
		if review.AssignedBy != callerID {
			return authorizationError("only the requester can resolve field comments")
		}

		comment.Resolved = !comment.Resolved
		if err := tx.Model(&models.ReviewComment{}).
			Where("comment_id = ?", comment.CommentID).
			Update("resolved", comment.Resolved).Error; err != nil {
			return fmt.Errorf("failed to update field comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.NotifyChanged(ReviewEvent{Action: ActionFieldCommentResolved, ActorID: callerID, Review: &review, Comment: comment})
	return comment, nil
}

// FieldCommentSummary lists a review's field comments with their counts.
type FieldCommentSummary struct {
	Comments   []models.ReviewComment `json:"comments"`
	Unresolved int64                  `json:"unresolved"`
	Total      int64                  `json:"total"`
}

func (s *FieldCommentService) ListFieldComments(ctx context.Context, reviewID, locale string) (*FieldCommentSummary, error) {
	db := s.db.WithContext(ctx)
	review, err := findReview(db, reviewID, locale, false)
	if err != nil {
		return nil, err
	}

	summary := &FieldCommentSummary{Comments: []models.ReviewComment{}}
	if err := db.Preload("Author").
		Where("review_id = ? AND comment_type = ?", review.ReviewID, models.CommentTypeFieldComment).
		Order("created_at ASC, comment_id ASC").
		Find(&summary.Comments).Error; err != nil {
		return nil, fmt.Errorf("failed to list field comments: %w", err)
	}
	summary.Total = int64(len(summary.Comments))
	for _, c := range summary.Comments {
		if !c.Resolved {
			summary.Unresolved++
		}
	}
	return summary, nil
}

// UnresolvedCount returns the number of unresolved field comments of a review.
func (s *FieldCommentService) UnresolvedCount(ctx context.Context, reviewID int) (int64, error) {
	return countFieldComments(s.db.WithContext(ctx), reviewID, true)
}

// TotalCount returns the number of field comments of a review.
func (s *FieldCommentService) TotalCount(ctx context.Context, reviewID int) (int64, error) {
	return countFieldComments(s.db.WithContext(ctx), reviewID, false)
}
