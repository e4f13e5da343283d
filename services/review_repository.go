package services

import (
	"errors"
	"fmt"

	"review-workflow-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage helpers shared by the review, field comment and status services.
// Every helper takes the *gorm.DB to run on so it can join a transaction.

const latestFirst = "created_at DESC, review_id DESC"

// notSuperseded keeps only the current review of each key.
const notSuperseded = `NOT EXISTS (
	SELECT 1 FROM review_workflow_reviews AS newer
	WHERE newer.assigned_content_type = review_workflow_reviews.assigned_content_type
	  AND newer.assigned_document_id = review_workflow_reviews.assigned_document_id
	  AND newer.locale = review_workflow_reviews.locale
	  AND (newer.created_at > review_workflow_reviews.created_at
	       OR (newer.created_at = review_workflow_reviews.created_at AND newer.review_id > review_workflow_reviews.review_id))
)`

func withReviewRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Reviewer").
		Preload("Requester").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, comment_id ASC")
		}).
		Preload("Comments.Author")
}

// findReview loads a review by its document id and locale. With lock set the
// row is locked for update where the dialect supports it.
func findReview(db *gorm.DB, documentID, locale string, lock bool) (*models.Review, error) {
	query := db.Where("document_id = ? AND locale = ?", documentID, locale)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var review models.Review
	if err := query.First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("review %s (%s) not found", documentID, locale)
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return &review, nil
}

func loadReview(db *gorm.DB, reviewID int) (*models.Review, error) {
	var review models.Review
	if err := withReviewRelations(db).First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("review %d not found", reviewID)
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return &review, nil
}

// findCurrentReview returns the most recently created review for the key, or nil.
func findCurrentReview(db *gorm.DB, contentType, documentID, locale string) (*models.Review, error) {
	var review models.Review
	err := withReviewRelations(db).
		Where("assigned_content_type = ? AND assigned_document_id = ? AND locale = ?", contentType, documentID, locale).
		Order(latestFirst).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current review: %w", err)
	}
	return &review, nil
}

// isSuperseded reports whether a newer review exists for the review's key.
func isSuperseded(db *gorm.DB, review *models.Review) (bool, error) {
	var ids []int
	if err := db.Model(&models.Review{}).
		Where("assigned_content_type = ? AND assigned_document_id = ? AND locale = ?",
			review.AssignedContentType, review.AssignedDocumentID, review.Locale).
		Order(latestFirst).
		Limit(1).
		Pluck("review_id", &ids).Error; err != nil {
		return false, fmt.Errorf("failed to load current review: %w", err)
	}
	return len(ids) == 1 && ids[0] != review.ReviewID, nil
}

// requireCurrent fails with InvalidStateError when review is no longer the
// current review of its key.
func requireCurrent(db *gorm.DB, review *models.Review) error {
	superseded, err := isSuperseded(db, review)
	if err != nil {
		return err
	}
	if superseded {
		return invalidStateError("review has been superseded by a newer review")
	}
	return nil
}

func hasPendingReview(db *gorm.DB, contentType, documentID, locale string) (bool, error) {
	var count int64
	if err := db.Model(&models.Review{}).
		Where("pending_key = ?", models.PendingKeyFor(contentType, documentID, locale)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check pending reviews: %w", err)
	}
	return count > 0, nil
}

func createComment(db *gorm.DB, comment *models.ReviewComment) error {
	if err := db.Create(comment).Error; err != nil {
		return fmt.Errorf("failed to save %s comment: %w", comment.CommentType, err)
	}
	return nil
}

func findComment(db *gorm.DB, commentID int) (*models.ReviewComment, error) {
	var comment models.ReviewComment
	if err := db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("comment %d not found", commentID)
		}
		return nil, fmt.Errorf("failed to load comment: %w", err)
	}
	return &comment, nil
}

func countFieldComments(db *gorm.DB, reviewID int, unresolvedOnly bool) (int64, error) {
	query := db.Model(&models.ReviewComment{}).
		Where("review_id = ? AND comment_type = ?", reviewID, models.CommentTypeFieldComment)
	if unresolvedOnly {
		query = query.Where("resolved = ?", false)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count field comments: %w", err)
	}
	return count, nil
}

func deleteFieldComments(db *gorm.DB, reviewID int) error {
	if err := db.Where("review_id = ? AND comment_type = ?", reviewID, models.CommentTypeFieldComment).
		Delete(&models.ReviewComment{}).Error; err != nil {
		return fmt.Errorf("failed to remove field comments: %w", err)
	}
	return nil
}

// latestStatuses returns the status of the most recent review for each of the
// given document ids in one query.
func latestStatuses(db *gorm.DB, contentType, locale string, documentIDs []string) (map[string]string, error) {
	var rows []struct {
		AssignedDocumentID string `gorm:"column:assigned_document_id"`
		Status             string `gorm:"column:status"`
	}
	if err := db.Model(&models.Review{}).
		Select("assigned_document_id", "status").
		Where("assigned_content_type = ? AND locale = ? AND assigned_document_id IN ?", contentType, locale, documentIDs).
		Order(latestFirst).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load review statuses: %w", err)
	}

	statuses := make(map[string]string, len(rows))
	for _, row := range rows {
		if _, seen := statuses[row.AssignedDocumentID]; seen {
			continue
		}
		statuses[row.AssignedDocumentID] = row.Status
	}
	return statuses, nil
}
