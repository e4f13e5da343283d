package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"review-workflow-api/config"
	"review-workflow-api/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// bulkAssignConcurrency bounds the parallel assign calls of a bulk request.
const bulkAssignConcurrency = 4

// ReviewService implements the review state machine:
//
//	none     --assign-->    pending
//	pending  --approve-->   approved
//	pending  --reject-->    rejected
//	rejected --reRequest--> pending
//
// Every transition runs in one transaction together with its comment writes
// and field comment cleanup.
type ReviewService struct {
	db       *gorm.DB
	workflow *config.WorkflowHolder
	events   *EventBus
	now      func() time.Time
}

func NewReviewService(db *gorm.DB, workflow *config.WorkflowHolder, events *EventBus) *ReviewService {
	return &ReviewService{
		db:       db,
		workflow: workflow,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AssignInput describes a review request for one locale of a document.
type AssignInput struct {
	ContentType string
	DocumentID  string
	Locale      string
	ReviewerID  int
	RequesterID int
	Note        string
}

func (in *AssignInput) normalize() {
	in.ContentType = strings.TrimSpace(in.ContentType)
	in.DocumentID = strings.TrimSpace(in.DocumentID)
	in.Locale = strings.TrimSpace(in.Locale)
	in.Note = strings.TrimSpace(in.Note)
}

// Assign creates a pending review for the key. It fails with a ConflictError
// when the key already has a pending review.
func (s *ReviewService) Assign(ctx context.Context, in AssignInput) (*models.Review, error) {
	in.normalize()
	if in.ContentType == "" || in.DocumentID == "" || in.Locale == "" {
		return nil, validationError("content type, document id and locale are required")
	}
	if in.ReviewerID <= 0 || in.RequesterID <= 0 {
		return nil, validationError("reviewer and requester are required")
	}
	if !s.workflow.Get().AppliesTo(in.ContentType) {
		return nil, validationError("content type %s is not enabled for review workflow", in.ContentType)
	}

	now := s.now()
	pendingKey := models.PendingKeyFor(in.ContentType, in.DocumentID, in.Locale)
	review := models.Review{
		DocumentID:          uuid.NewString(),
		AssignedContentType: in.ContentType,
		AssignedDocumentID:  in.DocumentID,
		Locale:              in.Locale,
		Status:              models.ReviewStatusPending,
		AssignedTo:          in.ReviewerID,
		AssignedBy:          in.RequesterID,
		PendingKey:          &pendingKey,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := hasPendingReview(tx, in.ContentType, in.DocumentID, in.Locale)
		if err != nil {
			return err
		}
		if pending {
			return pendingConflict(in.ContentType, in.DocumentID, in.Locale)
		}

		if err := tx.Create(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pendingConflict(in.ContentType, in.DocumentID, in.Locale)
			}
			return fmt.Errorf("failed to create review: %w", err)
		}

		if in.Note == "" {
			return nil
		}
		return createComment(tx, &models.ReviewComment{
			ReviewID:    review.ReviewID,
			Content:     in.Note,
			CommentType: models.CommentTypeAssignment,
			AuthorID:    in.RequesterID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.committed(ctx, ActionAssigned, in.RequesterID, review.ReviewID)
}

func pendingConflict(contentType, documentID, locale string) error {
	return conflictError("a pending review already exists for %s/%s (%s)", contentType, documentID, locale)
}

// LocaleFailure reports an assign failure for one locale.
type LocaleFailure struct {
	Locale string `json:"locale"`
	Error  string `json:"error"`
}

// MultiLocaleResult lists which locales were assigned and which failed.
type MultiLocaleResult struct {
	Success []string        `json:"success"`
	Failed  []LocaleFailure `json:"failed"`
}

// AssignMultiLocale assigns each locale independently. A failure on one
// locale is reported and does not stop the others.
func (s *ReviewService) AssignMultiLocale(ctx context.Context, in AssignInput, locales []string) (*MultiLocaleResult, error) {
	unique := dedupeTrimmed(locales)
	if len(unique) == 0 {
		return nil, validationError("at least one locale is required")
	}

	result := &MultiLocaleResult{Success: []string{}, Failed: []LocaleFailure{}}
	for _, locale := range unique {
		perLocale := in
		perLocale.Locale = locale
		if _, err := s.Assign(ctx, perLocale); err != nil {
			if KindOf(err) == "" {
				log.Printf("assign %s/%s (%s) failed: %v", in.ContentType, in.DocumentID, locale, err)
			}
			result.Failed = append(result.Failed, LocaleFailure{Locale: locale, Error: err.Error()})
			continue
		}
		result.Success = append(result.Success, locale)
	}
	return result, nil
}

// DocumentLocale names one document locale of a bulk request.
type DocumentLocale struct {
	DocumentID string `json:"documentId"`
	Locale     string `json:"locale"`
}

type BulkAssignInput struct {
	ContentType string
	ReviewerID  int
	RequesterID int
	Note        string
	Documents   []DocumentLocale
}

type BulkAssignSuccess struct {
	DocumentID string `json:"documentId"`
	Locale     string `json:"locale"`
	ReviewID   string `json:"reviewId"`
}

type BulkAssignFailure struct {
	DocumentID string `json:"documentId"`
	Locale     string `json:"locale"`
	Error      string `json:"error"`
}

type BulkAssignResult struct {
	Success []BulkAssignSuccess `json:"success"`
	Failed  []BulkAssignFailure `json:"failed"`
}

// BulkAssign assigns many documents to one reviewer with per-item results,
// reported in request order.
func (s *ReviewService) BulkAssign(ctx context.Context, in BulkAssignInput) (*BulkAssignResult, error) {
	if len(in.Documents) == 0 {
		return nil, validationError("documents are required")
	}

	type outcome struct {
		review *models.Review
		err    error
	}
	outcomes := make([]outcome, len(in.Documents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkAssignConcurrency)
	for i, doc := range in.Documents {
		i, doc := i, doc
		g.Go(func() error {
			review, err := s.Assign(gctx, AssignInput{
				ContentType: in.ContentType,
				DocumentID:  doc.DocumentID,
				Locale:      doc.Locale,
				ReviewerID:  in.ReviewerID,
				RequesterID: in.RequesterID,
				Note:        in.Note,
			})
			outcomes[i] = outcome{review: review, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &BulkAssignResult{Success: []BulkAssignSuccess{}, Failed: []BulkAssignFailure{}}
	for i, doc := range in.Documents {
		if err := outcomes[i].err; err != nil {
			result.Failed = append(result.Failed, BulkAssignFailure{DocumentID: doc.DocumentID, Locale: doc.Locale, Error: err.Error()})
			continue
		}
		result.Success = append(result.Success, BulkAssignSuccess{
			DocumentID: doc.DocumentID,
			Locale:     doc.Locale,
			ReviewID:   outcomes[i].review.DocumentID,
		})
	}
	return result, nil
}

// Approve moves a pending review to approved. Any field comment attached to
// the review blocks approval; on success all of them are removed.
func (s *ReviewService) Approve(ctx context.Context, reviewID, locale string, reviewerID int, note string) (*models.Review, error) {
	note = strings.TrimSpace(note)
	var id int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := findReview(tx, reviewID, locale, true)
		if err != nil {
			return err
		}
		id = review.ReviewID
		if err := requireReviewer(review, reviewerID); err != nil {
			return err
		}
		if !review.IsPending() {
			return invalidStateError("review is %s, only pending reviews can be approved", review.Status)
		}
		if err := requireCurrent(tx, review); err != nil {
			return err
		}

		total, err := countFieldComments(tx, review.ReviewID, false)
		if err != nil {
			return err
		}
		if total > 0 {
			return blockedError("review has %d field comment(s); remove them before approving", total)
		}

		now := s.now()
		if err := setStatus(tx, review.ReviewID, models.ReviewStatusApproved, &now, nil, now); err != nil {
			return err
		}
		if note != "" {
			if err := createComment(tx, &models.ReviewComment{
				ReviewID:    review.ReviewID,
				Content:     note,
				CommentType: models.CommentTypeApproval,
				AuthorID:    reviewerID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		return deleteFieldComments(tx, review.ReviewID)
	})
	if err != nil {
		return nil, err
	}

	return s.committed(ctx, ActionApproved, reviewerID, id)
}

// Reject moves a pending review to rejected with a mandatory reason. Field
// comments are kept as context for the requester.
func (s *ReviewService) Reject(ctx context.Context, reviewID, locale string, reviewerID int, reason string) (*models.Review, error) {
	reason = strings.TrimSpace(reason)

	var id int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := findReview(tx, reviewID, locale, true)
		if err != nil {
			return err
		}
		id = review.ReviewID
		if err := requireReviewer(review, reviewerID); err != nil {
			return err
		}
		if !review.IsPending() {
			return invalidStateError("review is %s, only pending reviews can be rejected", review.Status)
		}
		if err := requireCurrent(tx, review); err != nil {
			return err
		}
		if reason == "" {
			return validationError("rejection reason is required")
		}

		now := s.now()
		if err := setStatus(tx, review.ReviewID, models.ReviewStatusRejected, &now, nil, now); err != nil {
			return err
		}
		return createComment(tx, &models.ReviewComment{
			ReviewID:    review.ReviewID,
			Content:     reason,
			CommentType: models.CommentTypeRejection,
			AuthorID:    reviewerID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.committed(ctx, ActionRejected, reviewerID, id)
}

// ReRequest sends a rejected review back to pending. Only the requester may
// do so, and only once every field comment is resolved.
func (s *ReviewService) ReRequest(ctx context.Context, reviewID, locale string, requesterID int, comment string) (*models.Review, error) {
	comment = strings.TrimSpace(comment)

	var id int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := findReview(tx, reviewID, locale, true)
		if err != nil {
			return err
		}
		id = review.ReviewID
		if review.AssignedBy != requesterID {
			return authorizationError("only the requester can re-request this review")
		}
		if !review.IsRejected() {
			return invalidStateError("review is %s, only rejected reviews can be re-requested", review.Status)
		}
		superseded, err := isSuperseded(tx, review)
		if err != nil {
			return err
		}
		if superseded {
			// A newer pending review would collide on the pending key.
			pending, err := hasPendingReview(tx, review.AssignedContentType, review.AssignedDocumentID, review.Locale)
			if err != nil {
				return err
			}
			if pending {
				return pendingConflict(review.AssignedContentType, review.AssignedDocumentID, review.Locale)
			}
			return invalidStateError("review has been superseded by a newer review")
		}

		unresolved, err := countFieldComments(tx, review.ReviewID, true)
		if err != nil {
			return err
		}
		if unresolved > 0 {
			return blockedError("review has %d unresolved field comment(s)", unresolved)
		}
		if comment == "" {
			return validationError("a comment is required to re-request a review")
		}

		now := s.now()
		pendingKey := models.PendingKeyFor(review.AssignedContentType, review.AssignedDocumentID, review.Locale)
		if err := setStatus(tx, review.ReviewID, models.ReviewStatusPending, nil, &pendingKey, now); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pendingConflict(review.AssignedContentType, review.AssignedDocumentID, review.Locale)
			}
			return err
		}
		return createComment(tx, &models.ReviewComment{
			ReviewID:    review.ReviewID,
			Content:     comment,
			CommentType: models.CommentTypeReRequest,
			AuthorID:    requesterID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.committed(ctx, ActionReRequested, requesterID, id)
}

func requireReviewer(review *models.Review, callerID int) error {
	if review.AssignedTo != callerID {
		return authorizationError("only the assigned reviewer can act on this review")
	}
	return nil
}

// setStatus writes status, reviewed_at and pending_key together so that
// reviewed_at is set exactly for approved and rejected reviews.
func setStatus(tx *gorm.DB, reviewID int, status string, reviewedAt *time.Time, pendingKey *string, now time.Time) error {
	err := tx.Model(&models.Review{}).
		Where("review_id = ?", reviewID).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_at": reviewedAt,
			"pending_key": pendingKey,
			"updated_at":  now,
		}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		return fmt.Errorf("failed to update review status: %w", err)
	}
	return nil
}

// committed reloads a review after its transaction and publishes the change.
func (s *ReviewService) committed(ctx context.Context, action string, actorID, reviewID int) (*models.Review, error) {
	review, err := loadReview(s.db.WithContext(persistentContext(ctx)), reviewID)
	if err != nil {
		return nil, err
	}
	log.Printf("review %s %s/%s (%s) %s by user %d",
		review.DocumentID, review.AssignedContentType, review.AssignedDocumentID, review.Locale, action, actorID)
	s.events.NotifyChanged(ReviewEvent{Action: action, ActorID: actorID, Review: review})
	return review, nil
}

// GetCurrent returns the most recently created review for the key, or nil.
func (s *ReviewService) GetCurrent(ctx context.Context, contentType, documentID, locale string) (*models.Review, error) {
	return findCurrentReview(s.db.WithContext(ctx), contentType, documentID, locale)
}

// Get returns a review by its own document id and locale.
func (s *ReviewService) Get(ctx context.Context, reviewID, locale string) (*models.Review, error) {
	review, err := findReview(s.db.WithContext(ctx), reviewID, locale, false)
	if err != nil {
		return nil, err
	}
	return loadReview(s.db.WithContext(ctx), review.ReviewID)
}

// ListPending returns pending reviews assigned to reviewerID, newest first.
func (s *ReviewService) ListPending(ctx context.Context, reviewerID int) ([]models.Review, error) {
	return s.list(ctx, "created_at DESC, review_id DESC",
		"assigned_to = ? AND status = ?", reviewerID, models.ReviewStatusPending)
}

// ListRejected returns current rejected reviews assigned to reviewerID,
// most recently reviewed first.
func (s *ReviewService) ListRejected(ctx context.Context, reviewerID int) ([]models.Review, error) {
	return s.list(ctx, "reviewed_at DESC, review_id DESC",
		"assigned_to = ? AND status = ?", reviewerID, models.ReviewStatusRejected)
}

// ListAssignedBy returns the requester's current pending and rejected reviews,
// most recent activity first.
func (s *ReviewService) ListAssignedBy(ctx context.Context, requesterID int) ([]models.Review, error) {
	return s.list(ctx, "COALESCE(reviewed_at, created_at) DESC, review_id DESC",
		"assigned_by = ? AND status IN ?", requesterID,
		[]string{models.ReviewStatusPending, models.ReviewStatusRejected})
}

func (s *ReviewService) list(ctx context.Context, order string, where string, args ...interface{}) ([]models.Review, error) {
	var reviews []models.Review
	if err := withReviewRelations(s.db.WithContext(ctx)).
		Where(where, args...).
		Where(notSuperseded).
		Order(order).
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func dedupeTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
