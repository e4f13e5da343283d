package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"review-workflow-api/config"
	"review-workflow-api/models"
)

// Verdict is the publish gate decision for one document locale.
type Verdict string

const (
	VerdictAllow                 Verdict = "allow"
	VerdictNoReview              Verdict = "NO_REVIEW"
	VerdictReviewPending         Verdict = "REVIEW_PENDING"
	VerdictReviewRejected        Verdict = "REVIEW_REJECTED"
	VerdictModifiedAfterApproval Verdict = "MODIFIED_AFTER_APPROVAL"
)

var verdictMessages = map[Verdict]string{
	VerdictNoReview:              "This content must be reviewed and approved before it can be published.",
	VerdictReviewPending:         "This content has a pending review and cannot be published until it is approved.",
	VerdictReviewRejected:        "This content was rejected in review and must be re-submitted and approved before publishing.",
	VerdictModifiedAfterApproval: "This content was modified after it was approved and must be reviewed again before publishing.",
}

// Message returns the fixed explanation for a blocking verdict.
func (v Verdict) Message() string {
	return verdictMessages[v]
}

func (v Verdict) Allowed() bool {
	return v == VerdictAllow
}

// PublishBlockedError is returned by Check when the gate blocks publication.
type PublishBlockedError struct {
	Verdict Verdict
}

func (e *PublishBlockedError) Error() string {
	return fmt.Sprintf("publish blocked (%s): %s", e.Verdict, e.Verdict.Message())
}

// Decide maps the current review and the document's modification time to a
// verdict. documentUpdatedAt is nil when no timestamp could be obtained.
func Decide(review *models.Review, documentUpdatedAt *time.Time) Verdict {
	if review == nil {
		return VerdictNoReview
	}
	switch review.Status {
	case models.ReviewStatusPending:
		return VerdictReviewPending
	case models.ReviewStatusRejected:
		return VerdictReviewRejected
	case models.ReviewStatusApproved:
		if documentUpdatedAt != nil && review.ReviewedAt != nil && documentUpdatedAt.After(*review.ReviewedAt) {
			return VerdictModifiedAfterApproval
		}
		return VerdictAllow
	default:
		return VerdictNoReview
	}
}

// CurrentReviewFinder is the read path the gate uses to find the current review.
type CurrentReviewFinder interface {
	GetCurrent(ctx context.Context, contentType, documentID, locale string) (*models.Review, error)
}

// PublishGate decides whether a document locale may be published.
type PublishGate struct {
	reviews   CurrentReviewFinder
	documents DocumentStore
	workflow  *config.WorkflowHolder
}

func NewPublishGate(reviews CurrentReviewFinder, documents DocumentStore, workflow *config.WorkflowHolder) *PublishGate {
	return &PublishGate{reviews: reviews, documents: documents, workflow: workflow}
}

// Evaluate returns the verdict for the key. Blocking is a verdict, not an
// error; errors mean the decision could not be made and publishing must not
// proceed. Content types outside the workflow are always allowed.
func (g *PublishGate) Evaluate(ctx context.Context, contentType, documentID, locale string) (Verdict, error) {
	wf := g.workflow.Get()
	if !wf.AppliesTo(contentType) {
		return VerdictAllow, nil
	}

	review, err := g.reviews.GetCurrent(ctx, contentType, documentID, locale)
	if err != nil {
		return "", err
	}
	if review == nil || !review.IsApproved() {
		verdict := Decide(review, nil)
		gateVerdicts.WithLabelValues(string(verdict)).Inc()
		return verdict, nil
	}

	updatedAt, err := g.documents.DocumentUpdatedAt(ctx, contentType, documentID, locale)
	if err != nil {
		if !wf.Gate.AllowOnLookupError {
			return "", fmt.Errorf("failed to read modification time of %s/%s (%s): %w", contentType, documentID, locale, err)
		}
		log.Printf("publish gate: modification time lookup for %s/%s (%s) failed, allowing approved review: %v",
			contentType, documentID, locale, err)
		verdict := Decide(review, nil)
		gateVerdicts.WithLabelValues(string(verdict)).Inc()
		return verdict, nil
	}

	verdict := Decide(review, &updatedAt)
	gateVerdicts.WithLabelValues(string(verdict)).Inc()
	return verdict, nil
}

// Check is the host publish pathway entry point: nil when publishing may
// proceed, *PublishBlockedError when the gate blocks it.
func (g *PublishGate) Check(ctx context.Context, contentType, documentID, locale string) error {
	verdict, err := g.Evaluate(ctx, contentType, documentID, locale)
	if err != nil {
		return err
	}
	if !verdict.Allowed() {
		return &PublishBlockedError{Verdict: verdict}
	}
	return nil
}
