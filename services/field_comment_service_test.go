package services

import (
	"context"
	"testing"

	"review-workflow-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFieldCommentGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "")

	_, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, " ")
	assert.True(t, IsKind(err, KindValidation), "blank content: %v", err)

	_, err = env.comments.AddFieldComment(ctx, review.DocumentID, "en", "", reviewerID, "typo")
	assert.True(t, IsKind(err, KindValidation), "blank field: %v", err)

	_, err = env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", requesterID, "typo")
	assert.True(t, IsKind(err, KindAuthorization), "requester: %v", err)

	_, err = env.comments.AddFieldComment(ctx, "missing", "en", "title", reviewerID, "typo")
	assert.True(t, IsKind(err, KindNotFound), "missing review: %v", err)

	comment, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, "typo")
	require.NoError(t, err)
	assert.Equal(t, models.CommentTypeFieldComment, comment.CommentType)
	require.NotNil(t, comment.FieldName)
	assert.Equal(t, "title", *comment.FieldName)
	assert.False(t, comment.Resolved)
}

func TestFieldCommentsOnlyWhilePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "")
	_, err := env.reviews.Reject(ctx, review.DocumentID, "en", reviewerID, "no")
	require.NoError(t, err)

	_, err = env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, "typo")
	assert.True(t, IsKind(err, KindInvalidState), "got %v", err)
}

func TestApproveBlockedByAnyFieldComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "")

	comment, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, "typo")
	require.NoError(t, err)

	_, err = env.reviews.Approve(ctx, review.DocumentID, "en", reviewerID, "")
	assert.True(t, IsKind(err, KindBlocked), "got %v", err)

	// Resolving does not lift the approval block; only removal does.
	resolved, err := env.comments.ResolveFieldComment(ctx, comment.CommentID, requesterID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	_, err = env.reviews.Approve(ctx, review.DocumentID, "en", reviewerID, "")
	assert.True(t, IsKind(err, KindBlocked), "got %v", err)

	require.NoError(t, env.comments.DeleteFieldComment(ctx, comment.CommentID, reviewerID))
	approved, err := env.reviews.Approve(ctx, review.DocumentID, "en", reviewerID, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, approved.Status)
}

func TestRejectKeepsFieldComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "")
	_, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, "typo")
	require.NoError(t, err)

	rejected, err := env.reviews.Reject(ctx, review.DocumentID, "en", reviewerID, "see comments")
	require.NoError(t, err)

	total, err := env.comments.TotalCount(ctx, rejected.ReviewID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestReRequestBlockedUntilFieldCommentsResolved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "")
	comment, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "body", reviewerID, "too long")
	require.NoError(t, err)
	_, err = env.reviews.Reject(ctx, review.DocumentID, "en", reviewerID, "see comments")
	require.NoError(t, err)

	_, err = env.reviews.ReRequest(ctx, review.DocumentID, "en", requesterID, "fixed")
	assert.True(t, IsKind(err, KindBlocked), "got %v", err)

	_, err = env.comments.ResolveFieldComment(ctx, comment.CommentID, reviewerID)
	assert.True(t, IsKind(err, KindAuthorization), "reviewer cannot resolve: %v", err)

	_, err = env.comments.ResolveFieldComment(ctx, comment.CommentID, requesterID)
	require.NoError(t, err)

	unresolved, err := env.comments.UnresolvedCount(ctx, review.ReviewID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unresolved)

	again, err := env.reviews.ReRequest(ctx, review.DocumentID, "en", requesterID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPending, again.Status)
}

func TestResolveFieldCommentToggles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "")
	comment, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, "typo")
	require.NoError(t, err)

	first, err := env.comments.ResolveFieldComment(ctx, comment.CommentID, requesterID)
	require.NoError(t, err)
	assert.True(t, first.Resolved)

	second, err := env.comments.ResolveFieldComment(ctx, comment.CommentID, requesterID)
	require.NoError(t, err)
	assert.False(t, second.Resolved)

	unresolved, err := env.comments.UnresolvedCount(ctx, review.ReviewID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unresolved)
}

func TestDeleteFieldCommentGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "assignment note")
	comment, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, "typo")
	require.NoError(t, err)

	err = env.comments.DeleteFieldComment(ctx, 9999, reviewerID)
	assert.True(t, IsKind(err, KindNotFound), "got %v", err)

	err = env.comments.DeleteFieldComment(ctx, comment.CommentID, requesterID)
	assert.True(t, IsKind(err, KindAuthorization), "got %v", err)

	// The assignment comment is part of the audit trail.
	err = env.comments.DeleteFieldComment(ctx, review.Comments[0].CommentID, requesterID)
	assert.True(t, IsKind(err, KindInvalidState), "got %v", err)

	_, err = env.reviews.Reject(ctx, review.DocumentID, "en", reviewerID, "no")
	require.NoError(t, err)
	err = env.comments.DeleteFieldComment(ctx, comment.CommentID, reviewerID)
	assert.True(t, IsKind(err, KindInvalidState), "rejected review: %v", err)
}

func TestResolvedFieldCommentStillBlocksApprovalAfterReRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "note")
	comment, err := env.comments.AddFieldComment(ctx, review.DocumentID, "en", "title", reviewerID, "typo")
	require.NoError(t, err)
	_, err = env.reviews.Reject(ctx, review.DocumentID, "en", reviewerID, "fix title")
	require.NoError(t, err)
	_, err = env.comments.ResolveFieldComment(ctx, comment.CommentID, requesterID)
	require.NoError(t, err)
	_, err = env.reviews.ReRequest(ctx, review.DocumentID, "en", requesterID, "done")
	require.NoError(t, err)

	// The resolved comment is still attached and blocks approval.
	_, err = env.reviews.Approve(ctx, review.DocumentID, "en", reviewerID, "")
	assert.True(t, IsKind(err, KindBlocked), "got %v", err)

	var count int64
	require.NoError(t, env.db.Model(&models.ReviewComment{}).Where("review_id = ?", review.ReviewID).Count(&count).Error)
	assert.EqualValues(t, 4, count)

	summary, err := env.comments.ListFieldComments(ctx, review.DocumentID, "en")
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Total)
	assert.EqualValues(t, 0, summary.Unresolved)
}

func TestDeleteFieldCommentsLeavesAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	review := env.assign(t, "doc1", "en", "note")

	field := "title"
	require.NoError(t, env.db.Create(&models.ReviewComment{
		ReviewID: review.ReviewID, Content: "x", CommentType: models.CommentTypeFieldComment,
		AuthorID: reviewerID, FieldName: &field,
	}).Error)
	require.NoError(t, env.db.Create(&models.ReviewComment{
		ReviewID: review.ReviewID, Content: "fyi", CommentType: models.CommentTypeGeneral, AuthorID: reviewerID,
	}).Error)

	require.NoError(t, deleteFieldComments(env.db, review.ReviewID))

	var remaining []models.ReviewComment
	require.NoError(t, env.db.Where("review_id = ?", review.ReviewID).Order("comment_id").Find(&remaining).Error)
	require.Len(t, remaining, 2)
	assert.Equal(t, models.CommentTypeAssignment, remaining[0].CommentType)
	assert.Equal(t, models.CommentTypeGeneral, remaining[1].CommentType)
}
