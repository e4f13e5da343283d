package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to      []string
	subject string
	html    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendMail(to []string, subject, html string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html})
	return m.err
}

func newSyncNotifier(t *testing.T, env *testEnv, mailer Mailer, baseURL string) {
	t.Helper()
	n := NewMailNotifier(mailer, baseURL)
	n.dispatch = func(fn func()) { fn() }
	t.Cleanup(n.Subscribe(env.events))
}

func TestNotifierMailsReviewerOnAssign(t *testing.T) {
	env := newTestEnv(t)
	mailer := &fakeMailer{}
	newSyncNotifier(t, env, mailer, "https://cms.example.com/")

	env.assign(t, "doc1", "en", "please check <the> intro")

	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, []string{"vic@example.com"}, mail.to)
	assert.Equal(t, "Review requested: "+testContentType+"/doc1", mail.subject)
	assert.Contains(t, mail.html, "Rita Requester")
	assert.Contains(t, mail.html, "please check &lt;the&gt; intro")
	assert.Contains(t, mail.html, "https://cms.example.com/content-manager/"+testContentType+"/doc1?locale=en")
}

func TestNotifierMailsRequesterOnDecision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	review := env.assign(t, "doc1", "en", "")

	mailer := &fakeMailer{}
	newSyncNotifier(t, env, mailer, "")

	_, err := env.reviews.Reject(ctx, review.DocumentID, "en", reviewerID, "headline is wrong")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, []string{"rita@example.com"}, mail.to)
	assert.Equal(t, "Changes requested: "+testContentType+"/doc1", mail.subject)
	assert.Contains(t, mail.html, "Vic Reviewer")
	assert.Contains(t, mail.html, "headline is wrong")
	assert.NotContains(t, mail.html, "href")
}

func TestNotifierIgnoresFieldCommentEvents(t *testing.T) {
	env := newTestEnv(t)
	review := env.assign(t, "doc1", "en", "")

	mailer := &fakeMailer{}
	newSyncNotifier(t, env, mailer, "")

	_, err := env.comments.AddFieldComment(context.Background(), review.DocumentID, "en", "title", reviewerID, "shorter")
	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestNotifierSendFailureDoesNotFailTransition(t *testing.T) {
	env := newTestEnv(t)
	mailer := &fakeMailer{err: errors.New("smtp down")}
	newSyncNotifier(t, env, mailer, "")

	review := env.assign(t, "doc1", "en", "")
	assert.True(t, review.IsPending())
	assert.Len(t, mailer.sent, 1)
}

func TestNotifierSkipsInvalidRecipient(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Exec("UPDATE users SET email = ? WHERE user_id = ?", "not-an-address", reviewerID).Error)

	mailer := &fakeMailer{}
	newSyncNotifier(t, env, mailer, "")

	env.assign(t, "doc1", "en", "")
	assert.Empty(t, mailer.sent)
}

func TestNotifierRendersSubjectAsPlainText(t *testing.T) {
	env := newTestEnv(t)
	mailer := &fakeMailer{}
	newSyncNotifier(t, env, mailer, "")

	review := env.assign(t, "faq&more", "en", "")
	_, err := env.reviews.Approve(context.Background(), review.DocumentID, "en", reviewerID, "")
	require.NoError(t, err)

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "Review requested: "+testContentType+"/faq&more", mailer.sent[0].subject)
	assert.Equal(t, "Review approved: "+testContentType+"/faq&more", mailer.sent[1].subject)
	assert.Contains(t, mailer.sent[1].html, "faq&amp;more")
}
