package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkflow(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadWorkflowMissingFileUsesDefaults(t *testing.T) {
	w, err := LoadWorkflow(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, w.ContentTypes)
	assert.Equal(t, time.Minute, w.Reviewers.CacheTTL)
	assert.Equal(t, 500, w.Batch.MaxDocumentIDs)
	assert.False(t, w.Gate.AllowOnLookupError)
	assert.True(t, w.AppliesTo("api::anything.anything"))
}

func TestLoadWorkflow(t *testing.T) {
	path := writeWorkflow(t, t.TempDir(), `
content_types: ["api::article.article", "  ", " api::page.page "]
permissions:
  review.handle: [2]
  review.admin: []
gate:
  allow_on_lookup_error: true
reviewers:
  cache_ttl: 30s
batch:
  max_document_ids: 10
`)
	w, err := LoadWorkflow(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"api::article.article", "api::page.page"}, w.ContentTypes)
	assert.True(t, w.AppliesTo("api::page.page"))
	assert.False(t, w.AppliesTo("api::product.product"))
	assert.True(t, w.Gate.AllowOnLookupError)
	assert.Equal(t, 30*time.Second, w.Reviewers.CacheTTL)
	assert.Equal(t, 10, w.Batch.MaxDocumentIDs)

	assert.True(t, w.HasPermission(2, PermissionHandle))
	assert.False(t, w.HasPermission(1, PermissionHandle))
	assert.False(t, w.HasPermission(2, PermissionAdmin))
	assert.True(t, w.HasPermission(7, PermissionRead))

	roles, restricted := w.RolesFor(PermissionHandle)
	assert.True(t, restricted)
	assert.Equal(t, []int{2}, roles)
	_, restricted = w.RolesFor(PermissionAssign)
	assert.False(t, restricted)
}

func TestLoadWorkflowInvalidYAML(t *testing.T) {
	path := writeWorkflow(t, t.TempDir(), "content_types: [unterminated")
	_, err := LoadWorkflow(path)
	assert.Error(t, err)
}

func TestWorkflowHolderReload(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkflow(t, dir, "content_types: [api::article.article]\n")

	h, err := NewWorkflowHolder(path)
	require.NoError(t, err)
	before := h.Get()
	assert.Equal(t, []string{"api::article.article"}, before.ContentTypes)

	writeWorkflow(t, dir, "content_types: [api::page.page]\n")
	require.NoError(t, h.Reload())
	assert.Equal(t, []string{"api::page.page"}, h.Get().ContentTypes)
	// Values handed out earlier are not mutated.
	assert.Equal(t, []string{"api::article.article"}, before.ContentTypes)

	writeWorkflow(t, dir, "content_types: [broken")
	assert.Error(t, h.Reload())
	assert.Equal(t, []string{"api::page.page"}, h.Get().ContentTypes)
}

func TestStaticWorkflowReloadKeepsValue(t *testing.T) {
	w := &Workflow{ContentTypes: []string{"api::page.page"}}
	h := StaticWorkflow(w)
	require.NoError(t, h.Reload())
	assert.Same(t, w, h.Get())
}

func TestMailerConfigFromEnv(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SMTP_FROM", "Review Workflow <no-reply@example.com>")
	t.Setenv("SMTP_SKIP_TLS_VERIFY", "1")

	cfg := MailerConfigFromEnv()
	assert.Equal(t, 587, cfg.Port)
	assert.True(t, cfg.SkipTLSVerify)
	assert.True(t, NewSMTPMailer(cfg).Configured())

	assert.False(t, NewSMTPMailer(MailerConfig{Host: "smtp.example.com"}).Configured())
	assert.Error(t, NewSMTPMailer(MailerConfig{}).SendMail([]string{"a@example.com"}, "s", "b"))
	assert.NoError(t, NewSMTPMailer(MailerConfig{}).SendMail(nil, "s", "b"))
}
