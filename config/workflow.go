package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Permission names checked by the route guards.
const (
	PermissionRead   = "review.read"
	PermissionAssign = "review.assign"
	PermissionHandle = "review.handle"
	PermissionAdmin  = "review.admin"
)

// Workflow is the review workflow configuration. A loaded value is never
// mutated; reloading produces a new value.
type Workflow struct {
	// ContentTypes restricts the workflow to the listed content types.
	// Empty means the workflow applies to every content type.
	ContentTypes []string `yaml:"content_types" json:"contentTypes"`
	// Permissions maps a permission name to the role ids holding it.
	// A permission missing from the map is granted to every authenticated user.
	Permissions   map[string][]int    `yaml:"permissions" json:"-"`
	Gate          GateConfig          `yaml:"gate" json:"-"`
	Reviewers     ReviewersConfig     `yaml:"reviewers" json:"-"`
	Notifications NotificationsConfig `yaml:"notifications" json:"-"`
	Batch         BatchConfig         `yaml:"batch" json:"-"`
}

type GateConfig struct {
	// AllowOnLookupError lets an approved review pass the gate when the
	// document store cannot report the document's modification time.
	AllowOnLookupError bool `yaml:"allow_on_lookup_error"`
}

type ReviewersConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type NotificationsConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}

type BatchConfig struct {
	MaxDocumentIDs int `yaml:"max_document_ids"`
}

// DefaultWorkflow is used when no config file exists.
func DefaultWorkflow() *Workflow {
	w := &Workflow{}
	w.applyDefaults()
	return w
}

func (w *Workflow) applyDefaults() {
	if w.Reviewers.CacheTTL <= 0 {
		w.Reviewers.CacheTTL = time.Minute
	}
	if w.Batch.MaxDocumentIDs <= 0 {
		w.Batch.MaxDocumentIDs = 500
	}
	cleaned := make([]string, 0, len(w.ContentTypes))
	for _, ct := range w.ContentTypes {
		if ct = strings.TrimSpace(ct); ct != "" {
			cleaned = append(cleaned, ct)
		}
	}
	w.ContentTypes = cleaned
}

// LoadWorkflow reads the YAML file at path. A missing file yields the defaults.
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultWorkflow(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow config: %w", err)
	}

	w := &Workflow{}
	if err := yaml.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow config: %w", err)
	}
	w.applyDefaults()
	return w, nil
}

// AppliesTo reports whether the workflow governs contentType.
func (w *Workflow) AppliesTo(contentType string) bool {
	if len(w.ContentTypes) == 0 {
		return true
	}
	for _, ct := range w.ContentTypes {
		if ct == contentType {
			return true
		}
	}
	return false
}

// RolesFor returns the roles holding permission. restricted is false when the
// permission is granted to everyone.
func (w *Workflow) RolesFor(permission string) (roles []int, restricted bool) {
	roles, restricted = w.Permissions[permission]
	return roles, restricted
}

// HasPermission reports whether roleID holds permission.
func (w *Workflow) HasPermission(roleID int, permission string) bool {
	roles, ok := w.Permissions[permission]
	if !ok {
		return true
	}
	for _, r := range roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// WorkflowHolder owns the current Workflow value for a running service.
type WorkflowHolder struct {
	path    string
	current atomic.Pointer[Workflow]
}

func NewWorkflowHolder(path string) (*WorkflowHolder, error) {
	h := &WorkflowHolder{path: path}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// StaticWorkflow wraps an already loaded value; Reload keeps it.
func StaticWorkflow(w *Workflow) *WorkflowHolder {
	h := &WorkflowHolder{}
	h.current.Store(w)
	return h
}

func (h *WorkflowHolder) Get() *Workflow {
	return h.current.Load()
}

// Reload re-reads the config file and swaps it in.
func (h *WorkflowHolder) Reload() error {
	if h.path == "" {
		return nil
	}
	w, err := LoadWorkflow(h.path)
	if err != nil {
		return err
	}
	h.current.Store(w)
	return nil
}
