package models

import (
	"strings"
	"time"
)

// Review statuses. A key with no review row at all is treated as "none".
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Review is one review event for a (content type, document, locale) key.
// The current review for a key is the most recently created row.
type Review struct {
	ReviewID            int        `gorm:"primaryKey;column:review_id" json:"id"`
	DocumentID          string     `gorm:"column:document_id;size:36;uniqueIndex" json:"documentId"`
	AssignedContentType string     `gorm:"column:assigned_content_type;size:191;index:idx_reviews_key,priority:1" json:"assignedContentType"`
	AssignedDocumentID  string     `gorm:"column:assigned_document_id;size:191;index:idx_reviews_key,priority:2" json:"assignedDocumentId"`
	Locale              string     `gorm:"column:locale;size:32;index:idx_reviews_key,priority:3" json:"locale"`
	Status              string     `gorm:"column:status;size:16;index" json:"status"`
	AssignedTo          int        `gorm:"column:assigned_to;index" json:"assignedTo"`
	AssignedBy          int        `gorm:"column:assigned_by;index" json:"assignedBy"`
	PendingKey          *string    `gorm:"column:pending_key;size:512;uniqueIndex" json:"-"`
	ReviewedAt          *time.Time `gorm:"column:reviewed_at" json:"reviewedAt"`
	CreatedAt           time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"column:updated_at" json:"updatedAt"`

	// Relations
	Reviewer  *User           `gorm:"foreignKey:AssignedTo" json:"reviewer,omitempty"`
	Requester *User           `gorm:"foreignKey:AssignedBy" json:"requester,omitempty"`
	Comments  []ReviewComment `gorm:"foreignKey:ReviewID" json:"comments,omitempty"`
}

// TableName specifies the table name for Review.
func (Review) TableName() string {
	return "review_workflow_reviews"
}

// PendingKeyFor builds the value stored in pending_key while a review is
// pending. The column is NULL otherwise, so its unique index allows at most
// one pending review per key.
func PendingKeyFor(contentType, documentID, locale string) string {
	return strings.Join([]string{contentType, documentID, locale}, "|")
}

func (r *Review) IsPending() bool  { return r.Status == ReviewStatusPending }
func (r *Review) IsApproved() bool { return r.Status == ReviewStatusApproved }
func (r *Review) IsRejected() bool { return r.Status == ReviewStatusRejected }
