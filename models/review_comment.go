package models

import "time"

// Comment types attached to a review.
const (
	CommentTypeAssignment   = "assignment"
	CommentTypeRejection    = "rejection"
	CommentTypeReRequest    = "re-request"
	CommentTypeApproval     = "approval"
	CommentTypeGeneral      = "general"
	CommentTypeFieldComment = "field-comment"
)

// ReviewComment is an annotation owned by a review. Only field comments carry
// a field name and a resolved flag; every other type is append-only.
type ReviewComment struct {
	CommentID   int       `gorm:"primaryKey;column:comment_id" json:"id"`
	ReviewID    int       `gorm:"column:review_id;index" json:"reviewId"`
	Content     string    `gorm:"column:content;type:text" json:"content"`
	CommentType string    `gorm:"column:comment_type;size:32;index" json:"commentType"`
	AuthorID    int       `gorm:"column:author_id" json:"authorId"`
	FieldName   *string   `gorm:"column:field_name;size:191" json:"fieldName,omitempty"`
	Resolved    bool      `gorm:"column:resolved;not null;default:false" json:"resolved"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName specifies the table name for ReviewComment.
func (ReviewComment) TableName() string {
	return "review_workflow_comments"
}

func (c *ReviewComment) IsFieldComment() bool {
	return c.CommentType == CommentTypeFieldComment
}
