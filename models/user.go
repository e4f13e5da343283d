package models

import (
	"strings"
	"time"
)

// User is the read-only view of the identity system's users table.
type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"id"`
	UserFname string     `gorm:"column:user_fname" json:"firstname"`
	UserLname string     `gorm:"column:user_lname" json:"lastname"`
	Email     string     `gorm:"column:email;size:191;unique" json:"email"`
	RoleID    int        `gorm:"column:role_id" json:"roleId"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"-"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"-"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"-"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

// DisplayName returns "first last", falling back to the email.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.UserFname + " " + u.UserLname)
	if name == "" {
		return u.Email
	}
	return name
}
