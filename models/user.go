package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer or admin account
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	Phone         string         `gorm:"index;not null" json:"phone"`
	PasswordHash  string         `gorm:"not null" json:"-"`
	Role          string         `gorm:"not null;default:'user'" json:"role"` // "user" or "admin"
	IsActive      bool           `gorm:"not null;default:true" json:"is_active"`
	LoginAttempts int            `gorm:"not null;default:0" json:"-"`
	LockUntil     *time.Time     `json:"-"`
	LastLogin     *time.Time     `json:"last_login,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsLocked reports whether repeated login failures have locked the account at time now
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
