package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization tier attached to a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleCustomer Role = "customer"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleCustomer:
		return true
	}
	return false
}

// User represents an identity that can sign in to the storefront or back-office.
type User struct {
	ID            uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	Email         string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	EmailVerified bool      `json:"emailVerified" gorm:"default:false"`
	Image         string    `json:"image,omitempty" gorm:"size:512"`
	Role          Role      `json:"role" gorm:"type:varchar(20);not null;default:'user';index"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// UserWithLogin is a user row joined with the time of its most recent session.
type UserWithLogin struct {
	User
	LastLoginAt *time.Time `json:"lastLoginAt"`
}
