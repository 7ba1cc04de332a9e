package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session ties a sign-in event to a user. Deleting the row revokes the tokens issued for it.
type Session struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:char(36);not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	IPAddress string    `json:"ipAddress,omitempty" gorm:"size:64"`
	UserAgent string    `json:"userAgent,omitempty" gorm:"size:512"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the session is no longer usable at t.
func (s *Session) Expired(t time.Time) bool {
	return !s.ExpiresAt.After(t)
}
