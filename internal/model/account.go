package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderCredential marks an account that authenticates with email and password.
const ProviderCredential = "credential"

// Account links a user to an authentication provider and holds its credentials.
type Account struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID       uuid.UUID `json:"userId" gorm:"type:char(36);not null;index"`
	ProviderID   string    `json:"providerId" gorm:"size:50;not null;default:'credential'"`
	PasswordHash string    `json:"-" gorm:"size:255"` // Never expose in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
