package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. Images holds object-store keys under products/{slug}/.
type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;size:191;not null"`
	Name        string          `json:"name" gorm:"size:255;not null;index"`
	Description string          `json:"description,omitempty" gorm:"type:text"`
	Category    string          `json:"category,omitempty" gorm:"size:100;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	Active      bool            `json:"active" gorm:"not null;index"`
	Images      []string        `json:"images" gorm:"serializer:json;type:text"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}
