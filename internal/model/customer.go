package model

import "time"

// Customer is the buyer recorded on an order. Deleting a customer removes its orders.
type Customer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null;index"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone     string    `json:"phone,omitempty" gorm:"size:32"`
	Address   string    `json:"address,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:CustomerID"`
}
