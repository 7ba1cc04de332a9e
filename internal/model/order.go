package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents where an order is in its lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every recognized status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is one of the recognized statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is expected from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order is a customer purchase.
type Order struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	CustomerID     uint            `json:"customerId" gorm:"not null;index"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount    decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null;default:0"`
	Currency       string          `json:"currency" gorm:"size:3;not null;default:'INR'"`
	PaymentOrderID string          `json:"paymentOrderId,omitempty" gorm:"size:64;index"`
	Notes          string          `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	Customer *Customer    `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Items    []OrderItem  `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Events   []OrderEvent `json:"events,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"orderId" gorm:"not null;index"`
	ProductID uint            `json:"productId" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null;default:0"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
