package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderEvent records a status transition of an order.
// Every transition is recorded, including the initial pending state.
type OrderEvent struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus,omitempty" gorm:"type:varchar(20)"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"type:varchar(20);not null;index"`
	ActorID    *uuid.UUID  `json:"actorId,omitempty" gorm:"type:char(36)"`
	Note       string      `json:"note,omitempty" gorm:"type:text"`
	CreatedAt  time.Time   `json:"createdAt"`
}
