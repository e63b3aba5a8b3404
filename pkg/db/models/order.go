package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is append-only: rows are never updated or deleted after commit.
type Order struct {
	ID              uint                   `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          uint                   `gorm:"column:user_id;not null;index:idx_orders_user_id"`
	Date            time.Time              `gorm:"column:date;not null"`
	Total           decimal.Decimal        `gorm:"column:total;type:decimal(12,2);not null"`
	Status          enums.OrderStatus      `gorm:"column:status;size:50;not null;default:'Pendiente'"`
	PaymentProvider *enums.PaymentProvider `gorm:"column:payment_provider;size:32"`
	PreferenceID    *string                `gorm:"column:preference_id;size:128;uniqueIndex:idx_orders_preference_id"`
	PaymentID       *string                `gorm:"column:payment_id;size:128"`
	LineItems       []OrderLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
}
