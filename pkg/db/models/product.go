package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Carts snapshot name and price at add time.
type Product struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;size:100;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null"`
	Description string          `gorm:"column:description;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
