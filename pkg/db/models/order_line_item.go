package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLineItem captures the cart line snapshot each order was built from.
type OrderLineItem struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   uint            `gorm:"column:order_id;not null;index:idx_order_line_items_order_id"`
	ProductID uint            `gorm:"column:product_id;not null"`
	Name      string          `gorm:"column:name;size:100;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:decimal(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
