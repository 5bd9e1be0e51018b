package models

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a specific purchasable configuration of a product, carrying its
// own list price and stock count.
type Variant struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	SKU            string    `gorm:"column:sku;not null;uniqueIndex"`
	Label          string    `gorm:"column:label;not null"`
	MRP            int64     `gorm:"column:mrp;not null"`
	AvailableStock int       `gorm:"column:available_stock;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
