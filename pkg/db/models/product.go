package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product groups one or more purchasable variants. The discount percent is
// product-level and inherited by every variant at pricing time.
type Product struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string         `gorm:"column:name;not null"`
	Description     *string        `gorm:"column:description"`
	Category        string         `gorm:"column:category;not null;default:''"`
	Tags            pq.StringArray `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	DiscountPercent *int           `gorm:"column:discount_percent"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true"`
	Variants        []Variant      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
