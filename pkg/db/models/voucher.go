package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/fitplay-hq/fitplay-backend/pkg/db/types"
)

// Voucher is a redeemable code worth a fixed number of credits. CompanyIDs
// scopes redemption to specific companies; an empty array means any company.
type Voucher struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code       string             `gorm:"column:code;uniqueIndex:ux_vouchers_code;not null"`
	Credits    int64              `gorm:"column:credits;not null"`
	CompanyIDs dbtypes.UUIDArray  `gorm:"column:company_ids;type:uuid[]"`
	MaxUses    *int               `gorm:"column:max_uses"`
	UseCount   int                `gorm:"column:use_count;not null;default:0"`
	ExpiresAt  *time.Time         `gorm:"column:expires_at"`
	IsActive   bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
