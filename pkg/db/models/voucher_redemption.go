package models

import (
	"time"

	"github.com/google/uuid"
)

// VoucherRedemption records a single use of a voucher by a user. The unique
// (voucher_id, user_id) index enforces one redemption per user per voucher.
type VoucherRedemption struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VoucherID     uuid.UUID `gorm:"column:voucher_id;type:uuid;not null;uniqueIndex:ux_voucher_redemptions_voucher_user"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_voucher_redemptions_voucher_user"`
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
