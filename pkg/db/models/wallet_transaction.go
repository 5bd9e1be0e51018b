package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
)

// WalletTransaction is the immutable record of one balance-affecting event.
// Rows are append-only; reversals are new rows, never updates.
type WalletTransaction struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID     uuid.UUID          `gorm:"column:wallet_id;type:uuid;not null;index"`
	UserID       uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Amount       int64              `gorm:"column:amount;not null"`
	Direction    enums.TxnDirection `gorm:"column:direction;type:txn_direction;not null"`
	Type         enums.TxnType      `gorm:"column:type;type:txn_type;not null"`
	PaymentMode  enums.PaymentMode  `gorm:"column:payment_mode;type:payment_mode;not null;default:'Credits'"`
	BalanceAfter int64              `gorm:"column:balance_after;not null"`
	OrderID      *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Remark       *string            `gorm:"column:remark"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
