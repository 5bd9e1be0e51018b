package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds one user's credit balance. Mutated only through
// ledger-producing operations; the balance must never go negative.
type Wallet struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Balance   int64     `gorm:"column:balance;not null;default:0"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
