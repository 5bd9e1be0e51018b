package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
)

// Order is the persisted aggregate produced by a checkout. Code carries the
// human-readable identifier (FP-YYYYMMDD-NNNNNN) and is unique platform-wide.
type Order struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                 string             `gorm:"column:code;not null;uniqueIndex:ux_orders_code"`
	UserID               uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	CompanyID            uuid.UUID          `gorm:"column:company_id;type:uuid;not null;index"`
	Amount               int64              `gorm:"column:amount;not null"`
	Status               enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	IsCashPayment        bool               `gorm:"column:is_cash_payment;not null;default:false"`
	Phone                string             `gorm:"column:phone;not null;default:''"`
	Address              string             `gorm:"column:address;not null;default:''"`
	DeliveryInstructions *string            `gorm:"column:delivery_instructions"`
	Remarks              *string            `gorm:"column:remarks"`
	TransactionID        *uuid.UUID         `gorm:"column:transaction_id;type:uuid"`
	GatewayPaymentID     *string            `gorm:"column:gateway_payment_id"`
	Items                []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Transaction          *WalletTransaction `gorm:"foreignKey:TransactionID"`
	CancelledAt          *time.Time         `gorm:"column:cancelled_at"`
	DeliveredAt          *time.Time         `gorm:"column:delivered_at"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
