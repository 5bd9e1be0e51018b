package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
)

// OrderCreatedEvent signals a freshly placed order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	Code          string    `json:"code"`
	UserID        uuid.UUID `json:"user_id"`
	CompanyID     uuid.UUID `json:"company_id"`
	Amount        int64     `json:"amount"`
	IsCashPayment bool      `json:"is_cash_payment"`
	ItemCount     int       `json:"item_count"`
}

// OrderStateChangedEvent is emitted on every status transition.
type OrderStateChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	Code    string            `json:"code"`
	UserID  uuid.UUID         `json:"user_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent is emitted when an order is cancelled or rejected,
// after stock and credits have been restored.
type OrderCancelledEvent struct {
	OrderID      uuid.UUID `json:"order_id"`
	Code         string    `json:"code"`
	UserID       uuid.UUID `json:"user_id"`
	RefundAmount int64     `json:"refund_amount"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason,omitempty"`
}

// WalletCreditedEvent surfaces credit grants (allocations and voucher redemptions).
type WalletCreditedEvent struct {
	WalletID     uuid.UUID `json:"wallet_id"`
	UserID       uuid.UUID `json:"user_id"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Source       string    `json:"source"`
}

// VoucherRedeemedEvent records a successful voucher redemption.
type VoucherRedeemedEvent struct {
	VoucherID uuid.UUID `json:"voucher_id"`
	Code      string    `json:"code"`
	UserID    uuid.UUID `json:"user_id"`
	Credits   int64     `json:"credits"`
}

// FulfillmentItem is one order line forwarded to the fulfillment partner.
type FulfillmentItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// FulfillmentRequestedEvent asks the worker to create a sale order downstream.
type FulfillmentRequestedEvent struct {
	OrderID              uuid.UUID         `json:"order_id"`
	Code                 string            `json:"code"`
	UserID               uuid.UUID         `json:"user_id"`
	Phone                string            `json:"phone"`
	Address              string            `json:"address"`
	DeliveryInstructions string            `json:"delivery_instructions,omitempty"`
	Items                []FulfillmentItem `json:"items"`
}
