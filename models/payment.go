package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentView is the admin reconciliation projection of an order's
// payment fields.
type PaymentView struct {
	ID            uint            `json:"id"` // same as the order id
	OrderID       uint            `json:"order_id"`
	Vendor        *User           `json:"vendor,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        PaymentStatus   `json:"status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	OrderedAt     time.Time       `json:"ordered_at"`
}

// PaymentViewOf projects an order into its payment record.
func PaymentViewOf(o Order) PaymentView {
	return PaymentView{
		ID:            o.ID,
		OrderID:       o.ID,
		Vendor:        o.Vendor,
		PaymentMethod: o.PaymentMethod,
		Status:        o.PaymentStatus,
		TotalPrice:    o.TotalPrice,
		AmountPaid:    o.AmountPaid,
		AmountDue:     o.AmountDue,
		OrderedAt:     o.CreatedAt,
	}
}

// CheckoutSession binds an order and an amount to a one-time session id
// for the gateway handoff.
type CheckoutSession struct {
	ID             string          `json:"session_id" gorm:"primaryKey;size:64"`
	OrderID        uint            `json:"order_id" gorm:"not null;index"`
	VendorID       uint            `json:"vendor_id" gorm:"not null"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	GatewayOrderID string          `json:"gateway_order_id" gorm:"index"`
	ExpiresAt      time.Time       `json:"expires_at"`
	ConsumedAt     *time.Time      `json:"consumed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
