// Package gateway talks to the external payment provider. The dashboard only
// sees the order descriptor and the signed receipt; everything else about the
// provider stays behind Provider.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrBadSignature = errors.New("payment signature verification failed")
	ErrBadAmount    = errors.New("payment amount must be positive")
)

// Order is the provider-side order the checkout widget is opened with.
// Amount is in the currency's minor unit (paise for INR).
type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Receipt is what the checkout widget hands back after a successful payment.
type Receipt struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

type Provider interface {
	Name() string
	// KeyID is the public key the widget needs.
	KeyID() string
	Currency() string
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*Order, error)
	Verify(r Receipt) error
}

// ToMinor converts a currency amount to minor units.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinor converts minor units back to a currency amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Sign computes the receipt signature: hex(HMAC-SHA256(orderID|paymentID)).
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
