package gateway

import (
	"context"
	"crypto/hmac"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sandbox is an in-process provider for development and tests. It signs
// receipts the same way Razorpay does, so Pay can produce receipts that
// pass Verify.
type Sandbox struct {
	keyID    string
	secret   string
	currency string

	mu     sync.Mutex
	orders map[string]Order
}

func NewSandbox(keyID, secret, currency string) *Sandbox {
	if keyID == "" {
		keyID = "rzp_test_sandbox"
	}
	if secret == "" {
		secret = "sandbox_secret"
	}
	return &Sandbox{keyID: keyID, secret: secret, currency: currency, orders: make(map[string]Order)}
}

func (s *Sandbox) Name() string     { return "sandbox" }
func (s *Sandbox) KeyID() string    { return s.keyID }
func (s *Sandbox) Currency() string { return s.currency }

func (s *Sandbox) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*Order, error) {
	if !amount.IsPositive() {
		return nil, ErrBadAmount
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := Order{
		ID:       "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14],
		Amount:   ToMinor(amount),
		Currency: s.currency,
		Receipt:  receipt,
		Notes:    notes,
	}
	s.mu.Lock()
	s.orders[o.ID] = o
	s.mu.Unlock()
	return &o, nil
}

// Pay simulates the widget completing a payment for orderID.
func (s *Sandbox) Pay(orderID string) Receipt {
	paymentID := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
	return Receipt{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: Sign(orderID, paymentID, s.secret),
	}
}

func (s *Sandbox) Verify(rc Receipt) error {
	s.mu.Lock()
	_, known := s.orders[rc.OrderID]
	s.mu.Unlock()
	if !known {
		return ErrBadSignature
	}
	want := Sign(rc.OrderID, rc.PaymentID, s.secret)
	if !hmac.Equal([]byte(want), []byte(rc.Signature)) {
		return ErrBadSignature
	}
	return nil
}
