package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"coconut-supply/gateway"
	"coconut-supply/ledger"
	"coconut-supply/models"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a currency amount typed into a form.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, invalid("amount", "please enter a valid payment amount")
	}
	return d, nil
}

// PaymentBook is the admin reconciliation list. It keeps the last fetched
// records and only changes one after the server has accepted the change.
type PaymentBook struct {
	s *Session

	mu      sync.RWMutex
	records []models.PaymentView
}

func NewPaymentBook(s *Session) *PaymentBook { return &PaymentBook{s: s} }

// Fetch loads the records without touching the book.
func (b *PaymentBook) Fetch(ctx context.Context) ([]models.PaymentView, error) {
	id, err := b.s.Require(models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	var records []models.PaymentView
	err = b.s.client.do(ctx, "GET", "/admin/payments", id.Token, nil, &records)
	return records, err
}

func (b *PaymentBook) Refresh(ctx context.Context) error {
	records, err := b.Fetch(ctx)
	if err != nil {
		return err
	}
	b.Replace(records)
	return nil
}

func (b *PaymentBook) Replace(records []models.PaymentView) {
	b.mu.Lock()
	b.records = append([]models.PaymentView(nil), records...)
	b.mu.Unlock()
}

func (b *PaymentBook) Records() []models.PaymentView {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.PaymentView(nil), b.records...)
}

func (b *PaymentBook) find(orderID uint) (models.PaymentView, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, r := range b.records {
		if r.OrderID == orderID {
			return r, true
		}
	}
	return models.PaymentView{}, false
}

// RecordCashPayment settles amount against the order's last known due. The
// local record is updated from the server's answer, never before it. When
// the record changed on the server since the last fetch, the book is
// re-fetched and the server's 409 is returned.
func (b *PaymentBook) RecordCashPayment(ctx context.Context, orderID uint, amount decimal.Decimal) (models.PaymentView, error) {
	id, err := b.s.Require(models.RoleAdmin)
	if err != nil {
		return models.PaymentView{}, err
	}
	current, ok := b.find(orderID)
	if !ok {
		return models.PaymentView{}, invalid("order", "payment record not loaded")
	}
	if current.PaymentMethod != models.PaymentCash {
		return models.PaymentView{}, invalid("order", "only cash payments are reconciled manually")
	}
	if _, err := ledger.Apply(current.AmountPaid, current.AmountDue, amount); err != nil {
		if errors.Is(err, ledger.ErrOverpayment) {
			return models.PaymentView{}, invalid("amount", "payment amount cannot exceed due amount ("+current.AmountDue.StringFixed(2)+")")
		}
		return models.PaymentView{}, invalid("amount", err.Error())
	}

	updated, err := getData[models.PaymentView](ctx, b.s.client, "PUT",
		"/admin/payments/"+strconv.FormatUint(uint64(orderID), 10), id.Token,
		map[string]any{
			"amount":           amount,
			"base_amount_paid": current.AmountPaid,
		})
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Status == http.StatusConflict {
		// Someone recorded a payment since the last fetch.
		if rerr := b.Refresh(ctx); rerr != nil {
			b.s.client.log.Warn().Err(rerr).Msg("refresh payments after conflict")
		}
		return models.PaymentView{}, err
	}
	if err != nil {
		return models.PaymentView{}, err
	}

	b.mu.Lock()
	for i := range b.records {
		if b.records[i].OrderID == orderID {
			if updated.Vendor == nil {
				updated.Vendor = b.records[i].Vendor
			}
			b.records[i] = updated
		}
	}
	b.mu.Unlock()
	b.s.client.log.Info().Uint("order_id", orderID).Str("amount", amount.StringFixed(2)).Msg("cash payment recorded")
	return updated, nil
}

// WidgetRequest is what the external checkout widget is opened with.
// Amount is in minor units.
type WidgetRequest struct {
	Key      string
	Amount   int64
	Currency string
	OrderID  string
	Notes    map[string]string
}

// Widget is the external payment collector. It returns a signed receipt or
// an error when the payment failed or was cancelled.
type Widget interface {
	Open(ctx context.Context, req WidgetRequest) (gateway.Receipt, error)
}

type WidgetFunc func(ctx context.Context, req WidgetRequest) (gateway.Receipt, error)

func (f WidgetFunc) Open(ctx context.Context, req WidgetRequest) (gateway.Receipt, error) {
	return f(ctx, req)
}

// Checkout runs the vendor's electronic payment.
type Checkout struct {
	s *Session
}

func NewCheckout(s *Session) *Checkout { return &Checkout{s: s} }

type checkoutSession struct {
	ID string `json:"session_id"`
}

type payResponse struct {
	Key       string        `json:"key"`
	SessionID string        `json:"session_id"`
	Order     gateway.Order `json:"order"`
}

// InitiateElectronicPayment opens a checkout session, obtains a gateway
// order, lets w collect the payment and has the backend verify the receipt.
// It returns the order as the backend stored it after verification. Nothing
// local is mutated on any path; callers re-fetch on success.
func (c *Checkout) InitiateElectronicPayment(ctx context.Context, orderID uint, amount decimal.Decimal, w Widget) (models.Order, error) {
	id, err := c.s.Require(models.RoleVendor)
	if err != nil {
		return models.Order{}, err
	}
	if orderID == 0 {
		return models.Order{}, invalid("order", "payment details are missing")
	}
	if !amount.IsPositive() {
		return models.Order{}, invalid("amount", "payment amount must be greater than zero")
	}
	if w == nil {
		return models.Order{}, invalid("widget", "no payment widget")
	}
	log := c.s.client.log.With().Uint("order_id", orderID).Logger()

	sess, err := getData[checkoutSession](ctx, c.s.client, "POST", "/vendor/create-checkout-session", id.Token, map[string]any{
		"order_id": orderID,
		"amount":   amount,
	})
	if err != nil {
		return models.Order{}, err
	}

	pay, err := getData[payResponse](ctx, c.s.client, "POST", "/vendor/pay", id.Token, map[string]any{
		"order_id":   orderID,
		"amount":     amount,
		"session_id": sess.ID,
	})
	if err != nil {
		return models.Order{}, err
	}

	receipt, err := w.Open(ctx, WidgetRequest{
		Key:      pay.Key,
		Amount:   pay.Order.Amount,
		Currency: pay.Order.Currency,
		OrderID:  pay.Order.ID,
		Notes:    pay.Order.Notes,
	})
	if err != nil {
		log.Warn().Err(err).Msg("payment widget failed")
		return models.Order{}, &GatewayError{Err: err}
	}

	order, err := getData[models.Order](ctx, c.s.client, "POST", "/vendor/verify-payment", id.Token, map[string]any{
		"order_id":            orderID,
		"session_id":          sess.ID,
		"razorpay_order_id":   receipt.OrderID,
		"razorpay_payment_id": receipt.PaymentID,
		"razorpay_signature":  receipt.Signature,
	})
	var remote *RemoteError
	if errors.As(err, &remote) {
		log.Warn().Str("reason", remote.Message).Msg("payment verification rejected")
		return models.Order{}, &VerificationError{Message: remote.Message, Err: err}
	}
	if err != nil {
		return models.Order{}, err
	}
	log.Info().Str("payment_id", receipt.PaymentID).Msg("payment verified")
	return order, nil
}
