package gateway

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"
)

// Razorpay creates orders through the Razorpay API.
type Razorpay struct {
	client   *razorpay.Client
	keyID    string
	secret   string
	currency string
}

func NewRazorpay(keyID, secret, currency string) *Razorpay {
	return &Razorpay{
		client:   razorpay.NewClient(keyID, secret),
		keyID:    keyID,
		secret:   secret,
		currency: currency,
	}
}

func (r *Razorpay) Name() string     { return "razorpay" }
func (r *Razorpay) KeyID() string    { return r.keyID }
func (r *Razorpay) Currency() string { return r.currency }

func (r *Razorpay) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]string) (*Order, error) {
	if !amount.IsPositive() {
		return nil, ErrBadAmount
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	noteData := make(map[string]interface{}, len(notes))
	for k, v := range notes {
		noteData[k] = v
	}
	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   ToMinor(amount),
		"currency": r.currency,
		"receipt":  receipt,
		"notes":    noteData,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay create order: response has no id")
	}
	order := &Order{
		ID:       id,
		Amount:   ToMinor(amount),
		Currency: r.currency,
		Receipt:  receipt,
		Notes:    notes,
	}
	// The API echoes the amount as a JSON number.
	if a, ok := body["amount"].(float64); ok {
		order.Amount = int64(a)
	}
	if c, ok := body["currency"].(string); ok && c != "" {
		order.Currency = c
	}
	return order, nil
}

func (r *Razorpay) Verify(rc Receipt) error {
	ok := utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   rc.OrderID,
		"razorpay_payment_id": rc.PaymentID,
	}, rc.Signature, r.secret)
	if !ok {
		return ErrBadSignature
	}
	return nil
}
