package gateway

import (
	"context"
	"testing"

	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"60", 6000},
		{"12.5", 1250},
		{"0.01", 1},
		{"19.999", 2000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMinor(decimal.RequireFromString(tt.in)), tt.in)
	}
	assert.True(t, FromMinor(1250).Equal(decimal.RequireFromString("12.5")))
}

func TestSign_MatchesRazorpayScheme(t *testing.T) {
	sig := Sign("order_1", "pay_1", "s3cret")
	ok := utils.VerifyPaymentSignature(map[string]interface{}{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
	}, sig, "s3cret")
	assert.True(t, ok)
}

func TestRazorpay_Verify(t *testing.T) {
	rp := NewRazorpay("rzp_test_key", "s3cret", "INR")
	good := Receipt{OrderID: "order_1", PaymentID: "pay_1", Signature: Sign("order_1", "pay_1", "s3cret")}
	assert.NoError(t, rp.Verify(good))

	bad := good
	bad.PaymentID = "pay_2"
	assert.ErrorIs(t, rp.Verify(bad), ErrBadSignature)
}

func TestSandbox_RoundTrip(t *testing.T) {
	sb := NewSandbox("", "", "INR")
	order, err := sb.CreateOrder(context.Background(), decimal.NewFromInt(60), "rcpt_1", map[string]string{"order_id": "1"})
	require.NoError(t, err)
	assert.EqualValues(t, 6000, order.Amount)
	assert.Equal(t, "INR", order.Currency)

	receipt := sb.Pay(order.ID)
	assert.NoError(t, sb.Verify(receipt))

	forged := receipt
	forged.Signature = "deadbeef"
	assert.ErrorIs(t, sb.Verify(forged), ErrBadSignature)

	unknown := sb.Pay("order_unknown")
	assert.ErrorIs(t, sb.Verify(unknown), ErrBadSignature)
}

func TestSandbox_RejectsNonPositive(t *testing.T) {
	sb := NewSandbox("", "", "INR")
	_, err := sb.CreateOrder(context.Background(), decimal.Zero, "r", nil)
	assert.ErrorIs(t, err, ErrBadAmount)
}
