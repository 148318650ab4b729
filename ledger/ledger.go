// Package ledger holds the paid/due arithmetic shared by the backend and the
// dashboard client.
package ledger

import (
	"errors"
	"fmt"

	"coconut-supply/models"

	"github.com/shopspring/decimal"
)

// Epsilon is the rounding tolerance under which an order counts as settled.
var Epsilon = decimal.RequireFromString("0.01")

var (
	ErrNonPositive  = errors.New("payment amount must be greater than zero")
	ErrOverpayment  = errors.New("payment amount exceeds amount due")
	ErrBrokenSplit  = errors.New("amount paid plus amount due does not equal total price")
	ErrNegativeDue  = errors.New("amount due cannot be negative")
	ErrNonPositiveQ = errors.New("quantity must be at least 1")
)

// Split is the paid/due state of one order.
type Split struct {
	Paid   decimal.Decimal
	Due    decimal.Decimal
	Status models.PaymentStatus
}

// Total computes quantity x rate for a new order, rounded to the currency unit.
func Total(quantity int, rate decimal.Decimal) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Zero, ErrNonPositiveQ
	}
	return rate.Mul(decimal.NewFromInt(int64(quantity))).Round(2), nil
}

// Opening returns the split of a freshly placed order.
func Opening(total decimal.Decimal) Split {
	return Split{Paid: decimal.Zero, Due: total, Status: StatusFor(total)}
}

// StatusFor derives the payment status from the outstanding amount.
func StatusFor(due decimal.Decimal) models.PaymentStatus {
	if due.LessThanOrEqual(Epsilon) {
		return models.PaymentCompleted
	}
	return models.PaymentPending
}

// Apply settles amount against the current split.
// 0 < amount <= due must hold.
func Apply(paid, due, amount decimal.Decimal) (Split, error) {
	if !amount.IsPositive() {
		return Split{}, ErrNonPositive
	}
	if amount.GreaterThan(due) {
		return Split{}, fmt.Errorf("%w (%s)", ErrOverpayment, due.StringFixed(2))
	}
	newDue := due.Sub(amount)
	return Split{
		Paid:   paid.Add(amount),
		Due:    newDue,
		Status: StatusFor(newDue),
	}, nil
}

// CheckInvariant verifies paid + due == total and due >= 0.
func CheckInvariant(total, paid, due decimal.Decimal) error {
	if due.IsNegative() {
		return ErrNegativeDue
	}
	if !paid.Add(due).Equal(total) {
		return fmt.Errorf("%w: %s + %s != %s", ErrBrokenSplit,
			paid.StringFixed(2), due.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

// CheckOrder runs CheckInvariant over an order's fields.
func CheckOrder(o models.Order) error {
	return CheckInvariant(o.TotalPrice, o.AmountPaid, o.AmountDue)
}
