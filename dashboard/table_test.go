package dashboard_test

import (
	"testing"
	"time"

	"coconut-supply/dashboard"
	"coconut-supply/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersOn(days ...time.Time) []models.Order {
	out := make([]models.Order, len(days))
	for i, d := range days {
		out[i] = models.Order{ID: uint(i + 1), CreatedAt: d}
	}
	return out
}

func day(d, h int) time.Time { return time.Date(2026, time.March, d, h, 30, 0, 0, time.UTC) }

func TestOrderTable_InclusiveDateRange(t *testing.T) {
	table := dashboard.NewOrderTable(time.UTC)
	table.SetOrders(ordersOn(day(1, 9), day(2, 0), day(3, 23), day(4, 12)))

	from, to := day(2, 15), day(3, 1)
	table.SetRange(&from, &to)

	var ids []uint
	for _, o := range table.Filtered() {
		ids = append(ids, o.ID)
	}
	// Both boundary days count in full, whatever time of day was picked.
	assert.Equal(t, []uint{2, 3}, ids)

	table.SetRange(&from, nil)
	assert.Len(t, table.Filtered(), 3)
	table.SetRange(nil, &to)
	assert.Len(t, table.Filtered(), 3)

	table.ClearRange()
	assert.Len(t, table.Filtered(), 4)
}

func TestOrderTable_Pagination(t *testing.T) {
	table := dashboard.NewOrderTable(time.UTC)
	var days []time.Time
	for i := 0; i < 25; i++ {
		days = append(days, day(1+i%5, 10))
	}
	table.SetOrders(ordersOn(days...))

	assert.Equal(t, 3, table.TotalPages())
	assert.Equal(t, 1, table.Page())
	assert.False(t, table.HasPrev())
	assert.True(t, table.HasNext())
	assert.Len(t, table.Rows(), dashboard.PageSize)

	table.GoTo(3)
	assert.Len(t, table.Rows(), 5)
	assert.False(t, table.HasNext())
	table.Next()
	assert.Equal(t, 3, table.Page())

	table.GoTo(99)
	assert.Equal(t, 3, table.Page())
	table.GoTo(-1)
	assert.Equal(t, 1, table.Page())

	// Changing the filter always lands on page 1.
	table.GoTo(2)
	from := day(1, 0)
	table.SetRange(&from, &from)
	assert.Equal(t, 1, table.Page())
	assert.Equal(t, 1, table.TotalPages())
	assert.Len(t, table.Rows(), 5)

	table.GoTo(1)
	table.ClearRange()
	table.GoTo(3)
	table.ClearRange()
	assert.Equal(t, 1, table.Page())
}

func TestOrderTable_Empty(t *testing.T) {
	table := dashboard.NewOrderTable(time.UTC)
	assert.Equal(t, 0, table.TotalPages())
	assert.Equal(t, 1, table.Page())
	assert.Empty(t, table.Rows())
	assert.False(t, table.HasNext())
}

func TestOrderTable_SetOrdersKeepsPage(t *testing.T) {
	table := dashboard.NewOrderTable(time.UTC)
	var days []time.Time
	for i := 0; i < 25; i++ {
		days = append(days, day(1, 10))
	}
	table.SetOrders(ordersOn(days...))
	table.GoTo(3)

	table.SetOrders(ordersOn(days[:12]...))
	assert.Equal(t, 2, table.Page(), "page clamps to the last one that still exists")
}

func TestOrderTable_ReturnsCopies(t *testing.T) {
	table := dashboard.NewOrderTable(time.UTC)
	table.SetOrders(ordersOn(day(1, 9), day(2, 9)))

	filtered := table.Filtered()
	filtered[0].ID = 99
	rows := table.Rows()
	rows[1].ID = 98
	_ = append(rows[:1], models.Order{ID: 97})

	assert.Equal(t, uint(1), table.Filtered()[0].ID)
	assert.Equal(t, uint(2), table.Rows()[1].ID)
}

func TestSummaries(t *testing.T) {
	orders := []models.Order{
		{Status: models.StatusPending, PaymentMethod: models.PaymentRazorpay, PaymentStatus: models.PaymentPending, AmountDue: decimal.NewFromInt(60)},
		{Status: models.StatusAssigned, PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentPending, AmountDue: decimal.NewFromInt(15)},
		{Status: models.StatusOutForDelivery, PaymentMethod: models.PaymentRazorpay, PaymentStatus: models.PaymentCompleted, AmountDue: decimal.Zero},
		{Status: models.StatusDelivered, PaymentMethod: models.PaymentCash, PaymentStatus: models.PaymentCompleted, AmountDue: decimal.Zero},
	}

	totals := dashboard.SummarizeVendor(orders)
	assert.True(t, decimal.NewFromInt(75).Equal(totals.BalanceDue))
	assert.Equal(t, 2, totals.PendingPayments)
	assert.Equal(t, 2, totals.ActiveDeliveries)

	payable := dashboard.PayableOnline(orders)
	require.Len(t, payable, 1)
	assert.Equal(t, models.StatusPending, payable[0].Status)

	stats := dashboard.SummarizeDriver(orders[1:])
	assert.Equal(t, dashboard.DriverStats{Total: 3, Completed: 1, InProgress: 2}, stats)

	counts := dashboard.CountByStatus(orders)
	assert.Equal(t, 1, counts[models.StatusDelivered])
	assert.Len(t, dashboard.PendingOrders(orders), 1)
}
