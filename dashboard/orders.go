package dashboard

import (
	"context"
	"strconv"

	"coconut-supply/models"
	"coconut-supply/statemachine"

	"github.com/shopspring/decimal"
)

// Orders places, assigns, advances and lists orders for the session's role.
type Orders struct {
	s *Session
}

func NewOrders(s *Session) *Orders { return &Orders{s: s} }

func (o *Orders) PlaceOrder(ctx context.Context, coconutID uint, quantity int, method models.PaymentMethod) (models.Order, error) {
	id, err := o.s.Require(models.RoleVendor)
	if err != nil {
		return models.Order{}, err
	}
	if coconutID == 0 {
		return models.Order{}, invalid("coconut", "please select a coconut")
	}
	if quantity <= 0 {
		return models.Order{}, invalid("quantity", "quantity must be at least 1")
	}
	if !method.Valid() {
		return models.Order{}, invalid("payment_method", "payment method must be cash or razorpay")
	}
	return getData[models.Order](ctx, o.s.client, "POST", "/vendor/order", id.Token, map[string]any{
		"coconut_id":     coconutID,
		"quantity":       quantity,
		"payment_method": method,
	})
}

// AssignDriver hands a pending order to a driver. The backend answers 409
// when the order has already left pending.
func (o *Orders) AssignDriver(ctx context.Context, orderID, driverID uint) (models.Order, error) {
	id, err := o.s.Require(models.RoleAdmin)
	if err != nil {
		return models.Order{}, err
	}
	if orderID == 0 {
		return models.Order{}, invalid("order", "order is required")
	}
	if driverID == 0 {
		return models.Order{}, invalid("driver", "please select a driver")
	}
	return getData[models.Order](ctx, o.s.client, "POST", "/admin/assign-delivery", id.Token, map[string]uint{
		"order_id":  orderID,
		"driver_id": driverID,
	})
}

// NextAction is the single forward step a driver may take on order, if any.
func NextAction(order models.Order) (models.OrderStatus, bool) {
	return statemachine.NextFor(order.Status, statemachine.ActorDriver)
}

// AdvanceDeliveryStatus moves order to next. Illegal steps fail locally
// without a request.
func (o *Orders) AdvanceDeliveryStatus(ctx context.Context, order models.Order, next models.OrderStatus) (models.Order, error) {
	id, err := o.s.Require(models.RoleDriver)
	if err != nil {
		return models.Order{}, err
	}
	if err := statemachine.CanTransition(order.Status, next, statemachine.ActorDriver); err != nil {
		return models.Order{}, invalid("status", err.Error())
	}
	return getData[models.Order](ctx, o.s.client, "PUT",
		"/driver/update-status/"+strconv.FormatUint(uint64(order.ID), 10), id.Token,
		map[string]models.OrderStatus{"status": next})
}

// ListAll is the admin view of every order.
func (o *Orders) ListAll(ctx context.Context) ([]models.Order, error) {
	id, err := o.s.Require(models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	var orders []models.Order
	err = o.s.client.do(ctx, "GET", "/admin/orders", id.Token, nil, &orders)
	return orders, err
}

// ListOwn is the vendor's own orders.
func (o *Orders) ListOwn(ctx context.Context) ([]models.Order, error) {
	id, err := o.s.Require(models.RoleVendor)
	if err != nil {
		return nil, err
	}
	return getData[[]models.Order](ctx, o.s.client, "GET",
		"/vendor/orders/"+strconv.FormatUint(uint64(id.ID), 10), id.Token, nil)
}

// ListAssigned is the driver's deliveries: active ones, or delivered ones
// when history is set.
func (o *Orders) ListAssigned(ctx context.Context, history bool) ([]models.Order, error) {
	id, err := o.s.Require(models.RoleDriver)
	if err != nil {
		return nil, err
	}
	return getData[[]models.Order](ctx, o.s.client, "GET",
		"/driver/assigned-orders?history="+strconv.FormatBool(history), id.Token, nil)
}

// CountByStatus tallies orders per delivery status.
func CountByStatus(orders []models.Order) map[models.OrderStatus]int {
	counts := make(map[models.OrderStatus]int, 4)
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// PendingOrders are the ones an admin can still assign.
func PendingOrders(orders []models.Order) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if o.Status == models.StatusPending {
			out = append(out, o)
		}
	}
	return out
}

type VendorTotals struct {
	BalanceDue       decimal.Decimal
	PendingPayments  int
	ActiveDeliveries int
}

func SummarizeVendor(orders []models.Order) VendorTotals {
	t := VendorTotals{BalanceDue: decimal.Zero}
	for _, o := range orders {
		t.BalanceDue = t.BalanceDue.Add(o.AmountDue)
		if o.PaymentStatus != models.PaymentCompleted {
			t.PendingPayments++
		}
		if o.Status == models.StatusAssigned || o.Status == models.StatusOutForDelivery {
			t.ActiveDeliveries++
		}
	}
	return t
}

// PayableOnline lists razorpay orders that still owe money.
func PayableOnline(orders []models.Order) []models.Order {
	var out []models.Order
	for _, o := range orders {
		if o.PaymentMethod == models.PaymentRazorpay && o.AmountDue.IsPositive() {
			out = append(out, o)
		}
	}
	return out
}

type DriverStats struct {
	Total      int
	Completed  int
	InProgress int
}

// SummarizeDriver computes the stats for whichever tab was fetched.
func SummarizeDriver(orders []models.Order) DriverStats {
	s := DriverStats{Total: len(orders)}
	for _, o := range orders {
		if o.Status == models.StatusDelivered {
			s.Completed++
		}
	}
	s.InProgress = s.Total - s.Completed
	return s
}
