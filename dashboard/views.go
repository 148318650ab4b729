package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"coconut-supply/events"
	"coconut-supply/models"

	"github.com/shopspring/decimal"
)

// live runs a view's notifier in the background until the view closes.
type live struct {
	notifier *Notifier
	cancel   context.CancelFunc
	done     chan struct{}

	mu  sync.Mutex
	err error
}

func startLive(c *Client, s *Session, wire func(n *Notifier)) (*live, error) {
	n, err := c.NewNotifier(s)
	if err != nil {
		return nil, err
	}
	wire(n)
	ctx, cancel := context.WithCancel(context.Background())
	l := &live{notifier: n, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		if err := n.Run(ctx); err != nil {
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
		}
	}()
	return l, nil
}

// Joined is closed once the push channel is in the user's rooms.
func (l *live) Joined() <-chan struct{} { return l.notifier.Joined() }

// LiveErr reports why live updates stopped, if they gave up. The view keeps
// its last fetched data either way.
func (l *live) LiveErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *live) close() {
	l.cancel()
	l.notifier.Close()
	<-l.done
}

// AdminView is the admin overview: every order, the filtered order table
// and the payment reconciliation list.
type AdminView struct {
	*live

	Orders *ListView[models.Order]
	Table  *OrderTable
	Book   *PaymentBook

	orders   *Orders
	payments *ListView[models.PaymentView]
}

// MountAdmin loads the admin lists and subscribes to new orders. The view
// is returned even when the first fetch fails; the error is the fetch's.
func MountAdmin(ctx context.Context, c *Client, s *Session) (*AdminView, error) {
	if _, err := s.Require(models.RoleAdmin); err != nil {
		return nil, err
	}
	v := &AdminView{
		Table:  NewOrderTable(nil),
		Book:   NewPaymentBook(s),
		orders: NewOrders(s),
	}
	v.Orders = NewListView(v.orders.ListAll)
	v.Orders.OnChange(v.Table.SetOrders)
	v.payments = NewListView(v.Book.Fetch)
	v.payments.OnChange(v.Book.Replace)

	l, err := startLive(c, s, func(n *Notifier) {
		n.On(events.OrderPlaced, func(json.RawMessage) {
			v.Orders.Invalidate()
			v.payments.Invalidate()
		})
	})
	if err != nil {
		return nil, err
	}
	v.live = l
	return v, errors.Join(v.Orders.Refresh(ctx), v.payments.Refresh(ctx))
}

// RefreshPayments re-fetches the reconciliation list.
func (v *AdminView) RefreshPayments(ctx context.Context) error {
	return v.payments.Refresh(ctx)
}

func (v *AdminView) AssignDriver(ctx context.Context, orderID, driverID uint) (models.Order, error) {
	o, err := v.orders.AssignDriver(ctx, orderID, driverID)
	if err != nil {
		return models.Order{}, err
	}
	v.Orders.Invalidate()
	return o, nil
}

func (v *AdminView) RecordCashPayment(ctx context.Context, orderID uint, amount decimal.Decimal) (models.PaymentView, error) {
	p, err := v.Book.RecordCashPayment(ctx, orderID, amount)
	if err != nil {
		return models.PaymentView{}, err
	}
	v.Orders.Invalidate()
	return p, nil
}

// Pending lists orders still waiting for a driver.
func (v *AdminView) Pending() []models.Order { return PendingOrders(v.Orders.Items()) }

func (v *AdminView) Close() {
	v.live.close()
	v.Orders.Close()
	v.payments.Close()
}

// VendorView is the vendor dashboard: the available catalogue and the
// vendor's own orders.
type VendorView struct {
	*live

	Coconuts *ListView[models.Coconut]
	Orders   *ListView[models.Order]

	orders   *Orders
	checkout *Checkout
}

func MountVendor(ctx context.Context, c *Client, s *Session) (*VendorView, error) {
	if _, err := s.Require(models.RoleVendor); err != nil {
		return nil, err
	}
	v := &VendorView{
		Coconuts: NewListView(NewCatalog(s).ListAvailable),
		orders:   NewOrders(s),
		checkout: NewCheckout(s),
	}
	v.Orders = NewListView(v.orders.ListOwn)

	l, err := startLive(c, s, func(n *Notifier) {
		n.On(events.OrderPlaced, func(json.RawMessage) { v.Orders.Invalidate() })
	})
	if err != nil {
		return nil, err
	}
	v.live = l
	return v, errors.Join(v.Coconuts.Refresh(ctx), v.Orders.Refresh(ctx))
}

// PlaceOrder submits an order and reloads the order list once it is
// accepted.
func (v *VendorView) PlaceOrder(ctx context.Context, coconutID uint, quantity int, method models.PaymentMethod) (models.Order, error) {
	o, err := v.orders.PlaceOrder(ctx, coconutID, quantity, method)
	if err != nil {
		return models.Order{}, err
	}
	return o, v.Orders.Refresh(ctx)
}

// Pay runs an electronic payment for one of the vendor's orders. The order
// list is only re-fetched after the backend verified the payment.
func (v *VendorView) Pay(ctx context.Context, orderID uint, amount decimal.Decimal, w Widget) (models.Order, error) {
	o, err := v.checkout.InitiateElectronicPayment(ctx, orderID, amount, w)
	if err != nil {
		return models.Order{}, err
	}
	return o, v.Orders.Refresh(ctx)
}

func (v *VendorView) Totals() VendorTotals { return SummarizeVendor(v.Orders.Items()) }

// Payable lists the orders that can still be paid online.
func (v *VendorView) Payable() []models.Order { return PayableOnline(v.Orders.Items()) }

func (v *VendorView) Close() {
	v.live.close()
	v.Coconuts.Close()
	v.Orders.Close()
}

// DriverView is the driver dashboard: active deliveries, completed history
// and the most recently assigned order.
type DriverView struct {
	*live

	Active  *ListView[models.Order]
	History *ListView[models.Order]

	orders *Orders

	mu          sync.Mutex
	highlighted uint
}

func MountDriver(ctx context.Context, c *Client, s *Session) (*DriverView, error) {
	if _, err := s.Require(models.RoleDriver); err != nil {
		return nil, err
	}
	v := &DriverView{orders: NewOrders(s)}
	v.Active = NewListView(func(ctx context.Context) ([]models.Order, error) {
		return v.orders.ListAssigned(ctx, false)
	})
	v.History = NewListView(func(ctx context.Context) ([]models.Order, error) {
		return v.orders.ListAssigned(ctx, true)
	})

	l, err := startLive(c, s, func(n *Notifier) {
		n.On(events.DeliveryAssigned, func(raw json.RawMessage) {
			var p events.DeliveryAssignedPayload
			if err := json.Unmarshal(raw, &p); err == nil && p.OrderID != 0 {
				v.mu.Lock()
				v.highlighted = p.OrderID
				v.mu.Unlock()
			}
			v.Active.Invalidate()
		})
	})
	if err != nil {
		return nil, err
	}
	v.live = l
	return v, errors.Join(v.Active.Refresh(ctx), v.History.Refresh(ctx))
}

// Highlighted is the id of the last order pushed to this driver, or 0.
func (v *DriverView) Highlighted() uint {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.highlighted
}

// Advance moves an active delivery to next and reloads both lists.
func (v *DriverView) Advance(ctx context.Context, order models.Order, next models.OrderStatus) (models.Order, error) {
	o, err := v.orders.AdvanceDeliveryStatus(ctx, order, next)
	if err != nil {
		return models.Order{}, err
	}
	return o, errors.Join(v.Active.Refresh(ctx), v.History.Refresh(ctx))
}

func (v *DriverView) Stats() DriverStats {
	return SummarizeDriver(append(v.Active.Items(), v.History.Items()...))
}

func (v *DriverView) Close() {
	v.live.close()
	v.Active.Close()
	v.History.Close()
}
