// Package events defines the push notifications emitted on order changes
// and the publishers that deliver them.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"coconut-supply/models"

	"github.com/shopspring/decimal"
)

// Event names understood by the dashboards.
const (
	OrderPlaced      = "orderPlaced"
	DeliveryAssigned = "deliveryAssigned"
	JoinRoom         = "joinRoom"
	Joined           = "joined"
)

// UserRoom is the room of one user.
func UserRoom(id uint) string { return "user:" + strconv.FormatUint(uint64(id), 10) }

// RoleRoom is the room shared by every session of a role.
func RoleRoom(role models.UserRole) string { return "role:" + string(role) }

// Event is one notification addressed to a set of rooms.
type Event struct {
	Name    string
	Rooms   []string
	Payload any
}

// Envelope is the wire form of an event on the push channel.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Encode marshals e into its wire envelope.
func (e Event) Encode(now time.Time) ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Name, Payload: payload, Timestamp: now})
}

// JoinRequest is the payload a client sends to enter its rooms.
type JoinRequest struct {
	UserID uint            `json:"userId"`
	Role   models.UserRole `json:"role"`
}

type OrderPlacedPayload struct {
	OrderID  uint            `json:"orderId"`
	VendorID uint            `json:"vendorId"`
	Coconut  string          `json:"coconut"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

type DeliveryAssignedPayload struct {
	OrderID uint   `json:"orderId"`
	Message string `json:"message"`
}

// NewOrderPlaced addresses an orderPlaced event to the admins and the vendor.
func NewOrderPlaced(o models.Order, coconut string) Event {
	return Event{
		Name:  OrderPlaced,
		Rooms: []string{RoleRoom(models.RoleAdmin), UserRoom(o.VendorID)},
		Payload: OrderPlacedPayload{
			OrderID:  o.ID,
			VendorID: o.VendorID,
			Coconut:  coconut,
			Quantity: o.Quantity,
			Total:    o.TotalPrice,
		},
	}
}

// NewDeliveryAssigned addresses a deliveryAssigned event to one driver.
func NewDeliveryAssigned(orderID, driverID uint) Event {
	return Event{
		Name:  DeliveryAssigned,
		Rooms: []string{UserRoom(driverID)},
		Payload: DeliveryAssignedPayload{
			OrderID: orderID,
			Message: "New delivery assigned: order #" + strconv.FormatUint(uint64(orderID), 10),
		},
	}
}

// Publisher delivers events; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
