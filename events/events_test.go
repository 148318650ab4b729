package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coconut-supply/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestNewOrderPlaced_Rooms(t *testing.T) {
	o := models.Order{ID: 7, VendorID: 3, Quantity: 3, TotalPrice: decimal.NewFromInt(60)}
	e := NewOrderPlaced(o, "Tender (L)")
	assert.Equal(t, OrderPlaced, e.Name)
	assert.ElementsMatch(t, []string{"role:admin", "user:3"}, e.Rooms)

	raw, err := e.Encode(time.Unix(0, 0).UTC())
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, OrderPlaced, env.Type)

	var p OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, uint(7), p.OrderID)
	assert.True(t, p.Total.Equal(decimal.NewFromInt(60)))
}

func TestNewDeliveryAssigned_Rooms(t *testing.T) {
	e := NewDeliveryAssigned(9, 4)
	assert.Equal(t, []string{"user:4"}, e.Rooms)
	assert.Equal(t, uint(9), e.Payload.(DeliveryAssignedPayload).OrderID)
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("broker down")}
	c := &recorder{}
	err := Multi{a, b, c}.Publish(context.Background(), NewDeliveryAssigned(1, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, a.got, 1)
	assert.Len(t, c.got, 1)
}
