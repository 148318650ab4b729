// Package checkout issues the one-time sessions that bind an order and an
// amount for the duration of a gateway handoff.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coconut-supply/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrSessionExpired  = errors.New("checkout session expired")
	ErrSessionConsumed = errors.New("checkout session already used")
	ErrSessionMismatch = errors.New("checkout session does not match order")
)

// Store persists checkout sessions.
type Store interface {
	Create(ctx context.Context, s *models.CheckoutSession) error
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
	AttachGatewayOrder(ctx context.Context, id, gatewayOrderID string) error
	// MarkConsumed flips the session to used exactly once; a second call
	// returns ErrSessionConsumed.
	MarkConsumed(ctx context.Context, id string, at time.Time) error
	// Release clears the used mark again.
	Release(ctx context.Context, id string) error
}

// Service applies the session rules on top of a Store.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl, now: time.Now}
}

// Open creates a fresh session for orderID and amount.
func (s *Service) Open(ctx context.Context, orderID, vendorID uint, amount decimal.Decimal) (*models.CheckoutSession, error) {
	now := s.now()
	sess := &models.CheckoutSession{
		ID:        "cs_" + uuid.NewString(),
		OrderID:   orderID,
		VendorID:  vendorID,
		Amount:    amount,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return sess, nil
}

// Lookup returns a live session bound to orderID and vendorID.
func (s *Service) Lookup(ctx context.Context, id string, orderID, vendorID uint) (*models.CheckoutSession, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.ConsumedAt != nil {
		return nil, ErrSessionConsumed
	}
	if s.now().After(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	if sess.OrderID != orderID || sess.VendorID != vendorID {
		return nil, ErrSessionMismatch
	}
	return sess, nil
}

// Bind records the gateway order created for the session.
func (s *Service) Bind(ctx context.Context, sess *models.CheckoutSession, gatewayOrderID string) error {
	if err := s.store.AttachGatewayOrder(ctx, sess.ID, gatewayOrderID); err != nil {
		return fmt.Errorf("bind gateway order: %w", err)
	}
	sess.GatewayOrderID = gatewayOrderID
	return nil
}

// Redeemable returns the live session a receipt for gatewayOrderID may
// settle. The session is left untouched.
func (s *Service) Redeemable(ctx context.Context, id string, orderID, vendorID uint, gatewayOrderID string) (*models.CheckoutSession, error) {
	sess, err := s.Lookup(ctx, id, orderID, vendorID)
	if err != nil {
		return nil, err
	}
	if sess.GatewayOrderID == "" || sess.GatewayOrderID != gatewayOrderID {
		return nil, ErrSessionMismatch
	}
	return sess, nil
}

// Consume checks the session like Redeemable and marks it used. Settle the
// payment before consuming; with a GormStore pass WithTx so both commit
// together.
func (s *Service) Consume(ctx context.Context, id string, orderID, vendorID uint, gatewayOrderID string) (*models.CheckoutSession, error) {
	sess, err := s.Redeemable(ctx, id, orderID, vendorID, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.MarkConsumed(ctx, id, now); err != nil {
		return nil, err
	}
	sess.ConsumedAt = &now
	return sess, nil
}

// Release makes a consumed session usable again after the settlement it
// was consumed for failed to commit.
func (s *Service) Release(ctx context.Context, id string) error {
	if err := s.store.Release(ctx, id); err != nil {
		return fmt.Errorf("release checkout session: %w", err)
	}
	return nil
}
