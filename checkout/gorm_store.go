package checkout

import (
	"context"
	"errors"
	"time"

	"coconut-supply/models"

	"gorm.io/gorm"
)

// GormStore keeps sessions in the main database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

type txKey struct{}

// WithTx makes GormStore calls made with the returned context run inside tx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func (g *GormStore) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return g.db.WithContext(ctx)
}

func (g *GormStore) Create(ctx context.Context, s *models.CheckoutSession) error {
	return g.conn(ctx).Create(s).Error
}

func (g *GormStore) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	var s models.CheckoutSession
	err := g.conn(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (g *GormStore) AttachGatewayOrder(ctx context.Context, id, gatewayOrderID string) error {
	res := g.conn(ctx).Model(&models.CheckoutSession{}).
		Where("id = ?", id).
		Update("gateway_order_id", gatewayOrderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (g *GormStore) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	res := g.conn(ctx).Model(&models.CheckoutSession{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionConsumed
	}
	return nil
}

func (g *GormStore) Release(ctx context.Context, id string) error {
	return g.conn(ctx).Model(&models.CheckoutSession{}).
		Where("id = ?", id).
		Update("consumed_at", nil).Error
}
