package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"coconut-supply/models"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps sessions in Redis with the session ttl as key expiry.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func sessionKey(id string) string  { return "checkout:" + id }
func consumedKey(id string) string { return "checkout:" + id + ":consumed" }

func (r *RedisStore) Create(ctx context.Context, s *models.CheckoutSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}
	ok, err := r.rdb.SetNX(ctx, sessionKey(s.ID), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("checkout session id collision")
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s models.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	at, err := r.rdb.Get(ctx, consumedKey(id)).Time()
	switch {
	case err == nil:
		s.ConsumedAt = &at
	case !errors.Is(err, redis.Nil):
		return nil, err
	}
	return &s, nil
}

func (r *RedisStore) AttachGatewayOrder(ctx context.Context, id, gatewayOrderID string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	s.GatewayOrderID = gatewayOrderID
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, sessionKey(id), raw, redis.KeepTTL).Err()
}

func (r *RedisStore) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	ttl, err := r.rdb.TTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	ok, err := r.rdb.SetNX(ctx, consumedKey(id), at, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionConsumed
	}
	return nil
}

func (r *RedisStore) Release(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, consumedKey(id)).Err()
}
