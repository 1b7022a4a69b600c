package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akylbek/payment-system/hosted-checkout/internal/models"
)

var ErrNotFound = errors.New("idempotency key not found")

const (
	DefaultIdempotencyTTL = 24 * time.Hour
	// DefaultReservationTTL outlives a gateway call so an abandoned
	// reservation cannot block a key for long.
	DefaultReservationTTL = 30 * time.Second
)

type IdempotencyRepository struct {
	client         *redis.Client
	ttl            time.Duration
	reservationTTL time.Duration
}

type checkoutRecord struct {
	RequestHash string          `json:"request_hash"`
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body"`
}

func NewIdempotencyRepository(client *redis.Client, ttl time.Duration) *IdempotencyRepository {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyRepository{client: client, ttl: ttl, reservationTTL: DefaultReservationTTL}
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string) (*models.StoredCheckout, error) {
	data, err := r.client.Get(ctx, idempotencyKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var rec checkoutRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal checkout record failed: %w", err)
	}

	return &models.StoredCheckout{
		RequestHash: rec.RequestHash,
		StatusCode:  rec.StatusCode,
		Body:        rec.Body,
	}, nil
}

// Save stores a checkout reply under key. Body must be valid JSON.
func (r *IdempotencyRepository) Save(ctx context.Context, key string, stored *models.StoredCheckout) error {
	data, err := json.Marshal(checkoutRecord{
		RequestHash: stored.RequestHash,
		StatusCode:  stored.StatusCode,
		Body:        stored.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal checkout record failed: %w", err)
	}

	if err := r.client.Set(ctx, idempotencyKey(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Reserve claims key for one in-flight request. It reports false when another
// request already holds the claim.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, reservationKey(key), "1", r.reservationTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, reservationKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:checkout:%s", key)
}

func reservationKey(key string) string {
	return fmt.Sprintf("idempotency:checkout:%s:lock", key)
}
