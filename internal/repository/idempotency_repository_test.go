package repository

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/hosted-checkout/internal/models"
)

func setupTestRedis(t *testing.T) (*IdempotencyRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewIdempotencyRepository(client, time.Hour), mr
}

func TestSaveAndGet(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	resp := &models.StoredCheckout{
		RequestHash: "5d41402abc4b2a76",
		StatusCode:  http.StatusOK,
		Body:        []byte(`{"id":"8acda4c8","result":{"code":"000.200.100"}}`),
	}
	require.NoError(t, repo.Save(ctx, "key-1", resp))

	assert.True(t, mr.Exists("idempotency:checkout:key-1"))
	assert.Equal(t, time.Hour, mr.TTL("idempotency:checkout:key-1"))

	got, err := repo.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76", got.RequestHash)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.JSONEq(t, string(resp.Body), string(got.Body))
}

func TestGet_Miss(t *testing.T) {
	repo, _ := setupTestRedis(t)

	_, err := repo.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_Expired(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "key-1", &models.StoredCheckout{StatusCode: 200, Body: []byte(`{}`)}))
	mr.FastForward(2 * time.Hour)

	_, err := repo.Get(ctx, "key-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_CorruptRecord(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("idempotency:checkout:key-1", "not json"))

	_, err := repo.Get(context.Background(), "key-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGet_RedisDown(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "key-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewIdempotencyRepository_DefaultTTL(t *testing.T) {
	repo := NewIdempotencyRepository(nil, 0)
	assert.Equal(t, DefaultIdempotencyTTL, repo.ttl)
}

func TestReserve_SecondClaimFails(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := repo.Reserve(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DefaultReservationTTL, mr.TTL("idempotency:checkout:key-1:lock"))

	ok, err = repo.Reserve(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Reserve(ctx, "key-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRelease_AllowsNewClaim(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, "key-1")
	require.NoError(t, err)
	require.NoError(t, repo.Release(ctx, "key-1"))
	assert.False(t, mr.Exists("idempotency:checkout:key-1:lock"))

	ok, err := repo.Reserve(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReserve_Expires(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.Reserve(ctx, "key-1")
	require.NoError(t, err)
	mr.FastForward(DefaultReservationTTL + time.Second)

	ok, err := repo.Reserve(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReserve_RedisDown(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	ok, err := repo.Reserve(context.Background(), "key-1")
	require.Error(t, err)
	assert.False(t, ok)
}
