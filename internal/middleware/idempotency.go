package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/hosted-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/hosted-checkout/internal/repository"
	"github.com/akylbek/payment-system/hosted-checkout/internal/telemetry"
)

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyMiddleware replays a stored checkout response when the caller
// repeats an Idempotency-Key with the same body. While the first request for
// a key is in flight, repeats get 409. Requests without the header, or with no
// repository configured, pass straight through.
func IdempotencyMiddleware(repo interfaces.IdempotencyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || repo == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := requestHash(body)
		ctx := c.Request.Context()

		if replay(c, repo, key, hash) {
			return
		}

		reserved, err := repo.Reserve(ctx, key)
		if err != nil {
			// Redis trouble must not block checkout; fall through to the gateway.
			telemetry.Logger.Warn("Idempotency reservation failed",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
			proceed(c, key, hash)
			return
		}
		if !reserved {
			telemetry.Logger.Info("Checkout for idempotency key already in flight",
				zap.String("idempotency_key", key),
				zap.String("request_id", c.GetString("request_id")),
			)
			telemetry.TickCheckout(telemetry.CheckoutConflict)
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this Idempotency-Key is already in progress"})
			return
		}
		defer func() {
			if err := repo.Release(context.WithoutCancel(ctx), key); err != nil {
				telemetry.Logger.Warn("Failed to release idempotency reservation",
					zap.String("idempotency_key", key),
					zap.Error(err),
				)
			}
		}()

		// The first request may have finished between the lookup and the claim.
		if replay(c, repo, key, hash) {
			return
		}

		proceed(c, key, hash)
	}
}

// replay answers from the stored checkout for key. It reports whether the
// request was handled.
func replay(c *gin.Context, repo interfaces.IdempotencyRepository, key, hash string) bool {
	stored, err := repo.Get(c.Request.Context(), key)
	if errors.Is(err, repository.ErrNotFound) {
		return false
	}
	if err != nil {
		telemetry.Logger.Warn("Idempotency lookup failed",
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return false
	}

	if stored.RequestHash != hash {
		telemetry.Logger.Warn("Idempotency key reused with a different body",
			zap.String("idempotency_key", key),
			zap.String("request_id", c.GetString("request_id")),
		)
		telemetry.TickCheckout(telemetry.CheckoutConflict)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Idempotency-Key was already used with a different request body"})
		return true
	}

	telemetry.Logger.Info("Replaying checkout for idempotency key",
		zap.String("idempotency_key", key),
		zap.String("request_id", c.GetString("request_id")),
	)
	telemetry.TickCheckout(telemetry.CheckoutReplayed)
	c.Data(stored.StatusCode, "application/json", stored.Body)
	c.Abort()
	return true
}

func proceed(c *gin.Context, key, hash string) {
	c.Set("idempotency_key", key)
	c.Set("idempotency_request_hash", hash)
	c.Next()
}

func requestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
