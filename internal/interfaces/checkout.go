package interfaces

import (
	"context"

	"github.com/akylbek/payment-system/hosted-checkout/internal/models"
)

// CheckoutGateway defines the contract for the hosted-payment gateway
type CheckoutGateway interface {
	CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.GatewayResponse, error)
	PaymentStatus(ctx context.Context, checkoutID string) (*models.PaymentResult, error)
}

// IdempotencyRepository stores checkout responses by Idempotency-Key and
// guards a key while its first request is still in flight
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*models.StoredCheckout, error)
	Save(ctx context.Context, key string, stored *models.StoredCheckout) error
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type OutcomePublisher interface {
	Publish(ctx context.Context, evt models.OutcomeEvent) error
}
