package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/hosted-checkout/internal/interfaces"
	"github.com/akylbek/payment-system/hosted-checkout/internal/models"
	"github.com/akylbek/payment-system/hosted-checkout/internal/payment"
	"github.com/akylbek/payment-system/hosted-checkout/internal/telemetry"
)

const DefaultAppScheme = "bbuser"

// DefaultPublishTimeout bounds how long a status request waits on the event
// publisher.
const DefaultPublishTimeout = 500 * time.Millisecond

type CheckoutHandler struct {
	gateway        interfaces.CheckoutGateway
	idempotency    interfaces.IdempotencyRepository
	publisher      interfaces.OutcomePublisher
	appScheme      string
	publishTimeout time.Duration
}

// NewCheckoutHandler wires the handler. idempotency and publisher may be nil.
func NewCheckoutHandler(gateway interfaces.CheckoutGateway, idempotency interfaces.IdempotencyRepository, publisher interfaces.OutcomePublisher, appScheme string) *CheckoutHandler {
	if appScheme == "" {
		appScheme = DefaultAppScheme
	}
	return &CheckoutHandler{
		gateway:        gateway,
		idempotency:    idempotency,
		publisher:      publisher,
		appScheme:      appScheme,
		publishTimeout: DefaultPublishTimeout,
	}
}

// PrepareCheckout handles POST /api/prepare-checkout.
func (h *CheckoutHandler) PrepareCheckout(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)

	var req models.PrepareCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		telemetry.Logger.Warn("Invalid checkout request", zap.Error(err))
		telemetry.TickCheckout(telemetry.CheckoutRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ShopperResultURL == "" {
		telemetry.TickCheckout(telemetry.CheckoutRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": "shopperResultUrl is required"})
		return
	}
	if err := req.ValidateAmount(); err != nil {
		telemetry.Logger.Warn("Rejected checkout amount", zap.String("amount", req.Amount.String()))
		telemetry.TickCheckout(telemetry.CheckoutRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	telemetry.Logger.Info("Creating checkout",
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("request_id", c.GetString("request_id")),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	resp, err := h.gateway.CreateCheckout(ctx, req.ToCheckoutRequest())
	if err != nil {
		telemetry.Logger.Error("Failed to create checkout", zap.Error(err))
		telemetry.TickCheckout(telemetry.CheckoutError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if key := c.GetString("idempotency_key"); key != "" && h.idempotency != nil && isSuccess(resp.StatusCode) {
		stored := &models.StoredCheckout{
			RequestHash: c.GetString("idempotency_request_hash"),
			StatusCode:  resp.StatusCode,
			Body:        resp.Body,
		}
		if err := h.idempotency.Save(ctx, key, stored); err != nil {
			telemetry.Logger.Error("Failed to store checkout for idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
		}
	}

	telemetry.TickCheckout(telemetry.CheckoutCreated)
	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// PaymentStatus handles GET /api/payment-status?id=<checkout id>.
func (h *CheckoutHandler) PaymentStatus(c *gin.Context) {
	outcome, err := h.resolveOutcome(c.Request.Context(), c.Query("id"))
	if errors.Is(err, payment.ErrMissingCheckoutID) {
		telemetry.Logger.Warn("Payment status requested without checkout id")
		c.JSON(http.StatusBadRequest, models.PaymentStatusResponse{
			PaymentStatus: payment.StatusFailed,
			Description:   err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.NewPaymentStatusResponse(outcome))
}

// PaymentResult handles GET /api/payment-result?id=<checkout id>. It resolves
// the outcome and sends the browser back into the app. Errors count as Failed.
func (h *CheckoutHandler) PaymentResult(c *gin.Context) {
	status := payment.StatusFailed
	outcome, err := h.resolveOutcome(c.Request.Context(), c.Query("id"))
	if err == nil {
		status = outcome.Status
	}

	location := payment.AppRedirectURL(h.appScheme, status)
	telemetry.Logger.Info("Redirecting to app", zap.String("location", location))
	c.Redirect(http.StatusFound, location)
}

func (h *CheckoutHandler) resolveOutcome(ctx context.Context, rawID string) (payment.Outcome, error) {
	telemetry.Logger.Info("Verifying payment status", zap.String("raw_checkout_id", rawID))

	checkoutID, err := payment.NormalizeCheckoutID(rawID)
	if err != nil {
		return payment.Outcome{}, err
	}

	result, err := h.gateway.PaymentStatus(ctx, checkoutID)
	if err != nil {
		telemetry.Logger.Error("Failed to fetch payment status",
			zap.String("checkout_id", checkoutID),
			zap.Error(err),
		)
		return payment.Outcome{}, err
	}

	outcome := payment.NewOutcome(result.Code, result.Description)
	telemetry.TickPaymentOutcome(string(outcome.Status))
	telemetry.Logger.Info("Payment status classified",
		zap.String("checkout_id", checkoutID),
		zap.String("result_code", result.Code),
		zap.String("status", string(outcome.Status)),
	)

	h.publishOutcome(ctx, checkoutID, result.Code, outcome)
	return outcome, nil
}

func (h *CheckoutHandler) publishOutcome(ctx context.Context, checkoutID, code string, outcome payment.Outcome) {
	if h.publisher == nil {
		return
	}

	evt := models.OutcomeEvent{
		EventID:     uuid.New().String(),
		CheckoutID:  checkoutID,
		Status:      outcome.Status,
		ResultCode:  code,
		Description: outcome.Description,
		OccurredAt:  time.Now().UTC(),
	}
	ctx, cancel := context.WithTimeout(ctx, h.publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, evt); err != nil {
		telemetry.Logger.Error("Failed to publish payment outcome",
			zap.String("checkout_id", checkoutID),
			zap.Error(err),
		)
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
