package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/hosted-checkout/internal/models"
	"github.com/akylbek/payment-system/hosted-checkout/internal/telemetry"
)

var ErrUpstream = errors.New("payment gateway request failed")

const DefaultBaseURL = "https://eu-test.oppwa.com"

// Merchant parameters sent with every checkout.
const (
	currency       = "SAR"
	paymentType    = "DB"
	billingCountry = "SA"
	billingCity    = "Riyadh"
	billingStreet  = "Riyadh"
)

const (
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
)

type Config struct {
	BaseURL     string
	EntityID    string
	BearerToken string

	// BreakerThreshold is the number of consecutive transport failures that
	// opens the breaker. BreakerCooldown is how long it stays open.
	BreakerThreshold uint32
	BreakerCooldown  time.Duration

	HTTPClient *http.Client
}

// Client talks to the HyperPay (OPPWA) checkout API.
type Client struct {
	baseURL     string
	entityID    string
	bearerToken string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[*reply]
}

type reply struct {
	statusCode int
	body       []byte
}

type statusPayload struct {
	Result struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"result"`
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = defaultBreakerThreshold
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	threshold := cfg.BreakerThreshold
	breaker := gobreaker.NewCircuitBreaker[*reply](gobreaker.Settings{
		Name:    "hyperpay",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller hanging up says nothing about the gateway's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			telemetry.Logger.Warn("Gateway circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		entityID:    cfg.EntityID,
		bearerToken: cfg.BearerToken,
		httpClient:  httpClient,
		breaker:     breaker,
	}
}

// CreateCheckout opens a widget session. The gateway's status and JSON body
// are returned untouched so upstream errors reach the frontend.
func (c *Client) CreateCheckout(ctx context.Context, req models.CheckoutRequest) (*models.GatewayResponse, error) {
	form := url.Values{}
	form.Set("entityId", c.entityID)
	form.Set("amount", req.Amount.StringFixed(2))
	form.Set("currency", currency)
	form.Set("paymentType", paymentType)
	form.Set("customer.givenName", req.FirstName)
	form.Set("customer.surname", req.LastName)
	form.Set("customer.email", req.Email)
	form.Set("billing.country", billingCountry)
	form.Set("billing.city", billingCity)
	form.Set("billing.street1", billingStreet)
	form.Set("shopperResultUrl", req.ReturnURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build checkout request: %v", ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	r, err := c.do(httpReq, "create_checkout")
	if err != nil {
		return nil, err
	}
	if !json.Valid(r.body) {
		return nil, fmt.Errorf("%w: checkout response is not JSON (status %d)", ErrUpstream, r.statusCode)
	}

	return &models.GatewayResponse{StatusCode: r.statusCode, Body: r.body}, nil
}

// PaymentStatus fetches the result block for a checkout. The HTTP status of
// the reply is ignored; a rejected payment still carries a result code.
func (c *Client) PaymentStatus(ctx context.Context, checkoutID string) (*models.PaymentResult, error) {
	query := url.Values{"entityId": {c.entityID}}
	u := fmt.Sprintf("%s/v1/checkouts/%s/payment?%s", c.baseURL, url.PathEscape(checkoutID), query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build status request: %v", ErrUpstream, err)
	}

	r, err := c.do(httpReq, "payment_status")
	if err != nil {
		return nil, err
	}

	telemetry.Logger.Debug("Received payment status from gateway",
		zap.String("checkout_id", checkoutID),
		zap.Int("status", r.statusCode),
		zap.ByteString("body", r.body),
	)

	var payload statusPayload
	if err := json.Unmarshal(r.body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode payment status: %v", ErrUpstream, err)
	}

	return &models.PaymentResult{
		Code:        payload.Result.Code,
		Description: payload.Result.Description,
	}, nil
}

func (c *Client) do(req *http.Request, operation string) (*reply, error) {
	start := time.Now()
	defer func() {
		telemetry.ObserveGatewayRequest(operation, time.Since(start))
	}()

	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Accept", "application/json")

	r, err := c.breaker.Execute(func() (*reply, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return &reply{statusCode: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstream, operation, err)
	}
	return r, nil
}
