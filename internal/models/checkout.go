package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/hosted-checkout/internal/payment"
)

// PrepareCheckoutRequest is the body the checkout page posts. Field names
// follow the frontend, not the gateway.
type PrepareCheckoutRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	FirstName        string          `json:"fname"`
	LastName         string          `json:"lname"`
	Email            string          `json:"email"`
	ShopperResultURL string          `json:"shopperResultUrl"`
}

var ErrInvalidAmount = errors.New("amount must be non-negative with at most two decimal places")

// ValidateAmount rejects amounts the gateway would have to round.
func (r PrepareCheckoutRequest) ValidateAmount() error {
	if r.Amount.IsNegative() || !r.Amount.Equal(r.Amount.Truncate(2)) {
		return ErrInvalidAmount
	}
	return nil
}

func (r PrepareCheckoutRequest) ToCheckoutRequest() CheckoutRequest {
	return CheckoutRequest{
		Amount:    r.Amount,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		ReturnURL: r.ShopperResultURL,
	}
}

type CheckoutRequest struct {
	Amount    decimal.Decimal
	FirstName string
	LastName  string
	Email     string
	ReturnURL string
}

// GatewayResponse is a gateway reply relayed to the caller as-is.
type GatewayResponse struct {
	StatusCode int
	Body       []byte
}

// StoredCheckout is a checkout reply kept under an Idempotency-Key together
// with the hash of the request body that produced it.
type StoredCheckout struct {
	RequestHash string
	StatusCode  int
	Body        []byte
}

// PaymentResult is the result block of a gateway payment-status reply.
type PaymentResult struct {
	Code        string
	Description string
}

type PaymentStatusResponse struct {
	PaymentStatus payment.Status `json:"paymentStatus"`
	Description   string         `json:"description"`
}

func NewPaymentStatusResponse(o payment.Outcome) PaymentStatusResponse {
	return PaymentStatusResponse{
		PaymentStatus: o.Status,
		Description:   o.Description,
	}
}

type OutcomeEvent struct {
	EventID     string         `json:"event_id"`
	CheckoutID  string         `json:"checkout_id"`
	Status      payment.Status `json:"status"`
	ResultCode  string         `json:"result_code"`
	Description string         `json:"description"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
