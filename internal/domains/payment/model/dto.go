package model

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest starts a gateway payment for a confirmed booking.
type InitiatePaymentRequest struct {
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"-"` // from JWT, never from the body
}

func (r InitiatePaymentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookingID, validation.Required),
	)
}

// InitiatePaymentResponse carries the redirect the client follows.
type InitiatePaymentResponse struct {
	PaymentID            uuid.UUID `json:"payment_id"`
	GatewayTransactionID string    `json:"gateway_transaction_id"`
	RedirectURL          string    `json:"redirect_url"`
}

// PayWithWalletRequest settles a confirmed booking from the wallet balance.
type PayWithWalletRequest struct {
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"-"`
}

func (r PayWithWalletRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookingID, validation.Required),
	)
}

// WebhookPayload is the parsed gateway callback body.
type WebhookPayload struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Amount        string `json:"amount"`
}

// ParseWebhookPayload decodes and checks the required fields.
func ParseWebhookPayload(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ErrMalformedWebhook
	}
	if payload.TransactionID == "" || payload.Status == "" {
		return nil, ErrMalformedWebhook
	}
	return &payload, nil
}

// ReconcileOutcome is what a webhook delivery (first or replayed) resolves
// to. Replays of a terminal payment return the recorded outcome unchanged.
type ReconcileOutcome struct {
	PaymentID uuid.UUID    `json:"payment_id"`
	BookingID uuid.UUID    `json:"booking_id"`
	Status    PaymentState `json:"status"`
	Replayed  bool         `json:"replayed"`
}

// PaymentResponse is the API view of a payment.
type PaymentResponse struct {
	ID                   uuid.UUID       `json:"id"`
	BookingID            uuid.UUID       `json:"booking_id"`
	Method               string          `json:"method"`
	GatewayTransactionID *string         `json:"gateway_transaction_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	Status               string          `json:"status"`
	RefundAmount         decimal.Decimal `json:"refund_amount"`
	InitiatedAt          time.Time       `json:"initiated_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	return &PaymentResponse{
		ID:                   p.ID,
		BookingID:            p.BookingID,
		Method:               p.Method,
		GatewayTransactionID: p.GatewayTransactionID,
		Amount:               p.Amount,
		Currency:             p.Currency,
		Status:               p.Status.String(),
		RefundAmount:         p.RefundAmount,
		InitiatedAt:          p.InitiatedAt,
		CompletedAt:          p.CompletedAt,
	}
}
