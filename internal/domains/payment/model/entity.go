package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// PAYMENT ENTITY
// =====================================================
//
// One row per settlement attempt. A booking may accumulate failed attempts
// but has at most one pending payment at a time. GatewayTransactionID is
// the idempotency key for webhook reconciliation.
type Payment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`

	Method               string  `json:"method" db:"method"`
	GatewayTransactionID *string `json:"gateway_transaction_id,omitempty" db:"gateway_transaction_id"`

	Amount   decimal.Decimal `json:"amount" db:"amount"`
	Currency string          `json:"currency" db:"currency"`

	Status        PaymentState `json:"status" db:"status"`
	FailureReason *string      `json:"failure_reason,omitempty" db:"failure_reason"`

	RefundAmount decimal.Decimal `json:"refund_amount" db:"refund_amount"`
	RefundedAt   *time.Time      `json:"refunded_at,omitempty" db:"refunded_at"`

	InitiatedAt time.Time  `json:"initiated_at" db:"initiated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	FailedAt    *time.Time `json:"failed_at,omitempty" db:"failed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStateCompleted
}

// CanBeRefunded: only a completed, not-yet-refunded payment.
func (p *Payment) CanBeRefunded() bool {
	if p.Status != PaymentStateCompleted {
		return false
	}
	return p.RefundAmount.LessThan(p.Amount)
}

// RawBody stores the webhook payload verbatim for audit, as JSONB.
type RawBody []byte

func (b RawBody) Value() (driver.Value, error) {
	if len(b) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(b) {
		return nil, errors.New("webhook body is not valid JSON")
	}
	return []byte(b), nil
}

func (b *RawBody) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*b = nil
		return nil
	case []byte:
		*b = append((*b)[:0], v...)
		return nil
	case string:
		*b = RawBody(v)
		return nil
	}
	return errors.New("unsupported type for RawBody")
}

// =====================================================
// WEBHOOK AUDIT LOG
// =====================================================
//
// Every delivery is recorded before processing, including forged and
// duplicate ones, so gateway disputes can be replayed from our side.
type PaymentWebhookLog struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	PaymentID *uuid.UUID `json:"payment_id,omitempty" db:"payment_id"`

	Body      RawBody `json:"body" db:"body"`
	Signature *string `json:"signature,omitempty" db:"signature"`

	SignatureValid  *bool   `json:"signature_valid,omitempty" db:"signature_valid"`
	IsProcessed     bool    `json:"is_processed" db:"is_processed"`
	ProcessingError *string `json:"processing_error,omitempty" db:"processing_error"`

	ReceivedAt time.Time `json:"received_at" db:"received_at"`
}

func (w *PaymentWebhookLog) MarkProcessed() {
	w.IsProcessed = true
}

func (w *PaymentWebhookLog) MarkInvalid(reason string) {
	valid := false
	w.SignatureValid = &valid
	w.ProcessingError = &reason
}

func (w *PaymentWebhookLog) MarkError(err error) {
	msg := err.Error()
	w.ProcessingError = &msg
}
