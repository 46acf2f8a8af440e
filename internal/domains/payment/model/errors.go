package model

import (
	"errors"
	"fmt"
)

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodePaymentNotFound    = "PAY001"
	ErrCodeInvalidSignature   = "PAY002"
	ErrCodeBookingNotPayable  = "PAY003"
	ErrCodePaymentPending     = "PAY004"
	ErrCodeGatewayUnavailable = "PAY005"
	ErrCodeRefundNotAllowed   = "PAY006"
	ErrCodeMalformedWebhook   = "PAY007"
)

// =====================================================
// PREDEFINED ERRORS
// =====================================================
var (
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrInvalidSignature rejects forged callbacks before any state is
	// touched. Permanent: the gateway must not redeliver.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	ErrBookingNotPayable = errors.New("booking is not payable")

	// ErrPaymentPending: a booking has at most one pending payment.
	ErrPaymentPending = errors.New("booking already has a pending payment")

	// ErrGatewayUnavailable: the initiate call rolled back, caller may retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	ErrRefundNotAllowed = errors.New("payment cannot be refunded")
	ErrMalformedWebhook = errors.New("malformed webhook payload")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func NewPaymentError(code, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
