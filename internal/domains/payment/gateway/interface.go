package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// =====================================================
// GATEWAY INTERFACE
// =====================================================

// Gateway is the external payment provider adapter. Calls are synchronous
// with a timeout; settlement arrives later through the webhook.
type Gateway interface {
	// InitiatePayment registers the payment with the provider and returns
	// the transaction reference plus the URL the client is redirected to.
	InitiatePayment(ctx context.Context, req InitiateRequest) (*InitiateResult, error)

	// GetPaymentStatus polls the provider for a transaction's state.
	GetPaymentStatus(ctx context.Context, transactionID string) (*StatusResult, error)

	// Refund asks the provider to return money for a settled transaction.
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)

	// VerifySignature checks the webhook signature over the raw body.
	// Constant-time; must be called before any state lookup.
	VerifySignature(signature string, body []byte) bool
}

// InitiateRequest registers one payment attempt with the provider.
type InitiateRequest struct {
	Reference string          // our payment id, echoed back by the provider
	Amount    decimal.Decimal
	Currency  string
	OrderInfo string
	ReturnURL string
}

// InitiateResult is the provider's answer to an initiate call.
type InitiateResult struct {
	TransactionID string // provider-side reference, our idempotency key
	RedirectURL   string
}

// StatusResult is a point-in-time view of a provider transaction.
type StatusResult struct {
	TransactionID string
	Status        string
	RawPayload    map[string]interface{}
}

// RefundRequest asks for a (partial) refund of a settled transaction.
type RefundRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Comment       string
}

// RefundResult reports the provider's refund decision.
type RefundResult struct {
	RefundID    string
	Accepted    bool
	Message     string
	RawResponse map[string]interface{}
}
