package model

// =====================================================
// PAYMENT METHODS
// =====================================================
const (
	MethodGateway = "gateway"
	MethodWallet  = "wallet"
)

// PaymentState is the settlement state of one payment attempt.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateRefunded  PaymentState = "refunded"
)

func (ps PaymentState) IsValid() bool {
	switch ps {
	case PaymentStatePending, PaymentStateCompleted, PaymentStateFailed, PaymentStateRefunded:
		return true
	}
	return false
}

func (ps PaymentState) String() string {
	return string(ps)
}

// IsTerminal reports whether a webhook replay should be a no-op.
// Refunded counts as terminal: a refunded payment is never re-settled.
func (ps PaymentState) IsTerminal() bool {
	switch ps {
	case PaymentStateCompleted, PaymentStateFailed, PaymentStateRefunded:
		return true
	}
	return false
}

// Gateway webhook status strings.
const (
	WebhookStatusPaid   = "Paid"
	WebhookStatusFailed = "Failed"
)

const DefaultCurrency = "USD"
