package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/payment/model"
)

// =====================================================
// PAYMENT REPOSITORY INTERFACE
// =====================================================
type PaymentRepository interface {
	// Transaction management
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	CreatePayment(ctx context.Context, payment *model.Payment) error
	CreatePaymentWithTx(ctx context.Context, tx pgx.Tx, payment *model.Payment) error
	GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*model.Payment, error)

	// GetByGatewayTransactionID is the reconciliation lookup.
	GetByGatewayTransactionID(ctx context.Context, transactionID string) (*model.Payment, error)

	// GetPendingByBookingID enforces the one-pending-payment rule.
	GetPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error)

	ListPaymentsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]model.Payment, error)

	// SettleWithTx moves a pending payment to completed or failed.
	// Conditional on the current status being pending, so two racing
	// webhook deliveries settle exactly once.
	SettleWithTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, status model.PaymentState, failureReason *string, at time.Time) error

	MarkRefundedWithTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, amount decimal.Decimal, at time.Time) error
}

// =====================================================
// WEBHOOK LOG REPOSITORY INTERFACE
// =====================================================
type WebhookLogRepository interface {
	CreateLog(ctx context.Context, log *model.PaymentWebhookLog) error
	UpdateLog(ctx context.Context, log *model.PaymentWebhookLog) error
}
