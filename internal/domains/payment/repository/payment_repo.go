package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/payment/model"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// =====================================================
// TRANSACTION MANAGEMENT
// =====================================================

func (r *PostgresPaymentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func (r *PostgresPaymentRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *PostgresPaymentRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// =====================================================
// PAYMENT OPERATIONS
// =====================================================

const paymentColumns = `
	id, booking_id, method, gateway_transaction_id, amount, currency,
	status, failure_reason, refund_amount, refunded_at,
	initiated_at, completed_at, failed_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID, &p.BookingID, &p.Method, &p.GatewayTransactionID, &p.Amount, &p.Currency,
		&p.Status, &p.FailureReason, &p.RefundAmount, &p.RefundedAt,
		&p.InitiatedAt, &p.CompletedAt, &p.FailedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

const insertPaymentQuery = `
	INSERT INTO payments (
		id, booking_id, method, gateway_transaction_id, amount, currency,
		status, refund_amount, initiated_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

func (r *PostgresPaymentRepository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	_, err := r.db.Exec(ctx, insertPaymentQuery,
		payment.ID, payment.BookingID, payment.Method, payment.GatewayTransactionID,
		payment.Amount, payment.Currency, payment.Status, payment.RefundAmount,
		payment.InitiatedAt,
	)
	return err
}

func (r *PostgresPaymentRepository) CreatePaymentWithTx(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	_, err := tx.Exec(ctx, insertPaymentQuery,
		payment.ID, payment.BookingID, payment.Method, payment.GatewayTransactionID,
		payment.Amount, payment.Currency, payment.Status, payment.RefundAmount,
		payment.InitiatedAt,
	)
	return err
}

func (r *PostgresPaymentRepository) GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

func (r *PostgresPaymentRepository) GetByGatewayTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_transaction_id = $1`
	return scanPayment(r.db.QueryRow(ctx, query, transactionID))
}

func (r *PostgresPaymentRepository) GetPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 AND status = 'pending'`
	return scanPayment(r.db.QueryRow(ctx, query, bookingID))
}

func (r *PostgresPaymentRepository) ListPaymentsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// =====================================================
// SETTLEMENT
// =====================================================

func (r *PostgresPaymentRepository) SettleWithTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, status model.PaymentState, failureReason *string, at time.Time) error {
	query := `
		UPDATE payments
		SET status = $2,
		    failure_reason = $3,
		    completed_at = CASE WHEN $2 = 'completed' THEN $4 ELSE completed_at END,
		    failed_at    = CASE WHEN $2 = 'failed' THEN $4 ELSE failed_at END,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	result, err := tx.Exec(ctx, query, paymentID, status, failureReason, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrPaymentNotFound
	}
	return nil
}

func (r *PostgresPaymentRepository) MarkRefundedWithTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	query := `
		UPDATE payments
		SET status = 'refunded',
		    refund_amount = $2,
		    refunded_at = $3,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'completed'`

	result, err := tx.Exec(ctx, query, paymentID, amount, at)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrRefundNotAllowed
	}
	return nil
}
