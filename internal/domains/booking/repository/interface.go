package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/booking/model"
)

// =====================================================
// BOOKING REPOSITORY INTERFACE
// =====================================================
//
// Every state transition is a conditional UPDATE guarded by the version
// column; zero rows affected surfaces as ErrVersionMismatch and the caller
// treats the transition as lost.
type BookingRepository interface {
	// Transaction management
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	// Booking operations
	CreateBookingWithTx(ctx context.Context, tx pgx.Tx, booking *model.Booking) error
	GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error)
	GetBookingByNumber(ctx context.Context, bookingNumber string) (*model.Booking, error)

	// Transitions (compare-and-swap on version)
	AcceptWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, confirmedAt, paymentDeadline time.Time, version int) error
	RejectWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, version int) error
	CancelWithTx(ctx context.Context, tx pgx.Tx, params CancelParams) error
	CompleteWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, completedAt time.Time, version int) error
	SetPaymentStatusWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status model.PaymentStatus, paidAt *time.Time, version int) error

	// Line items
	CreateLineItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.BookingLineItem) error
	GetLineItemsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]model.BookingLineItem, error)

	// List operations
	ListBookingsByClientID(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error)
	ListBookingsByProviderID(ctx context.Context, providerID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error)

	// ListExpiredUnpaid finds confirmed, unpaid bookings whose payment
	// deadline has passed. Used by the timeout sweep.
	ListExpiredUnpaid(ctx context.Context, now time.Time, limit int) ([]model.Booking, error)

	// Status history
	CreateStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.BookingStatusHistory) error
	GetStatusHistory(ctx context.Context, bookingID uuid.UUID) ([]model.BookingStatusHistory, error)
}

// CancelParams carries everything a cancellation transition writes.
type CancelParams struct {
	BookingID       uuid.UUID
	CancelledBy     model.CancelledBy
	Reason          string
	CancellationFee decimal.Decimal
	PaymentStatus   model.PaymentStatus
	CancelledAt     time.Time
	Version         int
}
