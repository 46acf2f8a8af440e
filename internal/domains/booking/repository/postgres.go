package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beautybook-backend/internal/domains/booking/model"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) BookingRepository {
	return &PostgresRepository{db: db}
}

// =====================================================
// TRANSACTION MANAGEMENT
// =====================================================

func (r *PostgresRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

func (r *PostgresRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *PostgresRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// =====================================================
// BOOKING OPERATIONS
// =====================================================

const bookingColumns = `
	id, booking_number, client_id, provider_id,
	appointment_at, location,
	subtotal, discount_amount, tax_amount, total_amount,
	commission_amount, cancellation_fee, total_duration_minutes,
	promo_code_id, status, payment_status,
	confirmed_at, payment_deadline, paid_at, cancelled_at, completed_at,
	cancelled_by, cancellation_reason, client_note,
	version, created_at, updated_at
`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var b model.Booking
	err := row.Scan(
		&b.ID,
		&b.BookingNumber,
		&b.ClientID,
		&b.ProviderID,
		&b.AppointmentAt,
		&b.Location,
		&b.Subtotal,
		&b.DiscountAmount,
		&b.TaxAmount,
		&b.TotalAmount,
		&b.CommissionAmount,
		&b.CancellationFee,
		&b.TotalDurationMinutes,
		&b.PromoCodeID,
		&b.Status,
		&b.PaymentStatus,
		&b.ConfirmedAt,
		&b.PaymentDeadline,
		&b.PaidAt,
		&b.CancelledAt,
		&b.CompletedAt,
		&b.CancelledBy,
		&b.CancellationReason,
		&b.ClientNote,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PostgresRepository) CreateBookingWithTx(ctx context.Context, tx pgx.Tx, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, booking_number, client_id, provider_id,
			appointment_at, location,
			subtotal, discount_amount, tax_amount, total_amount,
			commission_amount, cancellation_fee, total_duration_minutes,
			promo_code_id, status, payment_status, client_note,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, 1, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		booking.ID,
		booking.BookingNumber,
		booking.ClientID,
		booking.ProviderID,
		booking.AppointmentAt,
		booking.Location,
		booking.Subtotal,
		booking.DiscountAmount,
		booking.TaxAmount,
		booking.TotalAmount,
		booking.CommissionAmount,
		booking.CancellationFee,
		booking.TotalDurationMinutes,
		booking.PromoCodeID,
		booking.Status,
		booking.PaymentStatus,
		booking.ClientNote,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	booking.Version = 1
	return nil
}

func (r *PostgresRepository) GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return b, nil
}

func (r *PostgresRepository) GetBookingByNumber(ctx context.Context, bookingNumber string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_number = $1`

	b, err := scanBooking(r.db.QueryRow(ctx, query, bookingNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking by number: %w", err)
	}

	return b, nil
}

// =====================================================
// TRANSITIONS (compare-and-swap on version)
// =====================================================

func (r *PostgresRepository) AcceptWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, confirmedAt, paymentDeadline time.Time, version int) error {
	query := `
		UPDATE bookings
		SET status = 'confirmed',
		    confirmed_at = $1,
		    payment_deadline = $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND version = $4
	`

	result, err := tx.Exec(ctx, query, confirmedAt, paymentDeadline, bookingID, version)
	if err != nil {
		return fmt.Errorf("accept booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *PostgresRepository) RejectWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, version int) error {
	query := `
		UPDATE bookings
		SET status = 'rejected',
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND version = $2
	`

	result, err := tx.Exec(ctx, query, bookingID, version)
	if err != nil {
		return fmt.Errorf("reject booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *PostgresRepository) CancelWithTx(ctx context.Context, tx pgx.Tx, params CancelParams) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled',
		    cancelled_by = $1,
		    cancellation_reason = $2,
		    cancellation_fee = $3,
		    payment_status = $4,
		    cancelled_at = $5,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $6 AND version = $7
	`

	result, err := tx.Exec(ctx, query,
		params.CancelledBy,
		params.Reason,
		params.CancellationFee,
		params.PaymentStatus,
		params.CancelledAt,
		params.BookingID,
		params.Version,
	)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *PostgresRepository) CompleteWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, completedAt time.Time, version int) error {
	query := `
		UPDATE bookings
		SET status = 'completed',
		    payment_status = 'paid',
		    completed_at = $1,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := tx.Exec(ctx, query, completedAt, bookingID, version)
	if err != nil {
		return fmt.Errorf("complete booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

func (r *PostgresRepository) SetPaymentStatusWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, status model.PaymentStatus, paidAt *time.Time, version int) error {
	query := `
		UPDATE bookings
		SET payment_status = $1,
		    paid_at = COALESCE($2, paid_at),
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND version = $4
	`

	result, err := tx.Exec(ctx, query, status, paidAt, bookingID, version)
	if err != nil {
		return fmt.Errorf("set booking payment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrVersionMismatch
	}

	return nil
}

// =====================================================
// LINE ITEMS
// =====================================================

func (r *PostgresRepository) CreateLineItemsWithTx(ctx context.Context, tx pgx.Tx, items []model.BookingLineItem) error {
	query := `
		INSERT INTO booking_line_items (
			id, booking_id, service_id, service_name, location,
			unit_price, quantity, line_total, duration_minutes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.BookingID,
			item.ServiceID,
			item.ServiceName,
			item.Location,
			item.UnitPrice,
			item.Quantity,
			item.LineTotal,
			item.DurationMinutes,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("create booking line item: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) GetLineItemsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]model.BookingLineItem, error) {
	query := `
		SELECT id, booking_id, service_id, service_name, location,
		       unit_price, quantity, line_total, duration_minutes, created_at
		FROM booking_line_items
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking line items: %w", err)
	}
	defer rows.Close()

	var items []model.BookingLineItem
	for rows.Next() {
		var item model.BookingLineItem
		if err := rows.Scan(
			&item.ID,
			&item.BookingID,
			&item.ServiceID,
			&item.ServiceName,
			&item.Location,
			&item.UnitPrice,
			&item.Quantity,
			&item.LineTotal,
			&item.DurationMinutes,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// =====================================================
// LIST OPERATIONS
// =====================================================

func (r *PostgresRepository) ListBookingsByClientID(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error) {
	return r.list(ctx, "client_id", clientID, status, page, limit)
}

func (r *PostgresRepository) ListBookingsByProviderID(ctx context.Context, providerID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error) {
	return r.list(ctx, "provider_id", providerID, status, page, limit)
}

func (r *PostgresRepository) list(ctx context.Context, ownerColumn string, ownerID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error) {
	where := fmt.Sprintf("WHERE %s = $1", ownerColumn)
	args := []any{ownerID}
	if status != "" {
		where += " AND status = $2"
		args = append(args, status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bookings %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, (page-1)*limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}

	return bookings, total, rows.Err()
}

func (r *PostgresRepository) ListExpiredUnpaid(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = 'confirmed'
		  AND payment_status != 'paid'
		  AND payment_deadline < $1
		ORDER BY payment_deadline
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired booking: %w", err)
		}
		bookings = append(bookings, *b)
	}

	return bookings, rows.Err()
}

// =====================================================
// STATUS HISTORY
// =====================================================

func (r *PostgresRepository) CreateStatusHistoryWithTx(ctx context.Context, tx pgx.Tx, history *model.BookingStatusHistory) error {
	query := `
		INSERT INTO booking_status_history (
			id, booking_id, from_status, to_status, changed_by, notes, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING changed_at
	`

	err := tx.QueryRow(ctx, query,
		history.ID,
		history.BookingID,
		history.FromStatus,
		history.ToStatus,
		history.ChangedBy,
		history.Notes,
	).Scan(&history.ChangedAt)
	if err != nil {
		return fmt.Errorf("create booking status history: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetStatusHistory(ctx context.Context, bookingID uuid.UUID) ([]model.BookingStatusHistory, error) {
	query := `
		SELECT id, booking_id, from_status, to_status, changed_by, notes, changed_at
		FROM booking_status_history
		WHERE booking_id = $1
		ORDER BY changed_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking status history: %w", err)
	}
	defer rows.Close()

	var history []model.BookingStatusHistory
	for rows.Next() {
		var h model.BookingStatusHistory
		if err := rows.Scan(&h.ID, &h.BookingID, &h.FromStatus, &h.ToStatus, &h.ChangedBy, &h.Notes, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		history = append(history, h)
	}

	return history, rows.Err()
}
