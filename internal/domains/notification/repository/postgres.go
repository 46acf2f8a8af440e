package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"beautybook-backend/internal/domains/notification/model"
)

// NotificationRepository stores in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
	ClearPaymentPending(ctx context.Context, bookingID uuid.UUID) error
}

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) NotificationRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, kind, title, body, metadata, booking_id,
			is_read, cleared, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, FALSE, NOW())
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		n.ID,
		n.UserID,
		n.Kind,
		n.Title,
		n.Body,
		n.Metadata,
		n.BookingID,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND cleared = FALSE`,
		userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `
		SELECT id, user_id, kind, title, body, metadata, booking_id,
		       is_read, cleared, created_at
		FROM notifications
		WHERE user_id = $1 AND cleared = FALSE
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var items []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Metadata,
			&n.BookingID, &n.IsRead, &n.Cleared, &n.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		items = append(items, n)
	}

	return items, total, rows.Err()
}

func (r *PostgresRepository) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
	`

	_, err := r.db.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	return nil
}

// ClearPaymentPending retires the payment reminder once a booking settles.
func (r *PostgresRepository) ClearPaymentPending(ctx context.Context, bookingID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET cleared = TRUE
		WHERE booking_id = $1 AND kind = $2 AND cleared = FALSE
	`

	_, err := r.db.Exec(ctx, query, bookingID, model.KindPaymentPending)
	if err != nil {
		return fmt.Errorf("clear payment pending notification: %w", err)
	}

	return nil
}
