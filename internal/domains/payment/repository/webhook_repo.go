package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"beautybook-backend/internal/domains/payment/model"
)

type PostgresWebhookLogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresWebhookLogRepository(db *pgxpool.Pool) WebhookLogRepository {
	return &PostgresWebhookLogRepository{db: db}
}

func (r *PostgresWebhookLogRepository) CreateLog(ctx context.Context, log *model.PaymentWebhookLog) error {
	query := `
		INSERT INTO payment_webhook_logs (
			id, payment_id, body, signature, signature_valid,
			is_processed, processing_error, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		log.ID, log.PaymentID, log.Body, log.Signature, log.SignatureValid,
		log.IsProcessed, log.ProcessingError, log.ReceivedAt,
	)
	return err
}

func (r *PostgresWebhookLogRepository) UpdateLog(ctx context.Context, log *model.PaymentWebhookLog) error {
	query := `
		UPDATE payment_webhook_logs
		SET payment_id = $2,
		    signature_valid = $3,
		    is_processed = $4,
		    processing_error = $5
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query,
		log.ID, log.PaymentID, log.SignatureValid, log.IsProcessed, log.ProcessingError,
	)
	return err
}
