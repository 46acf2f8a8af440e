package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"beautybook-backend/internal/domains/promotion/model"
)

// PromotionRepository persists promo codes and their usage records.
// The WithTx variants join the booking-creation transaction so a code is
// never debited for a booking that was not created.
type PromotionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error)
	FindByCode(ctx context.Context, code string) (*model.PromoCode, error)
	Create(ctx context.Context, promo *model.PromoCode) error
	List(ctx context.Context, activeOnly bool, page, limit int) ([]model.PromoCode, int, error)

	CountUsageByUser(ctx context.Context, promoID, userID uuid.UUID) (int, error)
	CountUsageByUserWithTx(ctx context.Context, tx pgx.Tx, promoID, userID uuid.UUID) (int, error)

	// IncrementUsedCountWithTx bumps used_count only while the global cap
	// holds; zero rows affected means the cap was hit concurrently.
	IncrementUsedCountWithTx(ctx context.Context, tx pgx.Tx, promoID uuid.UUID) error
	CreateUsageWithTx(ctx context.Context, tx pgx.Tx, usage *model.PromoCodeUsage) error
}
