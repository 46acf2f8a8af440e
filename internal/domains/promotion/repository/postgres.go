package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"beautybook-backend/internal/domains/promotion/model"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) PromotionRepository {
	return &PostgresRepository{db: db}
}

const promoColumns = `
	id, code, description,
	discount_type, discount_value, max_discount_amount,
	min_booking_amount, applicable_service_ids, provider_id,
	usage_limit, usage_limit_per_user, used_count,
	valid_from, valid_until, is_active,
	created_at, updated_at
`

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	var p model.PromoCode
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Description,
		&p.DiscountType,
		&p.DiscountValue,
		&p.MaxDiscountAmount,
		&p.MinBookingAmount,
		&p.ApplicableServiceIDs,
		&p.ProviderID,
		&p.UsageLimit,
		&p.UsageLimitPerUser,
		&p.UsedCount,
		&p.ValidFrom,
		&p.ValidUntil,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -------------------------------------------------------------------
// READ OPERATIONS
// -------------------------------------------------------------------

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = $1`

	p, err := scanPromo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPromoNotFound
		}
		return nil, fmt.Errorf("find promo by id: %w", err)
	}

	return p, nil
}

// FindByCode looks a code up without filtering by active/time; the
// validator reports those as distinct failures.
func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1`

	p, err := scanPromo(r.db.QueryRow(ctx, query, model.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPromoNotFound
		}
		return nil, fmt.Errorf("find promo by code: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool, page, limit int) ([]model.PromoCode, int, error) {
	where := ""
	if activeOnly {
		where = `WHERE is_active = TRUE AND valid_until > NOW()`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM promo_codes `+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count promo codes: %w", err)
	}

	query := `SELECT ` + promoColumns + ` FROM promo_codes ` + where + `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	offset := (page - 1) * limit
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list promo codes: %w", err)
	}
	defer rows.Close()

	var promos []model.PromoCode
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan promo: %w", err)
		}
		promos = append(promos, *p)
	}

	return promos, total, rows.Err()
}

func (r *PostgresRepository) CountUsageByUser(ctx context.Context, promoID, userID uuid.UUID) (int, error) {
	return r.countUsage(ctx, r.db, promoID, userID)
}

func (r *PostgresRepository) CountUsageByUserWithTx(ctx context.Context, tx pgx.Tx, promoID, userID uuid.UUID) (int, error) {
	return r.countUsage(ctx, tx, promoID, userID)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresRepository) countUsage(ctx context.Context, q queryRower, promoID, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM promo_code_usages
		WHERE promo_code_id = $1 AND user_id = $2
	`

	var count int
	if err := q.QueryRow(ctx, query, promoID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count promo usage: %w", err)
	}

	return count, nil
}

// -------------------------------------------------------------------
// WRITE OPERATIONS
// -------------------------------------------------------------------

func (r *PostgresRepository) Create(ctx context.Context, promo *model.PromoCode) error {
	query := `
		INSERT INTO promo_codes (
			id, code, description,
			discount_type, discount_value, max_discount_amount,
			min_booking_amount, applicable_service_ids, provider_id,
			usage_limit, usage_limit_per_user, used_count,
			valid_from, valid_until, is_active,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $13, $14, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		promo.ID,
		promo.Code,
		promo.Description,
		promo.DiscountType,
		promo.DiscountValue,
		promo.MaxDiscountAmount,
		promo.MinBookingAmount,
		pq.Array(promo.ApplicableServiceIDs),
		promo.ProviderID,
		promo.UsageLimit,
		promo.UsageLimitPerUser,
		promo.ValidFrom,
		promo.ValidUntil,
		promo.IsActive,
	).Scan(&promo.CreatedAt, &promo.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrPromoDuplicateCode
		}
		return fmt.Errorf("create promo code: %w", err)
	}

	return nil
}

func (r *PostgresRepository) IncrementUsedCountWithTx(ctx context.Context, tx pgx.Tx, promoID uuid.UUID) error {
	query := `
		UPDATE promo_codes
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	result, err := tx.Exec(ctx, query, promoID)
	if err != nil {
		return fmt.Errorf("increment promo used count: %w", err)
	}
	if result.RowsAffected() == 0 {
		// cap was reached by a concurrent booking
		return model.ErrPromoUsageLimitExceeded
	}

	return nil
}

func (r *PostgresRepository) CreateUsageWithTx(ctx context.Context, tx pgx.Tx, usage *model.PromoCodeUsage) error {
	query := `
		INSERT INTO promo_code_usages (
			id, promo_code_id, user_id, booking_id, discount_amount, used_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING used_at
	`

	err := tx.QueryRow(ctx, query,
		usage.ID,
		usage.PromoCodeID,
		usage.UserID,
		usage.BookingID,
		usage.DiscountAmount,
	).Scan(&usage.UsedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrUsageAlreadyRecorded
		}
		return fmt.Errorf("create promo usage: %w", err)
	}

	return nil
}
