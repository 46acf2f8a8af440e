package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"beautybook-backend/internal/domains/provider/model"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrServiceNotFound  = errors.New("service not found")
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) ProviderRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetProviderByID(ctx context.Context, providerID uuid.UUID) (*model.Provider, error) {
	query := `
		SELECT id, user_id, business_name, commission_rate, schedule, is_active,
		       created_at, updated_at
		FROM providers
		WHERE id = $1
	`

	var p model.Provider
	err := r.db.QueryRow(ctx, query, providerID).Scan(
		&p.ID,
		&p.UserID,
		&p.BusinessName,
		&p.CommissionRate,
		&p.Schedule,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider by id: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) GetServiceByID(ctx context.Context, serviceID uuid.UUID) (*model.ProviderService, error) {
	query := `
		SELECT id, provider_id, name, salon_price, home_price, home_available,
		       duration_minutes, is_active, created_at, updated_at
		FROM provider_services
		WHERE id = $1
	`

	var s model.ProviderService
	err := r.db.QueryRow(ctx, query, serviceID).Scan(
		&s.ID,
		&s.ProviderID,
		&s.Name,
		&s.SalonPrice,
		&s.HomePrice,
		&s.HomeAvailable,
		&s.DurationMinutes,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service by id: %w", err)
	}

	return &s, nil
}

func (r *PostgresRepository) GetServicesByIDs(ctx context.Context, serviceIDs []uuid.UUID) ([]model.ProviderService, error) {
	query := `
		SELECT id, provider_id, name, salon_price, home_price, home_available,
		       duration_minutes, is_active, created_at, updated_at
		FROM provider_services
		WHERE id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("get services by ids: %w", err)
	}
	defer rows.Close()

	var services []model.ProviderService
	for rows.Next() {
		var s model.ProviderService
		if err := rows.Scan(
			&s.ID,
			&s.ProviderID,
			&s.Name,
			&s.SalonPrice,
			&s.HomePrice,
			&s.HomeAvailable,
			&s.DurationMinutes,
			&s.IsActive,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}

	return services, rows.Err()
}

func (r *PostgresRepository) UpdateSchedule(ctx context.Context, providerID uuid.UUID, schedule model.WeeklySchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE providers
		SET schedule = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, schedule, providerID)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProviderNotFound
	}

	return nil
}
