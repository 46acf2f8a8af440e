package repository

import (
	"context"

	"github.com/google/uuid"

	"beautybook-backend/internal/domains/provider/model"
)

// ProviderRepository is the read side the booking flow needs:
// commission rates, service prices and schedules.
type ProviderRepository interface {
	GetProviderByID(ctx context.Context, providerID uuid.UUID) (*model.Provider, error)
	GetServiceByID(ctx context.Context, serviceID uuid.UUID) (*model.ProviderService, error)
	GetServicesByIDs(ctx context.Context, serviceIDs []uuid.UUID) ([]model.ProviderService, error)
	UpdateSchedule(ctx context.Context, providerID uuid.UUID, schedule model.WeeklySchedule) error
}
