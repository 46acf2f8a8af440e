package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Provider represents a service provider profile.
// CommissionRate is the platform's percentage cut of the post-discount
// booking amount, stored per provider.
type Provider struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	BusinessName   string          `json:"business_name" db:"business_name"`
	CommissionRate decimal.Decimal `json:"commission_rate" db:"commission_rate"`
	Schedule       WeeklySchedule  `json:"schedule" db:"schedule"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// ProviderService is one bookable service a provider offers.
// SalonPrice and HomePrice are location-specific unit prices; a service
// with HomeAvailable=false cannot be booked at the client's home.
type ProviderService struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	ProviderID      uuid.UUID       `json:"provider_id" db:"provider_id"`
	Name            string          `json:"name" db:"name"`
	SalonPrice      decimal.Decimal `json:"salon_price" db:"salon_price"`
	HomePrice       decimal.Decimal `json:"home_price" db:"home_price"`
	HomeAvailable   bool            `json:"home_available" db:"home_available"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
