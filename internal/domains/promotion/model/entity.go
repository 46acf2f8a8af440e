package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType represents valid discount types
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

func (dt DiscountType) IsValid() bool {
	switch dt {
	case DiscountTypePercentage, DiscountTypeFixed:
		return true
	}
	return false
}

func (dt DiscountType) String() string {
	return string(dt)
}

// PromoCode represents a discount code with eligibility rules and usage caps.
// UsedCount only ever goes up; it is incremented in the same transaction as
// the booking that consumed the code.
type PromoCode struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Description *string   `json:"description,omitempty" db:"description"`

	// Discount details
	DiscountType      DiscountType     `json:"discount_type" db:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value" db:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty" db:"max_discount_amount"`

	// Applicability rules
	MinBookingAmount     *decimal.Decimal `json:"min_booking_amount,omitempty" db:"min_booking_amount"`
	ApplicableServiceIDs []uuid.UUID      `json:"applicable_service_ids,omitempty" db:"applicable_service_ids"`
	ProviderID           *uuid.UUID       `json:"provider_id,omitempty" db:"provider_id"`

	// Usage limits, nil means unlimited
	UsageLimit        *int `json:"usage_limit,omitempty" db:"usage_limit"`
	UsageLimitPerUser *int `json:"usage_limit_per_user,omitempty" db:"usage_limit_per_user"`
	UsedCount         int  `json:"used_count" db:"used_count"`

	// Validity period
	ValidFrom  time.Time `json:"valid_from" db:"valid_from"`
	ValidUntil time.Time `json:"valid_until" db:"valid_until"`

	IsActive bool `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsWithinWindow reports whether the code is usable at the given instant.
func (p *PromoCode) IsWithinWindow(now time.Time) bool {
	return p.IsActive && !now.Before(p.ValidFrom) && now.Before(p.ValidUntil)
}

// IsGlobalLimitReached reports whether the global usage cap is exhausted.
func (p *PromoCode) IsGlobalLimitReached() bool {
	return p.UsageLimit != nil && p.UsedCount >= *p.UsageLimit
}

// PromoCodeUsage ties one (promo, user, booking) triple together. It is the
// source of truth for per-user limits and is unique per booking.
type PromoCodeUsage struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	PromoCodeID    uuid.UUID       `json:"promo_code_id" db:"promo_code_id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	BookingID      uuid.UUID       `json:"booking_id" db:"booking_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	UsedAt         time.Time       `json:"used_at" db:"used_at"`
}

// NormalizeCode uppercases and trims a user-supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
