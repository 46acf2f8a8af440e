package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValidatePromoRequest checks a code against a prospective booking.
type ValidatePromoRequest struct {
	Code       string          `json:"code"`
	ProviderID uuid.UUID       `json:"provider_id"`
	ServiceIDs []uuid.UUID     `json:"service_ids"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	UserID     *uuid.UUID      `json:"-"` // from JWT, never from the body
}

func (r ValidatePromoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.Required.Error("promo code is required"),
			validation.Length(3, 50).Error("promo code must be 3-50 characters"),
		),
		validation.Field(&r.ProviderID, validation.Required),
		validation.Field(&r.ServiceIDs,
			validation.Required.Error("at least one service is required"),
			validation.Length(1, 50),
		),
		validation.Field(&r.Subtotal,
			validation.Required.Error("subtotal is required"),
			validation.By(minDecimal("subtotal_negative", "subtotal must be >= 0", decimal.Zero)),
		),
	)
}

// ozzo's threshold rules do not understand decimal.Decimal, so money
// fields get their range checks through By.
func minDecimal(code, message string, min decimal.Decimal) validation.RuleFunc {
	return func(value interface{}) error {
		d, ok := value.(decimal.Decimal)
		if !ok || d.LessThan(min) {
			return validation.NewError(code, message)
		}
		return nil
	}
}

// ValidationResult is what the validate endpoint returns on success.
type ValidationResult struct {
	PromoCodeID    uuid.UUID       `json:"promo_code_id"`
	Code           string          `json:"code"`
	DiscountType   string          `json:"discount_type"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// CreatePromoRequest is the admin request to create a new code.
type CreatePromoRequest struct {
	Code              string           `json:"code"`
	Description       *string          `json:"description"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	MinBookingAmount  *decimal.Decimal `json:"min_booking_amount"`
	ServiceIDs        []uuid.UUID      `json:"service_ids"`
	ProviderID        *uuid.UUID       `json:"provider_id"`
	UsageLimit        *int             `json:"usage_limit"`
	UsageLimitPerUser *int             `json:"usage_limit_per_user"`
	ValidFrom         time.Time        `json:"valid_from"`
	ValidUntil        time.Time        `json:"valid_until"`
}

func (r CreatePromoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.Required.Error("code is required"),
			validation.Length(3, 50).Error("code must be 3-50 characters"),
		),
		validation.Field(&r.DiscountType,
			validation.Required,
			validation.In("percentage", "fixed").Error("discount_type must be percentage or fixed"),
		),
		validation.Field(&r.DiscountValue,
			validation.Required.Error("discount_value is required"),
			validation.By(minDecimal("discount_value_not_positive", "discount_value must be positive", decimal.New(1, -2))),
		),
		// Min would skip the explicit zero (ozzo treats it as empty), so
		// the check goes through By.
		validation.Field(&r.UsageLimitPerUser,
			validation.By(func(value interface{}) error {
				if v, ok := value.(*int); ok && v != nil && *v < 1 {
					return validation.NewError("usage_limit_per_user_invalid", "usage_limit_per_user must be at least 1")
				}
				return nil
			}),
		),
		validation.Field(&r.ValidFrom, validation.Required),
		validation.Field(&r.ValidUntil,
			validation.Required,
			validation.By(func(interface{}) error {
				if !r.ValidUntil.After(r.ValidFrom) {
					return validation.NewError("valid_until", "valid_until must be after valid_from")
				}
				return nil
			}),
		),
	)
}

// ToEntity builds a PromoCode from the admin request.
func (r CreatePromoRequest) ToEntity() *PromoCode {
	return &PromoCode{
		ID:                   uuid.New(),
		Code:                 NormalizeCode(r.Code),
		Description:          r.Description,
		DiscountType:         DiscountType(r.DiscountType),
		DiscountValue:        r.DiscountValue,
		MaxDiscountAmount:    r.MaxDiscountAmount,
		MinBookingAmount:     r.MinBookingAmount,
		ApplicableServiceIDs: r.ServiceIDs,
		ProviderID:           r.ProviderID,
		UsageLimit:           r.UsageLimit,
		UsageLimitPerUser:    r.UsageLimitPerUser,
		ValidFrom:            r.ValidFrom,
		ValidUntil:           r.ValidUntil,
		IsActive:             true,
	}
}

// PromoListQuery filters the admin list endpoint.
type PromoListQuery struct {
	ActiveOnly bool `form:"active_only"`
	Page       int  `form:"page"`
	Limit      int  `form:"limit"`
}
