package service

import (
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/promotion/model"
)

// DiscountCalculator computes discount amounts. Pure, no repository access.
type DiscountCalculator struct{}

func NewDiscountCalculator() *DiscountCalculator {
	return &DiscountCalculator{}
}

// Calculate returns the discount for a promo against a subtotal.
//
// percentage: subtotal x value/100, clamped to max_discount_amount if set
// fixed:      min(value, subtotal)
//
// The result is never negative and never exceeds subtotal.
// Rounded to 2 decimal places.
func (c *DiscountCalculator) Calculate(promo *model.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch promo.DiscountType {
	case model.DiscountTypePercentage:
		discount = subtotal.Mul(promo.DiscountValue).Div(decimal.NewFromInt(100))

		if promo.MaxDiscountAmount != nil && discount.GreaterThan(*promo.MaxDiscountAmount) {
			discount = *promo.MaxDiscountAmount
		}

	case model.DiscountTypeFixed:
		discount = promo.DiscountValue

		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}

	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}

	return discount.Round(2)
}
