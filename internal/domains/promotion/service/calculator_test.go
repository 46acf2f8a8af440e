package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"beautybook-backend/internal/domains/promotion/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestCalculate_PercentageCappedByMaxDiscount(t *testing.T) {
	cap := dec("15")
	promo := &model.PromoCode{
		DiscountType:      model.DiscountTypePercentage,
		DiscountValue:     dec("10"),
		MaxDiscountAmount: &cap,
	}

	// 10% of 200 is 20, capped at 15
	discount := NewDiscountCalculator().Calculate(promo, dec("200"))
	assert.True(t, discount.Equal(dec("15")), "got %s", discount)
}

func TestCalculate_PercentageUncapped(t *testing.T) {
	promo := &model.PromoCode{
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: dec("10"),
	}

	discount := NewDiscountCalculator().Calculate(promo, dec("200"))
	assert.True(t, discount.Equal(dec("20")), "got %s", discount)
}

func TestCalculate_FixedNeverExceedsSubtotal(t *testing.T) {
	promo := &model.PromoCode{
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: dec("100"),
	}

	discount := NewDiscountCalculator().Calculate(promo, dec("50"))
	assert.True(t, discount.Equal(dec("50")), "got %s", discount)
}

func TestCalculate_FixedBelowSubtotal(t *testing.T) {
	promo := &model.PromoCode{
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: dec("30"),
	}

	discount := NewDiscountCalculator().Calculate(promo, dec("50"))
	assert.True(t, discount.Equal(dec("30")), "got %s", discount)
}

func TestCalculate_RoundsToTwoPlaces(t *testing.T) {
	promo := &model.PromoCode{
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: dec("15"),
	}

	// 15% of 33.33 = 4.9995 -> 5.00
	discount := NewDiscountCalculator().Calculate(promo, dec("33.33"))
	assert.True(t, discount.Equal(dec("5")), "got %s", discount)
}

func TestCalculate_UnknownTypeYieldsZero(t *testing.T) {
	promo := &model.PromoCode{
		DiscountType:  model.DiscountType("bogus"),
		DiscountValue: dec("10"),
	}

	discount := NewDiscountCalculator().Calculate(promo, dec("200"))
	assert.True(t, discount.IsZero())
}
