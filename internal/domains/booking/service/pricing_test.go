package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook-backend/internal/domains/booking/model"
	providermodel "beautybook-backend/internal/domains/provider/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testService(salon, home string, homeAvailable bool, duration int) *providermodel.ProviderService {
	return &providermodel.ProviderService{
		ID:              uuid.New(),
		ProviderID:      uuid.New(),
		Name:            "Haircut",
		SalonPrice:      dec(salon),
		HomePrice:       dec(home),
		HomeAvailable:   homeAvailable,
		DurationMinutes: duration,
		IsActive:        true,
	}
}

func TestPriceLines_SalonPricing(t *testing.T) {
	engine := NewPricingEngine(15)
	svc := testService("80", "100", true, 45)
	services := map[string]*providermodel.ProviderService{svc.ID.String(): svc}

	result, err := engine.PriceLines(
		[]model.BookingItemRequest{{ServiceID: svc.ID, Quantity: 2}},
		services, model.LocationSalon,
	)
	require.NoError(t, err)

	assert.True(t, result.Subtotal.Equal(dec("160")), "got %s", result.Subtotal)
	assert.Equal(t, 90, result.TotalDurationMinutes)
	require.Len(t, result.Lines, 1)
	assert.True(t, result.Lines[0].UnitPrice.Equal(dec("80")))
	assert.True(t, result.Lines[0].LineTotal.Equal(dec("160")))
}

func TestPriceLines_HomePricing(t *testing.T) {
	engine := NewPricingEngine(15)
	svc := testService("80", "100", true, 45)
	services := map[string]*providermodel.ProviderService{svc.ID.String(): svc}

	result, err := engine.PriceLines(
		[]model.BookingItemRequest{{ServiceID: svc.ID, Quantity: 1}},
		services, model.LocationHome,
	)
	require.NoError(t, err)
	assert.True(t, result.Subtotal.Equal(dec("100")), "got %s", result.Subtotal)
}

func TestPriceLines_HomeUnavailable(t *testing.T) {
	engine := NewPricingEngine(15)
	svc := testService("80", "100", false, 45)
	services := map[string]*providermodel.ProviderService{svc.ID.String(): svc}

	_, err := engine.PriceLines(
		[]model.BookingItemRequest{{ServiceID: svc.ID, Quantity: 1}},
		services, model.LocationHome,
	)
	assert.ErrorIs(t, err, model.ErrServiceUnavailableAtLocation)
}

func TestPriceLines_EmptyItems(t *testing.T) {
	engine := NewPricingEngine(15)

	_, err := engine.PriceLines(nil, nil, model.LocationSalon)
	assert.ErrorIs(t, err, model.ErrEmptyItems)
}

func TestPriceLines_UnknownService(t *testing.T) {
	engine := NewPricingEngine(15)

	_, err := engine.PriceLines(
		[]model.BookingItemRequest{{ServiceID: uuid.New(), Quantity: 1}},
		map[string]*providermodel.ProviderService{}, model.LocationSalon,
	)
	assert.ErrorIs(t, err, model.ErrProviderMismatch)
}

func TestPriceLines_InvalidLocation(t *testing.T) {
	engine := NewPricingEngine(15)
	svc := testService("80", "100", true, 45)

	_, err := engine.PriceLines(
		[]model.BookingItemRequest{{ServiceID: svc.ID, Quantity: 1}},
		map[string]*providermodel.ProviderService{svc.ID.String(): svc},
		model.ServiceLocation("office"),
	)
	assert.ErrorIs(t, err, model.ErrInvalidLocation)
}

func TestComputeTotals_WithDiscount(t *testing.T) {
	engine := NewPricingEngine(15)

	// subtotal 200, discount 15: tax = 185 * 15% = 27.75, total = 212.75
	totals := engine.ComputeTotals(dec("200"), dec("15"), dec("20"))

	assert.True(t, totals.TaxAmount.Equal(dec("27.75")), "tax %s", totals.TaxAmount)
	assert.True(t, totals.TotalAmount.Equal(dec("212.75")), "total %s", totals.TotalAmount)
	assert.True(t, totals.CommissionAmount.Equal(dec("37")), "commission %s", totals.CommissionAmount)
}

func TestComputeTotals_NoDiscount(t *testing.T) {
	engine := NewPricingEngine(15)

	totals := engine.ComputeTotals(dec("100"), decimal.Zero, dec("10"))

	assert.True(t, totals.TaxAmount.Equal(dec("15")))
	assert.True(t, totals.TotalAmount.Equal(dec("115")))
	assert.True(t, totals.CommissionAmount.Equal(dec("10")))
}

func TestComputeTotals_Rounding(t *testing.T) {
	engine := NewPricingEngine(15)

	// 33.33 * 15% = 4.9995, rounds to 5.00
	totals := engine.ComputeTotals(dec("33.33"), decimal.Zero, dec("12.5"))

	assert.True(t, totals.TaxAmount.Equal(dec("5")), "tax %s", totals.TaxAmount)
	assert.True(t, totals.TotalAmount.Equal(dec("38.33")), "total %s", totals.TotalAmount)
	// 33.33 * 12.5% = 4.16625, rounds to 4.17
	assert.True(t, totals.CommissionAmount.Equal(dec("4.17")), "commission %s", totals.CommissionAmount)
}
