package service

import (
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/booking/model"
	providermodel "beautybook-backend/internal/domains/provider/model"
)

// PricingEngine computes line prices and booking totals. Pure; the VAT rate
// is injected as a configuration snapshot so tests can fix it.
type PricingEngine struct {
	vatRatePercent decimal.Decimal
}

func NewPricingEngine(vatRatePercent int) *PricingEngine {
	return &PricingEngine{vatRatePercent: decimal.NewFromInt(int64(vatRatePercent))}
}

// PricingResult is the output of pricing a set of lines.
type PricingResult struct {
	Lines                []model.BookingLineItem
	Subtotal             decimal.Decimal
	TotalDurationMinutes int
}

// Totals is the money breakdown after an optional discount.
type Totals struct {
	TaxAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
}

// PriceLines selects the unit price per line by location and sums totals.
// A home-location line is rejected when the service does not support home
// delivery.
func (e *PricingEngine) PriceLines(
	items []model.BookingItemRequest,
	services map[string]*providermodel.ProviderService,
	location model.ServiceLocation,
) (*PricingResult, error) {
	if len(items) == 0 {
		return nil, model.ErrEmptyItems
	}
	if !location.IsValid() {
		return nil, model.ErrInvalidLocation
	}

	result := &PricingResult{Subtotal: decimal.Zero}

	for _, item := range items {
		svc, ok := services[item.ServiceID.String()]
		if !ok {
			return nil, model.ErrProviderMismatch
		}

		unitPrice := svc.SalonPrice
		if location == model.LocationHome {
			if !svc.HomeAvailable {
				return nil, model.NewBookingError(model.ErrCodeServiceUnavailable,
					"service "+svc.Name+" is not available at home",
					model.ErrServiceUnavailableAtLocation)
			}
			unitPrice = svc.HomePrice
		}

		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))

		result.Lines = append(result.Lines, model.BookingLineItem{
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			Location:        location,
			UnitPrice:       unitPrice,
			Quantity:        item.Quantity,
			LineTotal:       lineTotal,
			DurationMinutes: svc.DurationMinutes,
		})

		result.Subtotal = result.Subtotal.Add(lineTotal)
		result.TotalDurationMinutes += svc.DurationMinutes * item.Quantity
	}

	return result, nil
}

// ComputeTotals derives tax, total and commission from the post-discount
// amount. Invariant: total = (subtotal - discount) + tax.
func (e *PricingEngine) ComputeTotals(subtotal, discount, commissionRate decimal.Decimal) Totals {
	base := subtotal.Sub(discount)
	tax := base.Mul(e.vatRatePercent).Div(decimal.NewFromInt(100)).Round(2)
	commission := base.Mul(commissionRate).Div(decimal.NewFromInt(100)).Round(2)

	return Totals{
		TaxAmount:        tax,
		TotalAmount:      base.Add(tax),
		CommissionAmount: commission,
	}
}
