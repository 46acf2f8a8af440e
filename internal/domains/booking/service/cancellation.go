package service

import (
	"time"

	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/booking/model"
	"beautybook-backend/pkg/clock"
)

// CancellationPolicy computes the tiered cancellation fee and refund.
// Pure apart from the injected clock.
type CancellationPolicy struct {
	clock clock.Clock
}

func NewCancellationPolicy(clk clock.Clock) *CancellationPolicy {
	return &CancellationPolicy{clock: clk}
}

// Quote computes fee and refund for cancelling a booking now.
//
// Unpaid bookings forfeit nothing. For paid bookings the fee is a step
// function of notice period: past appointment 100%, under 24h 50%,
// 24-48h 25%, over 48h 0%. refund = total - fee.
func (p *CancellationPolicy) Quote(paymentStatus model.PaymentStatus, totalAmount decimal.Decimal, appointmentAt time.Time) model.CancellationQuote {
	if paymentStatus != model.PaymentStatusPaid {
		return model.CancellationQuote{
			Fee:          decimal.Zero,
			RefundAmount: decimal.Zero,
			FeePercent:   0,
		}
	}

	hoursUntil := appointmentAt.Sub(p.clock.Now()).Hours()

	var feePercent int64
	switch {
	case hoursUntil < 0:
		feePercent = 100
	case hoursUntil < 24:
		feePercent = 50
	case hoursUntil <= 48:
		feePercent = 25
	default:
		feePercent = 0
	}

	fee := totalAmount.Mul(decimal.NewFromInt(feePercent)).Div(decimal.NewFromInt(100)).Round(2)

	return model.CancellationQuote{
		Fee:          fee,
		RefundAmount: totalAmount.Sub(fee),
		FeePercent:   feePercent,
	}
}
