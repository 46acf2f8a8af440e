package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/config"
	"beautybook-backend/internal/domains/booking/model"
	"beautybook-backend/internal/domains/booking/repository"
	notifmodel "beautybook-backend/internal/domains/notification/model"
	notifservice "beautybook-backend/internal/domains/notification/service"
	promomodel "beautybook-backend/internal/domains/promotion/model"
	promoservice "beautybook-backend/internal/domains/promotion/service"
	providermodel "beautybook-backend/internal/domains/provider/model"
	providerrepo "beautybook-backend/internal/domains/provider/repository"
	walletmodel "beautybook-backend/internal/domains/wallet/model"
	walletservice "beautybook-backend/internal/domains/wallet/service"
	"beautybook-backend/pkg/clock"
	"beautybook-backend/pkg/logger"
)

const sweepBatchSize = 100

// BookingService owns the booking lifecycle. Every transition runs
// read-guard-write inside one transaction with a version compare-and-swap,
// so two concurrent transitions on the same booking resolve to exactly one
// winner.
type BookingService interface {
	CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.BookingResponse, error)
	AcceptBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.Booking, error)
	RejectBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.Booking, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor, reason string) (*model.Booking, error)
	CompleteBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.Booking, error)
	QuoteCancellation(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.CancellationQuote, error)

	GetBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.BookingResponse, error)
	ListClientBookings(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error)
	ListProviderBookings(ctx context.Context, providerID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error)

	// SettlePaymentWithTx flips payment_status inside the caller's
	// transaction. Used by the payment reconciler and wallet payment.
	SettlePaymentWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, paid bool, paidAt time.Time) error

	// SweepExpired cancels confirmed, unpaid bookings past their payment
	// deadline. Returns how many were cancelled.
	SweepExpired(ctx context.Context) (int, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	providerRepo providerrepo.ProviderRepository
	promotions   promoservice.PromotionService
	wallet       walletservice.WalletService
	notifier     notifservice.Sink
	pricing      *PricingEngine
	policy       *CancellationPolicy
	clock        clock.Clock
	cfg          config.BookingConfig
}

func NewBookingService(
	repo repository.BookingRepository,
	providerRepo providerrepo.ProviderRepository,
	promotions promoservice.PromotionService,
	wallet walletservice.WalletService,
	notifier notifservice.Sink,
	clk clock.Clock,
	cfg config.BookingConfig,
) BookingService {
	return &bookingService{
		repo:         repo,
		providerRepo: providerRepo,
		promotions:   promotions,
		wallet:       wallet,
		notifier:     notifier,
		pricing:      NewPricingEngine(cfg.VATRatePercent),
		policy:       NewCancellationPolicy(clk),
		clock:        clk,
		cfg:          cfg,
	}
}

// =====================================================
// CREATE
// =====================================================

func (s *bookingService) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.BookingResponse, error) {
	now := s.clock.Now()
	if !req.AppointmentAt.After(now) {
		return nil, model.NewBookingError(model.ErrCodeAppointmentInPast,
			"appointment time must be in the future", model.ErrAppointmentInPast)
	}

	// Step 1: load provider and services
	provider, err := s.providerRepo.GetProviderByID(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.IsActive {
		return nil, model.NewBookingError(model.ErrCodeProviderInactive,
			"provider is not accepting bookings", model.ErrProviderInactive)
	}

	services, err := s.providerRepo.GetServicesByIDs(ctx, req.ServiceIDs())
	if err != nil {
		return nil, err
	}
	serviceMap := make(map[string]*providermodel.ProviderService, len(services))
	for i := range services {
		svc := &services[i]
		if svc.ProviderID != provider.ID || !svc.IsActive {
			return nil, model.NewBookingError(model.ErrCodeProviderMismatch,
				"service "+svc.Name+" does not belong to this provider", model.ErrProviderMismatch)
		}
		serviceMap[svc.ID.String()] = svc
	}
	if len(serviceMap) != len(req.ServiceIDs()) {
		return nil, model.NewBookingError(model.ErrCodeProviderMismatch,
			"one or more services were not found for this provider", model.ErrProviderMismatch)
	}

	// Step 2: price the lines
	location := model.ServiceLocation(req.Location)
	priced, err := s.pricing.PriceLines(req.Items, serviceMap, location)
	if err != nil {
		return nil, err
	}

	// Step 3: optional promo validation
	discount := decimal.Zero
	var promoID *uuid.UUID
	if req.PromoCode != nil {
		result, err := s.promotions.Validate(ctx, &promomodel.ValidatePromoRequest{
			Code:       *req.PromoCode,
			ProviderID: req.ProviderID,
			ServiceIDs: req.ServiceIDs(),
			Subtotal:   priced.Subtotal,
			UserID:     &req.ClientID,
		})
		if err != nil {
			return nil, err
		}
		discount = result.DiscountAmount
		promoID = &result.PromoCodeID
	}

	// Step 4: totals
	totals := s.pricing.ComputeTotals(priced.Subtotal, discount, provider.CommissionRate)

	booking := &model.Booking{
		ID:                   uuid.New(),
		BookingNumber:        model.GenerateBookingNumber(now),
		ClientID:             req.ClientID,
		ProviderID:           provider.ID,
		AppointmentAt:        req.AppointmentAt,
		Location:             location,
		Subtotal:             priced.Subtotal,
		DiscountAmount:       discount,
		TaxAmount:            totals.TaxAmount,
		TotalAmount:          totals.TotalAmount,
		CommissionAmount:     totals.CommissionAmount,
		CancellationFee:      decimal.Zero,
		TotalDurationMinutes: priced.TotalDurationMinutes,
		PromoCodeID:          promoID,
		Status:               model.BookingStatusPending,
		PaymentStatus:        model.PaymentStatusPending,
		ClientNote:           req.ClientNote,
	}

	// Step 5: one transaction for booking, items, promo usage and history.
	// Any failure rolls it all back; a promo is never debited for a
	// booking that was not created.
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.createBookingInTx(ctx, tx, booking, priced.Lines, promoID, discount); err != nil {
		s.repo.RollbackTx(ctx, tx)
		return nil, err
	}

	if err := s.repo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("booking created", map[string]interface{}{
		"booking_id":     booking.ID.String(),
		"booking_number": booking.BookingNumber,
		"total":          booking.TotalAmount.String(),
	})

	s.notifier.SendForBooking(ctx, provider.UserID, booking.ID, notifmodel.KindBookingCreated,
		"New booking request", "Booking "+booking.BookingNumber+" is waiting for your confirmation")

	items, err := s.repo.GetLineItemsByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	return booking.ToResponse(items), nil
}

func (s *bookingService) createBookingInTx(ctx context.Context, tx pgx.Tx, booking *model.Booking, lines []model.BookingLineItem, promoID *uuid.UUID, discount decimal.Decimal) error {
	if err := s.repo.CreateBookingWithTx(ctx, tx, booking); err != nil {
		return err
	}

	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].BookingID = booking.ID
	}
	if err := s.repo.CreateLineItemsWithTx(ctx, tx, lines); err != nil {
		return err
	}

	if promoID != nil {
		if err := s.promotions.ApplyWithTx(ctx, tx, *promoID, booking.ClientID, booking.ID, discount); err != nil {
			return err
		}
	}

	return s.recordHistory(ctx, tx, booking.ID, nil, model.BookingStatusPending, &booking.ClientID, nil)
}

// =====================================================
// PROVIDER TRANSITIONS
// =====================================================

func (s *bookingService) AcceptBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeProvider(ctx, booking, actor); err != nil {
		return nil, err
	}
	if err := guardTransition(booking, model.BookingStatusConfirmed); err != nil {
		return nil, err
	}

	// The timeout is read once here and stored on the booking; a config
	// change later never moves a deadline that is already running.
	now := s.clock.Now()
	deadline := now.Add(time.Duration(s.cfg.PaymentTimeoutMinutes) * time.Minute)

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.AcceptWithTx(ctx, tx, booking.ID, now, deadline, booking.Version); err != nil {
			return mapVersionMismatch(err)
		}
		return s.recordHistory(ctx, tx, booking.ID, &booking.Status, model.BookingStatusConfirmed, &actor.UserID, nil)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = model.BookingStatusConfirmed
	booking.ConfirmedAt = &now
	booking.PaymentDeadline = &deadline
	booking.Version++

	s.notifier.SendForBooking(ctx, booking.ClientID, booking.ID, notifmodel.KindBookingConfirmed,
		"Booking confirmed", "Booking "+booking.BookingNumber+" was confirmed, please complete the payment")
	s.notifier.SendForBooking(ctx, booking.ClientID, booking.ID, notifmodel.KindPaymentPending,
		"Payment required", fmt.Sprintf("Payment for booking %s is due by %s",
			booking.BookingNumber, deadline.Format(time.RFC3339)))

	return booking, nil
}

func (s *bookingService) RejectBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeProvider(ctx, booking, actor); err != nil {
		return nil, err
	}
	if err := guardTransition(booking, model.BookingStatusRejected); err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.RejectWithTx(ctx, tx, booking.ID, booking.Version); err != nil {
			return mapVersionMismatch(err)
		}
		return s.recordHistory(ctx, tx, booking.ID, &booking.Status, model.BookingStatusRejected, &actor.UserID, nil)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = model.BookingStatusRejected
	booking.Version++

	s.notifier.SendForBooking(ctx, booking.ClientID, booking.ID, notifmodel.KindBookingRejected,
		"Booking rejected", "Booking "+booking.BookingNumber+" was rejected by the provider")

	return booking, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeProvider(ctx, booking, actor); err != nil {
		return nil, err
	}
	if err := guardTransition(booking, model.BookingStatusCompleted); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CompleteWithTx(ctx, tx, booking.ID, now, booking.Version); err != nil {
			return mapVersionMismatch(err)
		}
		return s.recordHistory(ctx, tx, booking.ID, &booking.Status, model.BookingStatusCompleted, &actor.UserID, nil)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = model.BookingStatusCompleted
	booking.PaymentStatus = model.PaymentStatusPaid
	booking.CompletedAt = &now
	booking.Version++

	s.notifier.SendForBooking(ctx, booking.ClientID, booking.ID, notifmodel.KindBookingCompleted,
		"Booking completed", "Booking "+booking.BookingNumber+" has been completed")

	return booking, nil
}

// =====================================================
// CANCELLATION
// =====================================================

func (s *bookingService) QuoteCancellation(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.CancellationQuote, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeCancel(ctx, booking, actor); err != nil {
		return nil, err
	}

	quote := s.policy.Quote(booking.PaymentStatus, booking.TotalAmount, booking.AppointmentAt)
	return &quote, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor, reason string) (*model.Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	cancelledBy, err := s.authorizeCancel(ctx, booking, actor)
	if err != nil {
		return nil, err
	}
	if err := guardTransition(booking, model.BookingStatusCancelled); err != nil {
		return nil, err
	}

	quote := s.policy.Quote(booking.PaymentStatus, booking.TotalAmount, booking.AppointmentAt)

	paymentStatus := booking.PaymentStatus
	if booking.PaymentStatus == model.PaymentStatusPaid {
		paymentStatus = model.PaymentStatusRefunded
	}

	now := s.clock.Now()
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CancelWithTx(ctx, tx, repository.CancelParams{
			BookingID:       booking.ID,
			CancelledBy:     cancelledBy,
			Reason:          reason,
			CancellationFee: quote.Fee,
			PaymentStatus:   paymentStatus,
			CancelledAt:     now,
			Version:         booking.Version,
		}); err != nil {
			return mapVersionMismatch(err)
		}

		// The refund credited here must match the quote exactly.
		if quote.RefundAmount.IsPositive() {
			if _, err := s.wallet.CreditWithTx(ctx, tx, booking.ClientID, quote.RefundAmount,
				walletmodel.TransactionTypeRefund,
				"Refund for cancelled booking "+booking.BookingNumber, &booking.ID); err != nil {
				return err
			}
		}

		return s.recordHistory(ctx, tx, booking.ID, &booking.Status, model.BookingStatusCancelled, &actor.UserID, &reason)
	})
	if err != nil {
		return nil, err
	}

	booking.Status = model.BookingStatusCancelled
	booking.PaymentStatus = paymentStatus
	booking.CancellationFee = quote.Fee
	booking.CancelledAt = &now
	booking.CancelledBy = &cancelledBy
	booking.CancellationReason = &reason
	booking.Version++

	logger.Info("booking cancelled", map[string]interface{}{
		"booking_id":   booking.ID.String(),
		"cancelled_by": cancelledBy.String(),
		"fee":          quote.Fee.String(),
		"refund":       quote.RefundAmount.String(),
	})

	if quote.RefundAmount.IsPositive() {
		s.notifier.SendForBooking(ctx, booking.ClientID, booking.ID, notifmodel.KindWalletRefund,
			"Refund issued", "A refund of "+quote.RefundAmount.String()+" was credited to your wallet")
	}
	s.notifier.SendForBooking(ctx, booking.ClientID, booking.ID, notifmodel.KindBookingCancelled,
		"Booking cancelled", "Booking "+booking.BookingNumber+" was cancelled")

	return booking, nil
}

// =====================================================
// PAYMENT SETTLEMENT
// =====================================================

func (s *bookingService) SettlePaymentWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, paid bool, paidAt time.Time) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}

	// Settlement only lands on a live confirmed booking. If the sweep or
	// a cancellation won the race, this transition is rejected.
	if booking.Status != model.BookingStatusConfirmed || booking.PaymentStatus == model.PaymentStatusPaid {
		return model.NewBookingError(model.ErrCodeInvalidStateTransition,
			fmt.Sprintf("cannot settle payment for booking in state %s/%s", booking.Status, booking.PaymentStatus),
			model.ErrInvalidStateTransition)
	}

	status := model.PaymentStatusPaid
	var at *time.Time
	if paid {
		at = &paidAt
	} else {
		status = model.PaymentStatusFailed
	}

	if err := s.repo.SetPaymentStatusWithTx(ctx, tx, booking.ID, status, at, booking.Version); err != nil {
		return mapVersionMismatch(err)
	}

	return nil
}

// =====================================================
// TIMEOUT SWEEP
// =====================================================

func (s *bookingService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.repo.ListExpiredUnpaid(ctx, now, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range expired {
		booking := &expired[i]
		if err := s.cancelBySystem(ctx, booking, now); err != nil {
			// a lost race means someone paid or cancelled first
			logger.Info("sweep skipped booking", map[string]interface{}{
				"booking_id": booking.ID.String(),
				"reason":     err.Error(),
			})
			continue
		}
		cancelled++
	}

	if cancelled > 0 {
		logger.Info("payment timeout sweep finished", map[string]interface{}{
			"expired":   len(expired),
			"cancelled": cancelled,
		})
	}

	return cancelled, nil
}

func (s *bookingService) cancelBySystem(ctx context.Context, booking *model.Booking, now time.Time) error {
	if err := guardTransition(booking, model.BookingStatusCancelled); err != nil {
		return err
	}

	reason := "Payment timeout"
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.repo.CancelWithTx(ctx, tx, repository.CancelParams{
			BookingID:       booking.ID,
			CancelledBy:     model.CancelledBySystem,
			Reason:          reason,
			CancellationFee: decimal.Zero,
			PaymentStatus:   booking.PaymentStatus,
			CancelledAt:     now,
			Version:         booking.Version,
		}); err != nil {
			return mapVersionMismatch(err)
		}
		return s.recordHistory(ctx, tx, booking.ID, &booking.Status, model.BookingStatusCancelled, nil, &reason)
	})
	if err != nil {
		return err
	}

	s.notifier.SendForBooking(ctx, booking.ClientID, booking.ID, notifmodel.KindBookingCancelled,
		"Booking cancelled", "Booking "+booking.BookingNumber+" was cancelled because payment was not received in time")

	return nil
}

// =====================================================
// READS
// =====================================================

func (s *bookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor model.Actor) (*model.BookingResponse, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && booking.ClientID != actor.UserID {
		if err := s.authorizeProvider(ctx, booking, actor); err != nil {
			return nil, err
		}
	}

	items, err := s.repo.GetLineItemsByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	return booking.ToResponse(items), nil
}

func (s *bookingService) ListClientBookings(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error) {
	page, limit = normalizePage(page, limit)
	return s.repo.ListBookingsByClientID(ctx, clientID, status, page, limit)
}

func (s *bookingService) ListProviderBookings(ctx context.Context, providerID uuid.UUID, status string, page, limit int) ([]model.Booking, int, error) {
	page, limit = normalizePage(page, limit)
	return s.repo.ListBookingsByProviderID(ctx, providerID, status, page, limit)
}

// =====================================================
// HELPERS
// =====================================================

func (s *bookingService) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		s.repo.RollbackTx(ctx, tx)
		return err
	}
	return s.repo.CommitTx(ctx, tx)
}

func (s *bookingService) recordHistory(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, from *model.BookingStatus, to model.BookingStatus, changedBy *uuid.UUID, notes *string) error {
	history := &model.BookingStatusHistory{
		ID:        uuid.New(),
		BookingID: bookingID,
		ToStatus:  to.String(),
		ChangedBy: changedBy,
		Notes:     notes,
	}
	if from != nil {
		f := from.String()
		history.FromStatus = &f
	}
	return s.repo.CreateStatusHistoryWithTx(ctx, tx, history)
}

// authorizeProvider checks the actor is the provider who owns the booking
// (or an admin).
func (s *bookingService) authorizeProvider(ctx context.Context, booking *model.Booking, actor model.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	provider, err := s.providerRepo.GetProviderByID(ctx, booking.ProviderID)
	if err != nil {
		return err
	}
	if provider.UserID != actor.UserID {
		return model.NewBookingError(model.ErrCodeUnauthorized,
			"you are not the provider for this booking", model.ErrUnauthorized)
	}
	return nil
}

// authorizeCancel resolves who is cancelling: the owning client, the owning
// provider, or an admin.
func (s *bookingService) authorizeCancel(ctx context.Context, booking *model.Booking, actor model.Actor) (model.CancelledBy, error) {
	if actor.IsAdmin() {
		return model.CancelledByAdmin, nil
	}
	if booking.ClientID == actor.UserID {
		return model.CancelledByClient, nil
	}
	if err := s.authorizeProvider(ctx, booking, actor); err == nil {
		return model.CancelledByProvider, nil
	}
	return "", model.NewBookingError(model.ErrCodeUnauthorized,
		"you are not allowed to cancel this booking", model.ErrUnauthorized)
}

func guardTransition(booking *model.Booking, target model.BookingStatus) error {
	if !booking.Status.CanTransitionTo(target) {
		return model.NewBookingError(model.ErrCodeInvalidStateTransition,
			fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, target),
			model.ErrInvalidStateTransition)
	}
	return nil
}

// mapVersionMismatch turns a lost compare-and-swap into the transition
// error callers are specified to see.
func mapVersionMismatch(err error) error {
	if err == model.ErrVersionMismatch {
		return model.NewBookingError(model.ErrCodeInvalidStateTransition,
			"booking was modified concurrently", model.ErrInvalidStateTransition)
	}
	return err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
