package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/config"
	bookingmodel "beautybook-backend/internal/domains/booking/model"
	bookingservice "beautybook-backend/internal/domains/booking/service"
	notifmodel "beautybook-backend/internal/domains/notification/model"
	notifservice "beautybook-backend/internal/domains/notification/service"
	"beautybook-backend/internal/domains/payment/gateway"
	"beautybook-backend/internal/domains/payment/model"
	"beautybook-backend/internal/domains/payment/repository"
	walletmodel "beautybook-backend/internal/domains/wallet/model"
	walletservice "beautybook-backend/internal/domains/wallet/service"
	"beautybook-backend/pkg/clock"
	"beautybook-backend/pkg/logger"
)

// PaymentService executes payments and reconciles asynchronous gateway
// callbacks. Reconciliation is idempotent by gateway_transaction_id:
// replays of a terminal payment return the recorded outcome untouched.
type PaymentService interface {
	InitiatePayment(ctx context.Context, req *model.InitiatePaymentRequest) (*model.InitiatePaymentResponse, error)
	PayWithWallet(ctx context.Context, req *model.PayWithWalletRequest) (*model.PaymentResponse, error)

	// ProcessWebhook verifies the signature over the raw body before any
	// lookup, then settles the referenced payment exactly once.
	ProcessWebhook(ctx context.Context, signature string, body []byte) (*model.ReconcileOutcome, error)

	// RefundGatewayPayment pushes a refund for a settled gateway payment
	// back through the provider. Used when a paid booking is cancelled.
	RefundGatewayPayment(ctx context.Context, bookingID uuid.UUID, amount decimal.Decimal, reason string) (*model.PaymentResponse, error)

	ListBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]model.Payment, error)
}

type paymentService struct {
	repo     repository.PaymentRepository
	webhooks repository.WebhookLogRepository
	bookings bookingservice.BookingService
	wallet   walletservice.WalletService
	notifier notifservice.Sink
	gateway  gateway.Gateway
	clock    clock.Clock
	cfg      config.GatewayConfig
}

func NewPaymentService(
	repo repository.PaymentRepository,
	webhooks repository.WebhookLogRepository,
	bookings bookingservice.BookingService,
	wallet walletservice.WalletService,
	notifier notifservice.Sink,
	gw gateway.Gateway,
	clk clock.Clock,
	cfg config.GatewayConfig,
) PaymentService {
	return &paymentService{
		repo:     repo,
		webhooks: webhooks,
		bookings: bookings,
		wallet:   wallet,
		notifier: notifier,
		gateway:  gw,
		clock:    clk,
		cfg:      cfg,
	}
}

// =====================================================
// INITIATE (gateway)
// =====================================================

func (s *paymentService) InitiatePayment(ctx context.Context, req *model.InitiatePaymentRequest) (*model.InitiatePaymentResponse, error) {
	booking, err := s.payableBooking(ctx, req.BookingID, req.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPendingByBookingID(ctx, req.BookingID); err == nil {
		return nil, model.NewPaymentError(model.ErrCodePaymentPending,
			"booking already has a payment in progress", model.ErrPaymentPending)
	} else if !errors.Is(err, model.ErrPaymentNotFound) {
		return nil, err
	}

	paymentID := uuid.New()

	// The gateway call happens before anything is persisted: a transport
	// failure leaves no orphaned pending payment behind.
	result, err := s.gateway.InitiatePayment(ctx, gateway.InitiateRequest{
		Reference: paymentID.String(),
		Amount:    booking.TotalAmount,
		Currency:  model.DefaultCurrency,
		OrderInfo: "Booking " + booking.BookingNumber,
		ReturnURL: s.cfg.ReturnURL,
	})
	if err != nil {
		return nil, model.NewPaymentError(model.ErrCodeGatewayUnavailable,
			"could not reach the payment gateway", err)
	}

	payment := &model.Payment{
		ID:                   paymentID,
		BookingID:            req.BookingID,
		Method:               model.MethodGateway,
		GatewayTransactionID: &result.TransactionID,
		Amount:               booking.TotalAmount,
		Currency:             model.DefaultCurrency,
		Status:               model.PaymentStatePending,
		RefundAmount:         decimal.Zero,
		InitiatedAt:          s.clock.Now(),
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	logger.Info("payment initiated", map[string]interface{}{
		"payment_id":     payment.ID.String(),
		"booking_id":     req.BookingID.String(),
		"transaction_id": result.TransactionID,
	})

	return &model.InitiatePaymentResponse{
		PaymentID:            payment.ID,
		GatewayTransactionID: result.TransactionID,
		RedirectURL:          result.RedirectURL,
	}, nil
}

// =====================================================
// WALLET PAYMENT
// =====================================================

func (s *paymentService) PayWithWallet(ctx context.Context, req *model.PayWithWalletRequest) (*model.PaymentResponse, error) {
	booking, err := s.payableBooking(ctx, req.BookingID, req.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := &model.Payment{
		ID:           uuid.New(),
		BookingID:    req.BookingID,
		Method:       model.MethodWallet,
		Amount:       booking.TotalAmount,
		Currency:     model.DefaultCurrency,
		Status:       model.PaymentStateCompleted,
		RefundAmount: decimal.Zero,
		InitiatedAt:  now,
		CompletedAt:  &now,
	}

	// Debit, payment row and booking settlement commit together; an
	// insufficient balance rolls all of it back.
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	err = func() error {
		if _, err := s.wallet.DebitWithTx(ctx, tx, req.UserID, booking.TotalAmount,
			walletmodel.TransactionTypePayment,
			"Payment for booking "+booking.BookingNumber, &req.BookingID); err != nil {
			return err
		}
		if err := s.repo.CreatePaymentWithTx(ctx, tx, payment); err != nil {
			return err
		}
		return s.bookings.SettlePaymentWithTx(ctx, tx, req.BookingID, true, now)
	}()
	if err != nil {
		s.repo.RollbackTx(ctx, tx)
		return nil, err
	}
	if err := s.repo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	s.notifier.ClearPaymentPending(ctx, req.BookingID)
	s.notifier.SendForBooking(ctx, req.UserID, req.BookingID, notifmodel.KindPaymentReceived,
		"Payment received", "Booking "+booking.BookingNumber+" was paid from your wallet")

	return payment.ToResponse(), nil
}

// =====================================================
// WEBHOOK RECONCILIATION
// =====================================================

func (s *paymentService) ProcessWebhook(ctx context.Context, signature string, body []byte) (*model.ReconcileOutcome, error) {
	log := &model.PaymentWebhookLog{
		ID:         uuid.New(),
		Body:       model.RawBody(body),
		ReceivedAt: s.clock.Now(),
	}
	if signature != "" {
		log.Signature = &signature
	}

	// Signature first, before any payment lookup.
	if s.cfg.SkipSignatureCheck {
		logger.Warn("webhook signature verification skipped", map[string]interface{}{
			"webhook_id": log.ID.String(),
		})
	} else if !s.gateway.VerifySignature(signature, body) {
		log.MarkInvalid("signature mismatch")
		s.auditLog(ctx, log)
		return nil, model.NewPaymentError(model.ErrCodeInvalidSignature,
			"webhook signature verification failed", model.ErrInvalidSignature)
	} else {
		valid := true
		log.SignatureValid = &valid
	}

	payload, err := model.ParseWebhookPayload(body)
	if err != nil {
		log.MarkError(err)
		s.auditLog(ctx, log)
		return nil, model.NewPaymentError(model.ErrCodeMalformedWebhook,
			"webhook payload could not be parsed", err)
	}

	payment, err := s.repo.GetByGatewayTransactionID(ctx, payload.TransactionID)
	if err != nil {
		log.MarkError(err)
		s.auditLog(ctx, log)
		if errors.Is(err, model.ErrPaymentNotFound) {
			return nil, model.NewPaymentError(model.ErrCodePaymentNotFound,
				"no payment for transaction "+payload.TransactionID, model.ErrPaymentNotFound)
		}
		return nil, err
	}
	log.PaymentID = &payment.ID

	// Idempotency: a terminal payment replays its recorded outcome.
	if payment.Status.IsTerminal() {
		log.MarkProcessed()
		s.auditLog(ctx, log)
		return &model.ReconcileOutcome{
			PaymentID: payment.ID,
			BookingID: payment.BookingID,
			Status:    payment.Status,
			Replayed:  true,
		}, nil
	}

	paid := payload.Status == model.WebhookStatusPaid
	status := model.PaymentStateCompleted
	var failureReason *string
	if !paid {
		status = model.PaymentStateFailed
		reason := "gateway reported status " + payload.Status
		failureReason = &reason
	}

	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SettleWithTx(ctx, tx, payment.ID, status, failureReason, now); err != nil {
		s.repo.RollbackTx(ctx, tx)
		log.MarkError(err)
		s.auditLog(ctx, log)
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	if err := s.bookings.SettlePaymentWithTx(ctx, tx, payment.BookingID, paid, now); err != nil {
		s.repo.RollbackTx(ctx, tx)
		if errors.Is(err, bookingmodel.ErrInvalidStateTransition) {
			return s.settleLostRace(ctx, payment, log, err)
		}
		log.MarkError(err)
		s.auditLog(ctx, log)
		return nil, err
	}
	if err := s.repo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	log.MarkProcessed()
	s.auditLog(ctx, log)

	logger.Info("payment reconciled", map[string]interface{}{
		"payment_id": payment.ID.String(),
		"booking_id": payment.BookingID.String(),
		"status":     status.String(),
	})

	s.notifyOutcome(ctx, payment, paid)

	return &model.ReconcileOutcome{
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		Status:    status,
	}, nil
}

// settleLostRace records the payment as failed when the booking was
// cancelled before the callback landed (the sweep or a client
// cancellation won). The payment reaches a terminal state so the
// gateway's replays get the recorded outcome instead of redelivering.
func (s *paymentService) settleLostRace(ctx context.Context, payment *model.Payment, log *model.PaymentWebhookLog, cause error) (*model.ReconcileOutcome, error) {
	reason := "booking no longer awaiting payment: " + cause.Error()
	now := s.clock.Now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SettleWithTx(ctx, tx, payment.ID, model.PaymentStateFailed, &reason, now); err != nil {
		s.repo.RollbackTx(ctx, tx)
		log.MarkError(err)
		s.auditLog(ctx, log)
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	if err := s.repo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	log.MarkProcessed()
	s.auditLog(ctx, log)

	logger.Warn("payment callback lost the race to a cancellation", map[string]interface{}{
		"payment_id": payment.ID.String(),
		"booking_id": payment.BookingID.String(),
	})

	return &model.ReconcileOutcome{
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		Status:    model.PaymentStateFailed,
	}, nil
}

// =====================================================
// REFUND
// =====================================================

func (s *paymentService) RefundGatewayPayment(ctx context.Context, bookingID uuid.UUID, amount decimal.Decimal, reason string) (*model.PaymentResponse, error) {
	payments, err := s.repo.ListPaymentsByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var settled *model.Payment
	for i := range payments {
		if payments[i].Method == model.MethodGateway && payments[i].CanBeRefunded() {
			settled = &payments[i]
			break
		}
	}
	if settled == nil {
		return nil, model.NewPaymentError(model.ErrCodeRefundNotAllowed,
			"no refundable gateway payment for this booking", model.ErrRefundNotAllowed)
	}
	if amount.GreaterThan(settled.Amount) {
		return nil, model.NewPaymentError(model.ErrCodeRefundNotAllowed,
			"refund exceeds the settled amount", model.ErrRefundNotAllowed)
	}

	result, err := s.gateway.Refund(ctx, gateway.RefundRequest{
		TransactionID: *settled.GatewayTransactionID,
		Amount:        amount,
		Comment:       reason,
	})
	if err != nil {
		return nil, model.NewPaymentError(model.ErrCodeGatewayUnavailable,
			"could not reach the payment gateway", err)
	}
	if !result.Accepted {
		return nil, model.NewPaymentError(model.ErrCodeRefundNotAllowed,
			"gateway rejected the refund: "+result.Message, model.ErrRefundNotAllowed)
	}

	now := s.clock.Now()
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRefundedWithTx(ctx, tx, settled.ID, amount, now); err != nil {
		s.repo.RollbackTx(ctx, tx)
		return nil, err
	}
	if err := s.repo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	settled.Status = model.PaymentStateRefunded
	settled.RefundAmount = amount
	settled.RefundedAt = &now

	logger.Info("gateway refund accepted", map[string]interface{}{
		"payment_id": settled.ID.String(),
		"booking_id": bookingID.String(),
		"amount":     amount.String(),
		"refund_id":  result.RefundID,
	})

	return settled.ToResponse(), nil
}

func (s *paymentService) ListBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]model.Payment, error) {
	return s.repo.ListPaymentsByBookingID(ctx, bookingID)
}

// =====================================================
// HELPERS
// =====================================================

// payableBooking loads the booking as its owning client and checks it is
// confirmed and still unpaid. A failed earlier attempt does not block a
// retry; bookings accumulate failed attempts until the deadline.
func (s *paymentService) payableBooking(ctx context.Context, bookingID, userID uuid.UUID) (*bookingmodel.BookingResponse, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID,
		bookingmodel.Actor{UserID: userID, Role: "client"})
	if err != nil {
		return nil, err
	}

	awaitingPayment := booking.PaymentStatus == bookingmodel.PaymentStatusPending.String() ||
		booking.PaymentStatus == bookingmodel.PaymentStatusFailed.String()
	if booking.Status != bookingmodel.BookingStatusConfirmed.String() || !awaitingPayment {
		return nil, model.NewPaymentError(model.ErrCodeBookingNotPayable,
			fmt.Sprintf("booking is %s/%s, expected a confirmed booking awaiting payment", booking.Status, booking.PaymentStatus),
			model.ErrBookingNotPayable)
	}

	return booking, nil
}

func (s *paymentService) auditLog(ctx context.Context, log *model.PaymentWebhookLog) {
	if err := s.webhooks.CreateLog(ctx, log); err != nil {
		logger.Error("failed to record webhook audit log", err)
	}
}

func (s *paymentService) notifyOutcome(ctx context.Context, payment *model.Payment, paid bool) {
	booking, err := s.bookings.GetBooking(ctx, payment.BookingID,
		bookingmodel.Actor{Role: "admin"})
	if err != nil {
		logger.Error("failed to load booking for payment notification", err)
		return
	}

	if paid {
		s.notifier.ClearPaymentPending(ctx, payment.BookingID)
		s.notifier.SendForBooking(ctx, booking.ClientID, payment.BookingID, notifmodel.KindPaymentReceived,
			"Payment received", "Payment for booking "+booking.BookingNumber+" was confirmed")
		return
	}
	s.notifier.SendForBooking(ctx, booking.ClientID, payment.BookingID, notifmodel.KindPaymentFailed,
		"Payment failed", "Payment for booking "+booking.BookingNumber+" did not complete")
}
