package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook-backend/internal/config"
	bookingmodel "beautybook-backend/internal/domains/booking/model"
	notifmodel "beautybook-backend/internal/domains/notification/model"
	"beautybook-backend/internal/domains/payment/gateway"
	"beautybook-backend/internal/domains/payment/gateway/beautypay"
	"beautybook-backend/internal/domains/payment/model"
	walletmodel "beautybook-backend/internal/domains/wallet/model"
	"beautybook-backend/pkg/clock"
)

const webhookSecret = "test-webhook-secret"

// =====================================================
// FAKES
// =====================================================

// fakePaymentRepo stages WithTx mutations and applies them on commit,
// so rollback behavior is observable in tests.
type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  map[uuid.UUID]*model.Payment
	staged    []func()
	commits   int
	rollbacks int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uuid.UUID]*model.Payment{}}
}

func (r *fakePaymentRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }

func (r *fakePaymentRepo) CommitTx(ctx context.Context, tx pgx.Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, apply := range r.staged {
		apply()
	}
	r.staged = nil
	r.commits++
	return nil
}

func (r *fakePaymentRepo) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staged = nil
	r.rollbacks++
	return nil
}

func (r *fakePaymentRepo) CreatePayment(ctx context.Context, payment *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) CreatePaymentWithTx(ctx context.Context, tx pgx.Tx, payment *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *payment
	r.staged = append(r.staged, func() {
		r.payments[cp.ID] = &cp
	})
	return nil
}

func (r *fakePaymentRepo) GetPaymentByID(ctx context.Context, paymentID uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, model.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) GetByGatewayTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.GatewayTransactionID != nil && *p.GatewayTransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, model.ErrPaymentNotFound
}

func (r *fakePaymentRepo) GetPendingByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.BookingID == bookingID && p.Status == model.PaymentStatePending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, model.ErrPaymentNotFound
}

func (r *fakePaymentRepo) ListPaymentsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Payment
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SettleWithTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, status model.PaymentState, failureReason *string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok || p.Status != model.PaymentStatePending {
		return model.ErrPaymentNotFound
	}
	r.staged = append(r.staged, func() {
		p.Status = status
		p.FailureReason = failureReason
		if status == model.PaymentStateCompleted {
			p.CompletedAt = &at
		} else {
			p.FailedAt = &at
		}
	})
	return nil
}

func (r *fakePaymentRepo) MarkRefundedWithTx(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok || p.Status != model.PaymentStateCompleted {
		return model.ErrRefundNotAllowed
	}
	r.staged = append(r.staged, func() {
		p.Status = model.PaymentStateRefunded
		p.RefundAmount = amount
		p.RefundedAt = &at
	})
	return nil
}

type fakeWebhookLogRepo struct {
	mu   sync.Mutex
	logs []*model.PaymentWebhookLog
}

func (r *fakeWebhookLogRepo) CreateLog(ctx context.Context, log *model.PaymentWebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *fakeWebhookLogRepo) UpdateLog(ctx context.Context, log *model.PaymentWebhookLog) error {
	return nil
}

func (r *fakeWebhookLogRepo) last(t *testing.T) *model.PaymentWebhookLog {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.logs)
	return r.logs[len(r.logs)-1]
}

type fakeGateway struct {
	secret      string
	initiateErr error
	refundErr   error
	rejectMsg   string
	refunds     []gateway.RefundRequest
}

func (g *fakeGateway) InitiatePayment(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	return &gateway.InitiateResult{
		TransactionID: "BP-" + req.Reference,
		RedirectURL:   "https://pay.example.com/checkout/" + req.Reference,
	}, nil
}

func (g *fakeGateway) GetPaymentStatus(ctx context.Context, transactionID string) (*gateway.StatusResult, error) {
	return &gateway.StatusResult{TransactionID: transactionID, Status: "paid"}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, req)
	if g.rejectMsg != "" {
		return &gateway.RefundResult{Accepted: false, Message: g.rejectMsg}, nil
	}
	return &gateway.RefundResult{RefundID: "RF-1", Accepted: true}, nil
}

func (g *fakeGateway) VerifySignature(signature string, body []byte) bool {
	return beautypay.Verify(signature, body, g.secret)
}

type settleCall struct {
	bookingID uuid.UUID
	paid      bool
}

type fakeBookingService struct {
	booking   *bookingmodel.BookingResponse
	settleErr error
	settles   []settleCall
}

func (b *fakeBookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor bookingmodel.Actor) (*bookingmodel.BookingResponse, error) {
	if b.booking == nil || b.booking.ID != bookingID {
		return nil, bookingmodel.ErrBookingNotFound
	}
	cp := *b.booking
	return &cp, nil
}

func (b *fakeBookingService) SettlePaymentWithTx(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, paid bool, paidAt time.Time) error {
	if b.settleErr != nil {
		return b.settleErr
	}
	b.settles = append(b.settles, settleCall{bookingID: bookingID, paid: paid})
	return nil
}

func (b *fakeBookingService) CreateBooking(ctx context.Context, req *bookingmodel.CreateBookingRequest) (*bookingmodel.BookingResponse, error) {
	panic("not used")
}
func (b *fakeBookingService) AcceptBooking(ctx context.Context, bookingID uuid.UUID, actor bookingmodel.Actor) (*bookingmodel.Booking, error) {
	panic("not used")
}
func (b *fakeBookingService) RejectBooking(ctx context.Context, bookingID uuid.UUID, actor bookingmodel.Actor) (*bookingmodel.Booking, error) {
	panic("not used")
}
func (b *fakeBookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor bookingmodel.Actor, reason string) (*bookingmodel.Booking, error) {
	panic("not used")
}
func (b *fakeBookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID, actor bookingmodel.Actor) (*bookingmodel.Booking, error) {
	panic("not used")
}
func (b *fakeBookingService) QuoteCancellation(ctx context.Context, bookingID uuid.UUID, actor bookingmodel.Actor) (*bookingmodel.CancellationQuote, error) {
	panic("not used")
}
func (b *fakeBookingService) ListClientBookings(ctx context.Context, clientID uuid.UUID, status string, page, limit int) ([]bookingmodel.Booking, int, error) {
	panic("not used")
}
func (b *fakeBookingService) ListProviderBookings(ctx context.Context, providerID uuid.UUID, status string, page, limit int) ([]bookingmodel.Booking, int, error) {
	panic("not used")
}
func (b *fakeBookingService) SweepExpired(ctx context.Context) (int, error) {
	panic("not used")
}

type debitCall struct {
	userID uuid.UUID
	amount decimal.Decimal
	txType walletmodel.TransactionType
}

type fakeWalletService struct {
	debitErr error
	debits   []debitCall
}

func (w *fakeWalletService) DebitWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, txType walletmodel.TransactionType, reason string, bookingID *uuid.UUID) (*walletmodel.WalletTransaction, error) {
	if w.debitErr != nil {
		return nil, w.debitErr
	}
	w.debits = append(w.debits, debitCall{userID: userID, amount: amount, txType: txType})
	return &walletmodel.WalletTransaction{ID: uuid.New(), UserID: userID, Amount: amount, Type: txType}, nil
}

func (w *fakeWalletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType walletmodel.TransactionType, reason string, bookingID *uuid.UUID) (*walletmodel.WalletTransaction, error) {
	panic("not used")
}
func (w *fakeWalletService) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType walletmodel.TransactionType, reason string, bookingID *uuid.UUID) (*walletmodel.WalletTransaction, error) {
	panic("not used")
}
func (w *fakeWalletService) CreditWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, txType walletmodel.TransactionType, reason string, bookingID *uuid.UUID) (*walletmodel.WalletTransaction, error) {
	panic("not used")
}
func (w *fakeWalletService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	panic("not used")
}
func (w *fakeWalletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, limit int) ([]walletmodel.WalletTransaction, int, error) {
	panic("not used")
}

type fakePaymentSink struct {
	kinds   []notifmodel.NotificationKind
	cleared []uuid.UUID
}

func (s *fakePaymentSink) Send(ctx context.Context, userID uuid.UUID, kind notifmodel.NotificationKind, title, body string, metadata notifmodel.Metadata) {
	s.kinds = append(s.kinds, kind)
}

func (s *fakePaymentSink) SendForBooking(ctx context.Context, userID, bookingID uuid.UUID, kind notifmodel.NotificationKind, title, body string) {
	s.kinds = append(s.kinds, kind)
}

func (s *fakePaymentSink) ClearPaymentPending(ctx context.Context, bookingID uuid.UUID) {
	s.cleared = append(s.cleared, bookingID)
}

// =====================================================
// FIXTURE
// =====================================================

type paymentFixture struct {
	repo     *fakePaymentRepo
	webhooks *fakeWebhookLogRepo
	gw       *fakeGateway
	bookings *fakeBookingService
	wallet   *fakeWalletService
	sink     *fakePaymentSink
	clk      *clock.MockClock
	svc      PaymentService

	clientID  uuid.UUID
	bookingID uuid.UUID
}

func newPaymentFixture(t *testing.T, opts ...func(*config.GatewayConfig)) *paymentFixture {
	t.Helper()

	cfg := config.GatewayConfig{
		MerchantID:    "merchant-1",
		WebhookSecret: webhookSecret,
		ReturnURL:     "https://app.example.com/payments/return",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &paymentFixture{
		repo:      newFakePaymentRepo(),
		webhooks:  &fakeWebhookLogRepo{},
		gw:        &fakeGateway{secret: webhookSecret},
		wallet:    &fakeWalletService{},
		sink:      &fakePaymentSink{},
		clk:       clock.NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
		clientID:  uuid.New(),
		bookingID: uuid.New(),
	}
	f.bookings = &fakeBookingService{
		booking: &bookingmodel.BookingResponse{
			ID:            f.bookingID,
			BookingNumber: "BK-20250601-0001",
			ClientID:      f.clientID,
			TotalAmount:   decimal.RequireFromString("212.75"),
			Status:        bookingmodel.BookingStatusConfirmed.String(),
			PaymentStatus: bookingmodel.PaymentStatusPending.String(),
		},
	}
	f.svc = NewPaymentService(f.repo, f.webhooks, f.bookings, f.wallet, f.sink, f.gw, f.clk, cfg)
	return f
}

func (f *paymentFixture) initiate(t *testing.T) *model.InitiatePaymentResponse {
	t.Helper()
	resp, err := f.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})
	require.NoError(t, err)
	return resp
}

func signedBody(transactionID, status string) (string, []byte) {
	body := []byte(fmt.Sprintf(`{"transaction_id":%q,"status":%q,"amount":"212.75"}`, transactionID, status))
	return beautypay.Sign(body, webhookSecret), body
}

func requirePaymentCode(t *testing.T, err error, code string) {
	t.Helper()
	var paymentErr *model.PaymentError
	require.ErrorAs(t, err, &paymentErr)
	assert.Equal(t, code, paymentErr.Code)
}

// =====================================================
// INITIATE
// =====================================================

func TestInitiatePayment_CreatesPendingPayment(t *testing.T) {
	f := newPaymentFixture(t)

	resp := f.initiate(t)

	assert.Equal(t, "BP-"+resp.PaymentID.String(), resp.GatewayTransactionID)
	assert.Contains(t, resp.RedirectURL, "checkout")

	stored, err := f.repo.GetPaymentByID(context.Background(), resp.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatePending, stored.Status)
	assert.Equal(t, model.MethodGateway, stored.Method)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("212.75")))
	require.NotNil(t, stored.GatewayTransactionID)
	assert.Equal(t, resp.GatewayTransactionID, *stored.GatewayTransactionID)
}

func TestInitiatePayment_GatewayFailureLeavesNothingBehind(t *testing.T) {
	f := newPaymentFixture(t)
	f.gw.initiateErr = errors.New("connection refused")

	_, err := f.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})

	requirePaymentCode(t, err, model.ErrCodeGatewayUnavailable)
	assert.Empty(t, f.repo.payments)
}

func TestInitiatePayment_RejectsSecondPendingPayment(t *testing.T) {
	f := newPaymentFixture(t)
	f.initiate(t)

	_, err := f.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})

	requirePaymentCode(t, err, model.ErrCodePaymentPending)
	assert.Len(t, f.repo.payments, 1)
}

func TestInitiatePayment_RejectsUnconfirmedBooking(t *testing.T) {
	f := newPaymentFixture(t)
	f.bookings.booking.Status = bookingmodel.BookingStatusPending.String()

	_, err := f.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})

	requirePaymentCode(t, err, model.ErrCodeBookingNotPayable)
}

func TestInitiatePayment_RetriesAfterFailedAttempt(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)

	// First attempt fails at the gateway; the booking records the failure
	// but stays open for another try until the deadline.
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusFailed)
	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	f.bookings.booking.PaymentStatus = bookingmodel.PaymentStatusFailed.String()

	retry, err := f.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, initiated.PaymentID, retry.PaymentID)
	assert.Len(t, f.repo.payments, 2)
}

func TestInitiatePayment_RejectsAlreadyPaidBooking(t *testing.T) {
	f := newPaymentFixture(t)
	f.bookings.booking.PaymentStatus = bookingmodel.PaymentStatusPaid.String()

	_, err := f.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})

	requirePaymentCode(t, err, model.ErrCodeBookingNotPayable)
}

// =====================================================
// WALLET PAYMENT
// =====================================================

func TestPayWithWallet_DebitsAndSettlesTogether(t *testing.T) {
	f := newPaymentFixture(t)

	resp, err := f.svc.PayWithWallet(context.Background(), &model.PayWithWalletRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStateCompleted.String(), resp.Status)
	assert.Equal(t, model.MethodWallet, resp.Method)

	require.Len(t, f.wallet.debits, 1)
	assert.Equal(t, f.clientID, f.wallet.debits[0].userID)
	assert.Equal(t, walletmodel.TransactionTypePayment, f.wallet.debits[0].txType)
	assert.True(t, f.wallet.debits[0].amount.Equal(decimal.RequireFromString("212.75")))

	require.Len(t, f.bookings.settles, 1)
	assert.True(t, f.bookings.settles[0].paid)
	assert.Equal(t, 1, f.repo.commits)
	assert.Contains(t, f.sink.cleared, f.bookingID)
	assert.Contains(t, f.sink.kinds, notifmodel.KindPaymentReceived)
}

func TestPayWithWallet_InsufficientBalanceRollsBack(t *testing.T) {
	f := newPaymentFixture(t)
	f.wallet.debitErr = walletmodel.ErrInsufficientBalance

	_, err := f.svc.PayWithWallet(context.Background(), &model.PayWithWalletRequest{
		BookingID: f.bookingID,
		UserID:    f.clientID,
	})

	require.ErrorIs(t, err, walletmodel.ErrInsufficientBalance)
	assert.Empty(t, f.repo.payments)
	assert.Empty(t, f.bookings.settles)
	assert.Equal(t, 1, f.repo.rollbacks)
	assert.Equal(t, 0, f.repo.commits)
}

// =====================================================
// WEBHOOK RECONCILIATION
// =====================================================

func TestProcessWebhook_SettlesPaymentAndBooking(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)

	outcome, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	assert.Equal(t, initiated.PaymentID, outcome.PaymentID)
	assert.Equal(t, f.bookingID, outcome.BookingID)
	assert.Equal(t, model.PaymentStateCompleted, outcome.Status)
	assert.False(t, outcome.Replayed)

	stored, err := f.repo.GetPaymentByID(context.Background(), initiated.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	require.Len(t, f.bookings.settles, 1)
	assert.True(t, f.bookings.settles[0].paid)
	assert.Contains(t, f.sink.cleared, f.bookingID)
	assert.Contains(t, f.sink.kinds, notifmodel.KindPaymentReceived)

	log := f.webhooks.last(t)
	assert.True(t, log.IsProcessed)
	require.NotNil(t, log.SignatureValid)
	assert.True(t, *log.SignatureValid)
}

func TestProcessWebhook_FailedStatusMarksPaymentFailed(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusFailed)

	outcome, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStateFailed, outcome.Status)

	stored, err := f.repo.GetPaymentByID(context.Background(), initiated.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)

	require.Len(t, f.bookings.settles, 1)
	assert.False(t, f.bookings.settles[0].paid)
	assert.Contains(t, f.sink.kinds, notifmodel.KindPaymentFailed)
	assert.NotContains(t, f.sink.kinds, notifmodel.KindPaymentReceived)
}

func TestProcessWebhook_RejectsBadSignatureBeforeLookup(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	_, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)

	_, err := f.svc.ProcessWebhook(context.Background(), "deadbeef", body)

	requirePaymentCode(t, err, model.ErrCodeInvalidSignature)

	// Payment untouched, audit row written.
	stored, getErr := f.repo.GetPaymentByID(context.Background(), initiated.PaymentID)
	require.NoError(t, getErr)
	assert.Equal(t, model.PaymentStatePending, stored.Status)
	assert.Empty(t, f.bookings.settles)

	log := f.webhooks.last(t)
	require.NotNil(t, log.SignatureValid)
	assert.False(t, *log.SignatureValid)
	assert.Nil(t, log.PaymentID)
}

func TestProcessWebhook_SkipSignatureCheckStillSettles(t *testing.T) {
	f := newPaymentFixture(t, func(cfg *config.GatewayConfig) {
		cfg.SkipSignatureCheck = true
	})
	initiated := f.initiate(t)
	_, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)

	outcome, err := f.svc.ProcessWebhook(context.Background(), "not-a-real-signature", body)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateCompleted, outcome.Status)
}

func TestProcessWebhook_MalformedPayload(t *testing.T) {
	f := newPaymentFixture(t)
	body := []byte(`{"status":"Paid"}`)
	sig := beautypay.Sign(body, webhookSecret)

	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)

	requirePaymentCode(t, err, model.ErrCodeMalformedWebhook)
	log := f.webhooks.last(t)
	assert.False(t, log.IsProcessed)
	require.NotNil(t, log.ProcessingError)
}

func TestProcessWebhook_UnknownTransaction(t *testing.T) {
	f := newPaymentFixture(t)
	sig, body := signedBody("BP-nonexistent", model.WebhookStatusPaid)

	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)

	requirePaymentCode(t, err, model.ErrCodePaymentNotFound)
}

func TestProcessWebhook_ReplayReturnsRecordedOutcome(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)

	first, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.PaymentID, second.PaymentID)
	assert.Equal(t, model.PaymentStateCompleted, second.Status)

	// Booking settled exactly once, no duplicate notification.
	assert.Len(t, f.bookings.settles, 1)
	assert.Len(t, f.sink.cleared, 1)
}

func TestProcessWebhook_ReplayAfterFailureDoesNotFlip(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusFailed)

	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	// The gateway retries with a paid status for the same transaction;
	// the recorded failed outcome wins.
	sig, body = signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)
	outcome, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	assert.True(t, outcome.Replayed)
	assert.Equal(t, model.PaymentStateFailed, outcome.Status)
}

func TestProcessWebhook_BookingSettleFailureRollsBack(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	f.bookings.settleErr = errors.New("booking already cancelled")
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)

	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.Error(t, err)

	stored, getErr := f.repo.GetPaymentByID(context.Background(), initiated.PaymentID)
	require.NoError(t, getErr)
	assert.Equal(t, model.PaymentStatePending, stored.Status)
	assert.Equal(t, 1, f.repo.rollbacks)
}

func TestProcessWebhook_CancelledBookingRecordsFailedPayment(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	// The sweep cancelled the booking before the paid callback landed.
	f.bookings.settleErr = bookingmodel.NewBookingError(bookingmodel.ErrCodeInvalidStateTransition,
		"cannot settle payment for booking in state cancelled/pending",
		bookingmodel.ErrInvalidStateTransition)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)

	outcome, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateFailed, outcome.Status)

	stored, getErr := f.repo.GetPaymentByID(context.Background(), initiated.PaymentID)
	require.NoError(t, getErr)
	assert.Equal(t, model.PaymentStateFailed, stored.Status)
	require.NotNil(t, stored.FailureReason)
	assert.Contains(t, *stored.FailureReason, "booking no longer awaiting payment")
	assert.True(t, f.webhooks.last(t).IsProcessed)

	// The gateway's redelivery now replays the recorded failure instead
	// of looping forever.
	sig, body = signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)
	replayed, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)
	assert.True(t, replayed.Replayed)
	assert.Equal(t, model.PaymentStateFailed, replayed.Status)
}

// =====================================================
// REFUND
// =====================================================

func TestRefundGatewayPayment_MarksRefunded(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)
	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	amount := decimal.RequireFromString("212.75")
	resp, err := f.svc.RefundGatewayPayment(context.Background(), f.bookingID, amount, "booking cancelled")
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStateRefunded.String(), resp.Status)
	assert.True(t, resp.RefundAmount.Equal(amount))

	require.Len(t, f.gw.refunds, 1)
	assert.Equal(t, initiated.GatewayTransactionID, f.gw.refunds[0].TransactionID)

	stored, err := f.repo.GetPaymentByID(context.Background(), initiated.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateRefunded, stored.Status)
	require.NotNil(t, stored.RefundedAt)
}

func TestRefundGatewayPayment_RejectsWithoutSettledPayment(t *testing.T) {
	f := newPaymentFixture(t)
	f.initiate(t) // still pending, not refundable

	_, err := f.svc.RefundGatewayPayment(context.Background(), f.bookingID,
		decimal.RequireFromString("50"), "cancelled")

	requirePaymentCode(t, err, model.ErrCodeRefundNotAllowed)
}

func TestRefundGatewayPayment_RejectsAmountAboveSettled(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)
	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	_, err = f.svc.RefundGatewayPayment(context.Background(), f.bookingID,
		decimal.RequireFromString("500"), "cancelled")

	requirePaymentCode(t, err, model.ErrCodeRefundNotAllowed)
	assert.Empty(t, f.gw.refunds)
}

func TestRefundGatewayPayment_GatewayRejection(t *testing.T) {
	f := newPaymentFixture(t)
	initiated := f.initiate(t)
	sig, body := signedBody(initiated.GatewayTransactionID, model.WebhookStatusPaid)
	_, err := f.svc.ProcessWebhook(context.Background(), sig, body)
	require.NoError(t, err)

	f.gw.rejectMsg = "window closed"
	_, err = f.svc.RefundGatewayPayment(context.Background(), f.bookingID,
		decimal.RequireFromString("100"), "cancelled")

	requirePaymentCode(t, err, model.ErrCodeRefundNotAllowed)

	stored, getErr := f.repo.GetPaymentByID(context.Background(), initiated.PaymentID)
	require.NoError(t, getErr)
	assert.Equal(t, model.PaymentStateCompleted, stored.Status)
}
