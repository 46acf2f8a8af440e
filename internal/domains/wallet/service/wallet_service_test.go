package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook-backend/internal/domains/wallet/model"
)

// fakeWalletRepo keeps wallets in memory. The row lock is emulated with a
// per-repo mutex held from GetWalletForUpdateWithTx until commit/rollback.
type fakeWalletRepo struct {
	mu      sync.Mutex
	lockMu  sync.Mutex
	held    bool
	wallets map[uuid.UUID]*model.Wallet
	ledger  []model.WalletTransaction
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[uuid.UUID]*model.Wallet)}
}

func (f *fakeWalletRepo) addWallet(userID uuid.UUID, balance decimal.Decimal) {
	f.wallets[userID] = &model.Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: balance,
	}
}

func (f *fakeWalletRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return nil, nil }

func (f *fakeWalletRepo) CommitTx(ctx context.Context, tx pgx.Tx) error {
	f.release()
	return nil
}

func (f *fakeWalletRepo) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	f.release()
	return nil
}

func (f *fakeWalletRepo) release() {
	f.lockMu.Lock()
	defer f.lockMu.Unlock()
	if f.held {
		f.held = false
		f.mu.Unlock()
	}
}

func (f *fakeWalletRepo) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	w, ok := f.wallets[userID]
	if !ok {
		return nil, model.ErrWalletNotFound
	}
	copied := *w
	return &copied, nil
}

func (f *fakeWalletRepo) GetWalletForUpdateWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error) {
	f.mu.Lock()
	f.lockMu.Lock()
	f.held = true
	f.lockMu.Unlock()

	w, ok := f.wallets[userID]
	if !ok {
		return nil, model.ErrWalletNotFound
	}
	copied := *w
	return &copied, nil
}

func (f *fakeWalletRepo) UpdateBalanceWithTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	for _, w := range f.wallets {
		if w.ID == walletID {
			w.Balance = balance
			return nil
		}
	}
	return model.ErrWalletNotFound
}

func (f *fakeWalletRepo) CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, txn *model.WalletTransaction) error {
	f.ledger = append(f.ledger, *txn)
	return nil
}

func (f *fakeWalletRepo) ListTransactionsByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WalletTransaction, int, error) {
	var txns []model.WalletTransaction
	for _, t := range f.ledger {
		if t.UserID == userID {
			txns = append(txns, t)
		}
	}
	return txns, len(txns), nil
}

func TestCredit_RecordsBeforeAndAfter(t *testing.T) {
	repo := newFakeWalletRepo()
	userID := uuid.New()
	repo.addWallet(userID, decimal.NewFromInt(100))
	svc := NewWalletService(repo)

	txn, err := svc.Credit(context.Background(), userID, decimal.NewFromInt(50),
		model.TransactionTypeDeposit, "top up", nil)

	require.NoError(t, err)
	assert.True(t, txn.BalanceBefore.Equal(decimal.NewFromInt(100)))
	assert.True(t, txn.BalanceAfter.Equal(decimal.NewFromInt(150)))

	balance, err := svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(150)))
}

func TestDebit_InsufficientBalance(t *testing.T) {
	repo := newFakeWalletRepo()
	userID := uuid.New()
	repo.addWallet(userID, decimal.NewFromInt(30))
	svc := NewWalletService(repo)

	_, err := svc.Debit(context.Background(), userID, decimal.NewFromInt(31),
		model.TransactionTypePayment, "booking payment", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)

	// balance untouched, nothing appended
	balance, err := svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(30)))
	assert.Empty(t, repo.ledger)
}

func TestMutate_RejectsNonPositiveAmount(t *testing.T) {
	repo := newFakeWalletRepo()
	userID := uuid.New()
	repo.addWallet(userID, decimal.NewFromInt(10))
	svc := NewWalletService(repo)

	_, err := svc.Credit(context.Background(), userID, decimal.Zero,
		model.TransactionTypeDeposit, "zero", nil)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	_, err = svc.Debit(context.Background(), userID, decimal.NewFromInt(-5),
		model.TransactionTypePayment, "negative", nil)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
}

func TestMutate_RejectsMismatchedType(t *testing.T) {
	repo := newFakeWalletRepo()
	userID := uuid.New()
	repo.addWallet(userID, decimal.NewFromInt(10))
	svc := NewWalletService(repo)

	// refund is a credit type, not usable for debit
	_, err := svc.Debit(context.Background(), userID, decimal.NewFromInt(5),
		model.TransactionTypeRefund, "wrong direction", nil)
	assert.ErrorIs(t, err, model.ErrInvalidType)
}

// The running sum of signed amounts must always equal the stored balance,
// including under concurrent mutations.
func TestLedgerInvariant_ConcurrentMutations(t *testing.T) {
	repo := newFakeWalletRepo()
	userID := uuid.New()
	repo.addWallet(userID, decimal.NewFromInt(1000))
	svc := NewWalletService(repo)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(credit bool) {
			defer wg.Done()
			if credit {
				svc.Credit(context.Background(), userID, decimal.NewFromInt(7),
					model.TransactionTypeRefund, "refund", nil)
			} else {
				svc.Debit(context.Background(), userID, decimal.NewFromInt(3),
					model.TransactionTypePayment, "payment", nil)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	balance, err := svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)

	sum := decimal.NewFromInt(1000)
	for _, txn := range repo.ledger {
		sum = sum.Add(txn.SignedAmount())
		assert.True(t, txn.BalanceAfter.Sub(txn.BalanceBefore).Equal(txn.SignedAmount()),
			"entry %s violates before/after invariant", txn.ID)
	}
	assert.True(t, balance.Equal(sum), "balance %s != ledger sum %s", balance, sum)
}
