package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/wallet/model"
	"beautybook-backend/internal/domains/wallet/repository"
	"beautybook-backend/pkg/logger"
)

// WalletService is the ledger: every balance mutation appends a transaction
// carrying balance_before/balance_after and updates the stored balance in
// the same database transaction, under a per-user row lock.
type WalletService interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error)
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error)
	CreditWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error)
	DebitWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WalletTransaction, int, error)
}

type walletService struct {
	repo repository.WalletRepository
}

func NewWalletService(repo repository.WalletRepository) WalletService {
	return &walletService{repo: repo}
}

// Credit increases the balance in its own transaction.
func (s *walletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error) {
	return s.mutate(ctx, userID, amount, txType, reason, bookingID, true)
}

// Debit decreases the balance in its own transaction.
// Fails with ErrInsufficientBalance when amount exceeds the current balance.
func (s *walletService) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error) {
	return s.mutate(ctx, userID, amount, txType, reason, bookingID, false)
}

func (s *walletService) mutate(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID, credit bool) (*model.WalletTransaction, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}

	var txn *model.WalletTransaction
	if credit {
		txn, err = s.CreditWithTx(ctx, tx, userID, amount, txType, reason, bookingID)
	} else {
		txn, err = s.DebitWithTx(ctx, tx, userID, amount, txType, reason, bookingID)
	}
	if err != nil {
		s.repo.RollbackTx(ctx, tx)
		return nil, err
	}

	if err := s.repo.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	return txn, nil
}

// CreditWithTx joins an existing transaction (refund inside cancellation,
// deposit inside reconciliation).
func (s *walletService) CreditWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error) {
	if err := validateMutation(amount, txType, true); err != nil {
		return nil, err
	}

	wallet, err := s.repo.GetWalletForUpdateWithTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	txn := buildTransaction(wallet, userID, amount, txType, reason, bookingID)
	txn.BalanceAfter = wallet.Balance.Add(amount)

	if err := s.apply(ctx, tx, wallet, txn); err != nil {
		return nil, err
	}

	logger.Info("wallet credited", map[string]interface{}{
		"user_id": userID.String(),
		"type":    txType.String(),
		"amount":  amount.String(),
	})

	return txn, nil
}

// DebitWithTx joins an existing transaction (wallet payment inside booking
// settlement).
func (s *walletService) DebitWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) (*model.WalletTransaction, error) {
	if err := validateMutation(amount, txType, false); err != nil {
		return nil, err
	}

	wallet, err := s.repo.GetWalletForUpdateWithTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if amount.GreaterThan(wallet.Balance) {
		return nil, model.NewWalletError(model.ErrCodeInsufficientBalance,
			"insufficient wallet balance", model.ErrInsufficientBalance)
	}

	txn := buildTransaction(wallet, userID, amount, txType, reason, bookingID)
	txn.BalanceAfter = wallet.Balance.Sub(amount)

	if err := s.apply(ctx, tx, wallet, txn); err != nil {
		return nil, err
	}

	logger.Info("wallet debited", map[string]interface{}{
		"user_id": userID.String(),
		"type":    txType.String(),
		"amount":  amount.String(),
	})

	return txn, nil
}

func (s *walletService) apply(ctx context.Context, tx pgx.Tx, wallet *model.Wallet, txn *model.WalletTransaction) error {
	if err := s.repo.CreateTransactionWithTx(ctx, tx, txn); err != nil {
		return err
	}
	return s.repo.UpdateBalanceWithTx(ctx, tx, wallet.ID, txn.BalanceAfter)
}

func (s *walletService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := s.repo.GetWalletByUserID(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Balance, nil
}

func (s *walletService) ListTransactions(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WalletTransaction, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListTransactionsByUserID(ctx, userID, page, limit)
}

func validateMutation(amount decimal.Decimal, txType model.TransactionType, credit bool) error {
	if !amount.IsPositive() {
		return model.NewWalletError(model.ErrCodeInvalidAmount,
			"amount must be positive", model.ErrInvalidAmount)
	}
	if !txType.IsValid() || txType.IsCredit() != credit {
		return model.NewWalletError(model.ErrCodeInvalidType,
			"transaction type does not match operation", model.ErrInvalidType)
	}
	return nil
}

func buildTransaction(wallet *model.Wallet, userID uuid.UUID, amount decimal.Decimal, txType model.TransactionType, reason string, bookingID *uuid.UUID) *model.WalletTransaction {
	return &model.WalletTransaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: wallet.Balance,
		Reason:        reason,
		BookingID:     bookingID,
	}
}
