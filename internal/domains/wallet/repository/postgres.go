package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/wallet/model"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) WalletRepository {
	return &PostgresRepository{db: db}
}

// =====================================================
// TRANSACTION MANAGEMENT
// =====================================================

func (r *PostgresRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

func (r *PostgresRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Commit(ctx)
}

func (r *PostgresRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}

// =====================================================
// WALLET OPERATIONS
// =====================================================

func (r *PostgresRepository) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`

	var w model.Wallet
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&w.ID,
		&w.UserID,
		&w.Balance,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}

	return &w, nil
}

// GetWalletForUpdateWithTx takes a row lock so concurrent credits/debits
// for the same user queue up instead of losing updates.
func (r *PostgresRepository) GetWalletForUpdateWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error) {
	query := `
		SELECT id, user_id, balance, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
		FOR UPDATE
	`

	var w model.Wallet
	err := tx.QueryRow(ctx, query, userID).Scan(
		&w.ID,
		&w.UserID,
		&w.Balance,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}

	return &w, nil
}

func (r *PostgresRepository) UpdateBalanceWithTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrWalletNotFound
	}

	return nil
}

// =====================================================
// LEDGER OPERATIONS
// =====================================================

func (r *PostgresRepository) CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, txn *model.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (
			id, wallet_id, user_id, type, amount,
			balance_before, balance_after, reason, booking_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		txn.ID,
		txn.WalletID,
		txn.UserID,
		txn.Type,
		txn.Amount,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.Reason,
		txn.BookingID,
	).Scan(&txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("create wallet transaction: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListTransactionsByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WalletTransaction, int, error) {
	countQuery := `SELECT COUNT(*) FROM wallet_transactions WHERE user_id = $1`

	var total int
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallet transactions: %w", err)
	}

	query := `
		SELECT id, wallet_id, user_id, type, amount,
		       balance_before, balance_after, reason, booking_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	offset := (page - 1) * limit
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.WalletTransaction
	for rows.Next() {
		var t model.WalletTransaction
		if err := rows.Scan(
			&t.ID,
			&t.WalletID,
			&t.UserID,
			&t.Type,
			&t.Amount,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&t.Reason,
			&t.BookingID,
			&t.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan wallet transaction: %w", err)
		}
		txns = append(txns, t)
	}

	return txns, total, rows.Err()
}
