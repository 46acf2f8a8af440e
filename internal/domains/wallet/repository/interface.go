package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/wallet/model"
)

// WalletRepository persists wallets and their append-only ledger.
// Mutations go through the WithTx variants so credits and debits can join
// a larger unit (booking creation, refund, reconciliation).
type WalletRepository interface {
	// Transaction management
	BeginTx(ctx context.Context) (pgx.Tx, error)
	CommitTx(ctx context.Context, tx pgx.Tx) error
	RollbackTx(ctx context.Context, tx pgx.Tx) error

	GetWalletByUserID(ctx context.Context, userID uuid.UUID) (*model.Wallet, error)

	// GetWalletForUpdateWithTx locks the wallet row, serializing all
	// balance mutations for one user.
	GetWalletForUpdateWithTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*model.Wallet, error)
	UpdateBalanceWithTx(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error

	CreateTransactionWithTx(ctx context.Context, tx pgx.Tx, txn *model.WalletTransaction) error
	ListTransactionsByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.WalletTransaction, int, error)
}
