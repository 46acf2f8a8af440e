package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents valid wallet transaction types
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

func (tt TransactionType) IsValid() bool {
	switch tt {
	case TransactionTypeDeposit, TransactionTypePayment,
		TransactionTypeRefund, TransactionTypeWithdrawal:
		return true
	}
	return false
}

func (tt TransactionType) String() string {
	return string(tt)
}

// IsCredit reports whether this type increases the balance.
func (tt TransactionType) IsCredit() bool {
	return tt == TransactionTypeDeposit || tt == TransactionTypeRefund
}

// Wallet is the per-user balance row. Balance always equals the sum of all
// signed transaction amounts for the user.
type Wallet struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"user_id" db:"user_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// WalletTransaction is one append-only ledger entry.
// Invariant: BalanceAfter - BalanceBefore equals the signed amount.
type WalletTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	WalletID      uuid.UUID       `json:"wallet_id" db:"wallet_id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Type          TransactionType `json:"type" db:"type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	Reason        string          `json:"reason" db:"reason"`
	BookingID     *uuid.UUID      `json:"booking_id" db:"booking_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// SignedAmount returns the amount with the sign implied by the type.
func (t *WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return t.Amount.Neg()
}
