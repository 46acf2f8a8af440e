package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositRequest tops up the wallet from an external payment.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	UserID *uuid.UUID      `json:"-"` // from JWT, never from the body
}

func (r DepositRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Amount,
			validation.Required.Error("amount is required"),
			validation.By(func(value interface{}) error {
				d, ok := value.(decimal.Decimal)
				if !ok || d.LessThan(decimal.NewFromInt(1)) {
					return validation.NewError("amount_too_small", "amount must be at least 1")
				}
				return nil
			}),
		),
	)
}

// BalanceResponse is the wallet summary for the current user.
type BalanceResponse struct {
	UserID  uuid.UUID       `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionResponse is one ledger entry in list views.
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Reason        string          `json:"reason"`
	BookingID     *uuid.UUID      `json:"booking_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (t *WalletTransaction) ToResponse() TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Type:          t.Type.String(),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		Reason:        t.Reason,
		BookingID:     t.BookingID,
		CreatedAt:     t.CreatedAt,
	}
}
