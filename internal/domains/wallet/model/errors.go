package model

import "errors"

const (
	ErrCodeWalletNotFound      = "WAL001"
	ErrCodeInsufficientBalance = "WAL002"
	ErrCodeInvalidAmount       = "WAL003"
	ErrCodeInvalidType         = "WAL004"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidType         = errors.New("invalid transaction type")
)

type WalletError struct {
	Code    string
	Message string
	Err     error
}

func (e *WalletError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *WalletError) Unwrap() error {
	return e.Err
}

func NewWalletError(code, message string, err error) *WalletError {
	return &WalletError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
