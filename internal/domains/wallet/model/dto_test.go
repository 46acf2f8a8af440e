package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositRequest_AcceptsValidAmount(t *testing.T) {
	req := DepositRequest{Amount: decimal.RequireFromString("50.00")}
	require.NoError(t, req.Validate())
}

func TestDepositRequest_RejectsAmountBelowOne(t *testing.T) {
	for _, raw := range []string{"0.99", "-10"} {
		req := DepositRequest{Amount: decimal.RequireFromString(raw)}
		err := req.Validate()
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "amount")
	}
}
