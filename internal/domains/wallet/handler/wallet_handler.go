package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"beautybook-backend/internal/domains/wallet/model"
	"beautybook-backend/internal/domains/wallet/service"
	"beautybook-backend/internal/shared/response"
)

type WalletHandler struct {
	service service.WalletService
}

func NewWalletHandler(walletService service.WalletService) *WalletHandler {
	return &WalletHandler{service: walletService}
}

// GetBalance returns the current user's wallet balance.
// GET /api/v1/wallet/balance
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.BalanceResponse{
		UserID:  userID,
		Balance: balance,
	})
}

// ListTransactions returns the current user's ledger, newest first.
// GET /api/v1/wallet/transactions?page=1&limit=20
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	txns, total, err := h.service.ListTransactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	items := make([]model.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, txns[i].ToResponse())
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// Deposit tops up the current user's wallet.
// POST /api/v1/wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req model.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	txn, err := h.service.Credit(c.Request.Context(), userID, req.Amount,
		model.TransactionTypeDeposit, "Wallet deposit", nil)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, txn.ToResponse())
}

func (h *WalletHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrWalletNotFound):
		response.NotFound(c, "wallet not found")
	case errors.Is(err, model.ErrInsufficientBalance):
		response.Conflict(c, "insufficient wallet balance")
	case errors.Is(err, model.ErrInvalidAmount), errors.Is(err, model.ErrInvalidType):
		response.BadRequest(c, err.Error())
	default:
		response.InternalServerError(c, "something went wrong")
	}
}

func getUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
