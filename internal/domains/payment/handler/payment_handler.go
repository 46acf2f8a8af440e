package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	bookingmodel "beautybook-backend/internal/domains/booking/model"
	"beautybook-backend/internal/domains/payment/model"
	"beautybook-backend/internal/domains/payment/service"
	walletmodel "beautybook-backend/internal/domains/wallet/model"
	"beautybook-backend/internal/shared/response"
	"beautybook-backend/pkg/logger"
)

const signatureHeader = "X-Signature"

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// =====================================================
// CLIENT ENDPOINTS
// =====================================================

// InitiatePayment handles POST /api/v1/payments/initiate
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req model.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid request", err)
		return
	}
	req.UserID = userIDFromContext(c)

	result, err := h.service.InitiatePayment(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// PayWithWallet handles POST /api/v1/payments/wallet
func (h *PaymentHandler) PayWithWallet(c *gin.Context) {
	var req model.PayWithWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid request", err)
		return
	}
	req.UserID = userIDFromContext(c)

	result, err := h.service.PayWithWallet(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListBookingPayments handles GET /api/v1/payments/bookings/:bookingId
func (h *PaymentHandler) ListBookingPayments(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	payments, err := h.service.ListBookingPayments(c.Request.Context(), bookingID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]*model.PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, payments[i].ToResponse())
	}
	response.Success(c, http.StatusOK, out)
}

// =====================================================
// WEBHOOK
// =====================================================

// Webhook handles POST /api/v1/webhooks/payment. Unauthenticated; trust
// comes from the HMAC signature over the raw body.
//
// Status mapping follows the retry contract with the gateway: 200 means
// "handled, stop redelivering" (including unknown transactions, which are
// logged and acknowledged), 4xx means "permanently rejected", 5xx means
// "retry later".
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return
	}

	outcome, err := h.service.ProcessWebhook(c.Request.Context(), c.GetHeader(signatureHeader), body)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidSignature):
			response.Unauthorized(c, "invalid signature")
		case errors.Is(err, model.ErrMalformedWebhook):
			response.BadRequest(c, "malformed payload")
		case errors.Is(err, model.ErrPaymentNotFound):
			logger.Warn("webhook for unknown transaction acknowledged", map[string]interface{}{
				"error": err.Error(),
			})
			response.Success(c, http.StatusOK, gin.H{"acknowledged": true})
		default:
			response.InternalServerError(c, "reconciliation failed")
		}
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// =====================================================
// ADMIN
// =====================================================

// RefundPayment handles POST /api/v1/admin/payments/bookings/:bookingId/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	var req struct {
		Amount string `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		response.BadRequest(c, "invalid amount")
		return
	}

	result, err := h.service.RefundGatewayPayment(c.Request.Context(), bookingID, amount, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// =====================================================
// HELPERS
// =====================================================

func (h *PaymentHandler) handleError(c *gin.Context, err error) {
	var paymentErr *model.PaymentError
	if errors.As(err, &paymentErr) {
		response.ErrorResponse(c, statusForPaymentError(paymentErr), paymentErr.Code, paymentErr.Message)
		return
	}

	var bookingErr *bookingmodel.BookingError
	if errors.As(err, &bookingErr) {
		switch bookingErr.Code {
		case bookingmodel.ErrCodeBookingNotFound:
			response.NotFound(c, bookingErr.Message)
		case bookingmodel.ErrCodeUnauthorized:
			response.Forbidden(c, bookingErr.Message)
		default:
			response.Conflict(c, bookingErr.Message)
		}
		return
	}

	switch {
	case errors.Is(err, bookingmodel.ErrBookingNotFound):
		response.NotFound(c, "booking not found")
	case errors.Is(err, walletmodel.ErrInsufficientBalance):
		response.Conflict(c, "insufficient wallet balance")
	case errors.Is(err, model.ErrPaymentNotFound):
		response.NotFound(c, "payment not found")
	default:
		response.InternalServerError(c, "something went wrong")
	}
}

func statusForPaymentError(err *model.PaymentError) int {
	switch err.Code {
	case model.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case model.ErrCodeGatewayUnavailable:
		return http.StatusBadGateway
	case model.ErrCodeBookingNotPayable, model.ErrCodePaymentPending, model.ErrCodeRefundNotAllowed:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func userIDFromContext(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
