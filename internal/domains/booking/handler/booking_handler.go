package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"beautybook-backend/internal/domains/booking/model"
	"beautybook-backend/internal/domains/booking/service"
	promomodel "beautybook-backend/internal/domains/promotion/model"
	providerrepo "beautybook-backend/internal/domains/provider/repository"
	"beautybook-backend/internal/shared/response"
)

type BookingHandler struct {
	service service.BookingService
}

func NewBookingHandler(service service.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// =====================================================
// CLIENT ENDPOINTS
// =====================================================

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest,
			"VALIDATION_FAILED", "invalid request", err)
		return
	}

	req.ClientID = actorFromContext(c).UserID

	booking, err := h.service.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, booking)
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), bookingID, actorFromContext(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, booking)
}

// ListMyBookings handles GET /api/v1/bookings/my
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor := actorFromContext(c)
	page, limit := parsePagination(c)
	status := c.Query("status")

	bookings, total, err := h.service.ListClientBookings(c.Request.Context(), actor.UserID, status, page, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, toListResponses(bookings), &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// QuoteCancellation handles GET /api/v1/bookings/:id/cancellation-quote
func (h *BookingHandler) QuoteCancellation(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	quote, err := h.service.QuoteCancellation(c.Request.Context(), bookingID, actorFromContext(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, quote)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	var req model.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest,
			"VALIDATION_FAILED", "invalid request", err)
		return
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), bookingID, actorFromContext(c), req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, booking.ToResponse(nil))
}

// =====================================================
// PROVIDER ENDPOINTS
// =====================================================

// AcceptBooking handles POST /api/v1/bookings/:id/accept
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	h.transition(c, h.service.AcceptBooking)
}

// RejectBooking handles POST /api/v1/bookings/:id/reject
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	h.transition(c, h.service.RejectBooking)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, h.service.CompleteBooking)
}

// ListProviderBookings handles GET /api/v1/providers/:providerId/bookings
func (h *BookingHandler) ListProviderBookings(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("providerId"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}
	page, limit := parsePagination(c)
	status := c.Query("status")

	bookings, total, err := h.service.ListProviderBookings(c.Request.Context(), providerID, status, page, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, toListResponses(bookings), &response.Meta{
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// =====================================================
// HELPERS
// =====================================================

func (h *BookingHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, model.Actor) (*model.Booking, error)) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	booking, err := fn(c.Request.Context(), bookingID, actorFromContext(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, booking.ToResponse(nil))
}

func (h *BookingHandler) handleError(c *gin.Context, err error) {
	var bookingErr *model.BookingError
	if errors.As(err, &bookingErr) {
		response.ErrorResponse(c, statusForBookingError(bookingErr), bookingErr.Code, bookingErr.Message)
		return
	}

	var appErr *promomodel.AppError
	if errors.As(err, &appErr) {
		response.ErrorResponse(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message)
		return
	}

	switch {
	case errors.Is(err, model.ErrBookingNotFound):
		response.NotFound(c, "booking not found")
	case errors.Is(err, providerrepo.ErrProviderNotFound):
		response.NotFound(c, "provider not found")
	case errors.Is(err, providerrepo.ErrServiceNotFound):
		response.NotFound(c, "service not found")
	case errors.Is(err, model.ErrEmptyItems), errors.Is(err, model.ErrInvalidLocation):
		response.BadRequest(c, err.Error())
	default:
		response.InternalServerError(c, "something went wrong")
	}
}

func statusForBookingError(err *model.BookingError) int {
	switch err.Code {
	case model.ErrCodeBookingNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorized:
		return http.StatusForbidden
	case model.ErrCodeInvalidStateTransition, model.ErrCodeVersionMismatch:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func actorFromContext(c *gin.Context) model.Actor {
	actor := model.Actor{}
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uuid.UUID); ok {
			actor.UserID = id
		}
	}
	if v, ok := c.Get("userRole"); ok {
		if role, ok := v.(string); ok {
			actor.Role = role
		}
	}
	return actor
}

func parseBookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

func toListResponses(bookings []model.Booking) []model.BookingListResponse {
	out := make([]model.BookingListResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, model.BookingListResponse{
			ID:            b.ID,
			BookingNumber: b.BookingNumber,
			ProviderID:    b.ProviderID,
			AppointmentAt: b.AppointmentAt,
			TotalAmount:   b.TotalAmount,
			Status:        b.Status.String(),
			PaymentStatus: b.PaymentStatus.String(),
			CreatedAt:     b.CreatedAt,
		})
	}
	return out
}
