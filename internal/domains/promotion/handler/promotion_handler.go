package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"beautybook-backend/internal/domains/promotion/model"
	"beautybook-backend/internal/domains/promotion/service"
	"beautybook-backend/internal/shared/response"
)

type PromotionHandler struct {
	service service.PromotionService
}

func NewPromotionHandler(promotionService service.PromotionService) *PromotionHandler {
	return &PromotionHandler{service: promotionService}
}

// ValidatePromo checks a code against a prospective booking.
// POST /api/v1/promotions/validate
func (h *PromotionHandler) ValidatePromo(c *gin.Context) {
	var req model.ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest,
			string(model.ErrCodeValidationFailed), "invalid request", err)
		return
	}

	req.UserID = getUserIDFromContext(c)

	result, err := h.service.Validate(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// CreatePromo creates a new code (admin only).
// POST /api/v1/admin/promotions
func (h *PromotionHandler) CreatePromo(c *gin.Context) {
	var req model.CreatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest,
			string(model.ErrCodeValidationFailed), "invalid request", err)
		return
	}

	promo, err := h.service.CreatePromo(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, promo)
}

// ListPromos lists codes (admin only).
// GET /api/v1/admin/promotions?active_only=true&page=1&limit=20
func (h *PromotionHandler) ListPromos(c *gin.Context) {
	query := model.PromoListQuery{
		ActiveOnly: c.Query("active_only") == "true",
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	promos, total, err := h.service.ListPromos(c.Request.Context(), &query)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, promos, &response.Meta{
		Page:  query.Page,
		Limit: query.Limit,
		Total: total,
	})
}

func (h *PromotionHandler) handleError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		response.ErrorResponse(c, appErr.HTTPStatus, string(appErr.Code), appErr.Message)
		return
	}
	response.InternalServerError(c, "something went wrong")
}

func getUserIDFromContext(c *gin.Context) *uuid.UUID {
	v, exists := c.Get("userID")
	if !exists {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
