package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"beautybook-backend/internal/domains/promotion/model"
	"beautybook-backend/internal/domains/promotion/repository"
	"beautybook-backend/pkg/cache"
	"beautybook-backend/pkg/clock"
	"beautybook-backend/pkg/logger"
)

// PromotionService validates promo codes and records their usage.
type PromotionService interface {
	// Validate runs the eligibility checks in order (first failure wins)
	// and returns the code with its computed discount.
	Validate(ctx context.Context, req *model.ValidatePromoRequest) (*model.ValidationResult, error)

	// ApplyWithTx consumes the code inside the booking-creation
	// transaction: usage row + used_count increment, atomically with the
	// booking insert.
	ApplyWithTx(ctx context.Context, tx pgx.Tx, promoID, userID, bookingID uuid.UUID, discount decimal.Decimal) error

	CreatePromo(ctx context.Context, req *model.CreatePromoRequest) (*model.PromoCode, error)
	ListPromos(ctx context.Context, query *model.PromoListQuery) ([]model.PromoCode, int, error)
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
}

// promoCacheTTL keeps public code lookups cheap. Validation and usage
// accounting always go to the database; the conditional used_count
// update is the authority, so a slightly stale read here is harmless.
const promoCacheTTL = 5 * time.Minute

type promotionService struct {
	repo       repository.PromotionRepository
	cache      cache.Cache
	calculator *DiscountCalculator
	clock      clock.Clock
}

func NewPromotionService(repo repository.PromotionRepository, promoCache cache.Cache, clk clock.Clock) PromotionService {
	return &promotionService{
		repo:       repo,
		cache:      promoCache,
		calculator: NewDiscountCalculator(),
		clock:      clk,
	}
}

func (s *promotionService) Validate(ctx context.Context, req *model.ValidatePromoRequest) (*model.ValidationResult, error) {
	// Step 1: code exists
	promo, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	// Steps 2-6, first failure wins
	if err := s.checkEligibility(ctx, promo, req); err != nil {
		return nil, err
	}

	discount := s.calculator.Calculate(promo, req.Subtotal)

	return &model.ValidationResult{
		PromoCodeID:    promo.ID,
		Code:           promo.Code,
		DiscountType:   promo.DiscountType.String(),
		DiscountAmount: discount,
		Subtotal:       req.Subtotal,
	}, nil
}

func (s *promotionService) checkEligibility(ctx context.Context, promo *model.PromoCode, req *model.ValidatePromoRequest) error {
	now := s.clock.Now()

	// Step 2: active and within [valid_from, valid_until]
	if !promo.IsActive {
		return model.ErrPromoInactive
	}
	if now.Before(promo.ValidFrom) {
		return model.ErrPromoNotStarted
	}
	if !now.Before(promo.ValidUntil) {
		return model.ErrPromoExpired
	}

	// Step 3: global usage cap
	if promo.IsGlobalLimitReached() {
		return model.ErrPromoUsageLimitExceeded
	}

	// Step 4: per-user usage cap, counted from usage records
	if req.UserID != nil && promo.UsageLimitPerUser != nil {
		used, err := s.repo.CountUsageByUser(ctx, promo.ID, *req.UserID)
		if err != nil {
			return err
		}
		if used >= *promo.UsageLimitPerUser {
			return model.ErrPromoUserLimitExceeded
		}
	}

	// Step 5: minimum booking amount
	if promo.MinBookingAmount != nil && req.Subtotal.LessThan(*promo.MinBookingAmount) {
		return model.ErrPromoMinAmountNotMet
	}

	// Step 6: service / provider restriction
	if promo.ProviderID != nil && *promo.ProviderID != req.ProviderID {
		return model.ErrPromoProviderMismatch
	}
	if len(promo.ApplicableServiceIDs) > 0 {
		eligible := make(map[uuid.UUID]bool, len(promo.ApplicableServiceIDs))
		for _, id := range promo.ApplicableServiceIDs {
			eligible[id] = true
		}
		found := false
		for _, id := range req.ServiceIDs {
			if eligible[id] {
				found = true
				break
			}
		}
		if !found {
			return model.ErrPromoServiceNotEligible
		}
	}

	return nil
}

func (s *promotionService) ApplyWithTx(ctx context.Context, tx pgx.Tx, promoID, userID, bookingID uuid.UUID, discount decimal.Decimal) error {
	// Re-check the per-user cap inside the transaction; two concurrent
	// bookings must not both consume the user's last slot.
	promo, err := s.repo.FindByID(ctx, promoID)
	if err != nil {
		return err
	}

	if promo.UsageLimitPerUser != nil {
		used, err := s.repo.CountUsageByUserWithTx(ctx, tx, promoID, userID)
		if err != nil {
			return err
		}
		if used >= *promo.UsageLimitPerUser {
			return model.ErrPromoUserLimitExceeded
		}
	}

	if err := s.repo.IncrementUsedCountWithTx(ctx, tx, promoID); err != nil {
		return err
	}

	usage := &model.PromoCodeUsage{
		ID:             uuid.New(),
		PromoCodeID:    promoID,
		UserID:         userID,
		BookingID:      bookingID,
		DiscountAmount: discount,
	}
	if err := s.repo.CreateUsageWithTx(ctx, tx, usage); err != nil {
		return err
	}

	logger.Info("promo code applied", map[string]interface{}{
		"promo_code_id": promoID.String(),
		"booking_id":    bookingID.String(),
		"discount":      discount.String(),
	})

	return nil
}

func (s *promotionService) CreatePromo(ctx context.Context, req *model.CreatePromoRequest) (*model.PromoCode, error) {
	promo := req.ToEntity()
	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, err
	}

	// A code may be re-created after deletion; drop any stale entry.
	if err := s.cache.Delete(ctx, promoCacheKey(promo.Code)); err != nil {
		logger.Warn("promo cache invalidation failed", map[string]interface{}{
			"code":  promo.Code,
			"error": err.Error(),
		})
	}
	return promo, nil
}

func (s *promotionService) ListPromos(ctx context.Context, query *model.PromoListQuery) ([]model.PromoCode, int, error) {
	page, limit := query.Page, query.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, query.ActiveOnly, page, limit)
}

func (s *promotionService) GetByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	key := promoCacheKey(code)

	var cached model.PromoCode
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		logger.Warn("promo cache read failed", map[string]interface{}{
			"code":  code,
			"error": err.Error(),
		})
	} else if found {
		return &cached, nil
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, promo, promoCacheTTL); err != nil {
		logger.Warn("promo cache write failed", map[string]interface{}{
			"code":  code,
			"error": err.Error(),
		})
	}
	return promo, nil
}

func promoCacheKey(code string) string {
	return "promo:code:" + model.NormalizeCode(code)
}
