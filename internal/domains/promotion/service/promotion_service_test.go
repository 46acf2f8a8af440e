package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautybook-backend/internal/domains/promotion/model"
	"beautybook-backend/pkg/cache"
	"beautybook-backend/pkg/clock"
)

type fakePromoRepo struct {
	promos map[string]*model.PromoCode
	byID   map[uuid.UUID]*model.PromoCode
	usages []model.PromoCodeUsage
}

func newFakePromoRepo() *fakePromoRepo {
	return &fakePromoRepo{
		promos: make(map[string]*model.PromoCode),
		byID:   make(map[uuid.UUID]*model.PromoCode),
	}
}

func (f *fakePromoRepo) add(p *model.PromoCode) {
	f.promos[p.Code] = p
	f.byID[p.ID] = p
}

func (f *fakePromoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, model.ErrPromoNotFound
	}
	return p, nil
}

func (f *fakePromoRepo) FindByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	p, ok := f.promos[model.NormalizeCode(code)]
	if !ok {
		return nil, model.ErrPromoNotFound
	}
	return p, nil
}

func (f *fakePromoRepo) Create(ctx context.Context, promo *model.PromoCode) error {
	if _, exists := f.promos[promo.Code]; exists {
		return model.ErrPromoDuplicateCode
	}
	f.add(promo)
	return nil
}

func (f *fakePromoRepo) List(ctx context.Context, activeOnly bool, page, limit int) ([]model.PromoCode, int, error) {
	var out []model.PromoCode
	for _, p := range f.byID {
		if !activeOnly || p.IsActive {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (f *fakePromoRepo) CountUsageByUser(ctx context.Context, promoID, userID uuid.UUID) (int, error) {
	count := 0
	for _, u := range f.usages {
		if u.PromoCodeID == promoID && u.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakePromoRepo) CountUsageByUserWithTx(ctx context.Context, tx pgx.Tx, promoID, userID uuid.UUID) (int, error) {
	return f.CountUsageByUser(ctx, promoID, userID)
}

func (f *fakePromoRepo) IncrementUsedCountWithTx(ctx context.Context, tx pgx.Tx, promoID uuid.UUID) error {
	p, ok := f.byID[promoID]
	if !ok {
		return model.ErrPromoNotFound
	}
	if p.IsGlobalLimitReached() {
		return model.ErrPromoUsageLimitExceeded
	}
	p.UsedCount++
	return nil
}

func (f *fakePromoRepo) CreateUsageWithTx(ctx context.Context, tx pgx.Tx, usage *model.PromoCodeUsage) error {
	for _, u := range f.usages {
		if u.BookingID == usage.BookingID && u.PromoCodeID == usage.PromoCodeID {
			return model.ErrUsageAlreadyRecorded
		}
	}
	f.usages = append(f.usages, *usage)
	return nil
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func activePromo() *model.PromoCode {
	perUser := 1
	return &model.PromoCode{
		ID:                uuid.New(),
		Code:              "SUMMER10",
		DiscountType:      model.DiscountTypePercentage,
		DiscountValue:     dec("10"),
		UsageLimitPerUser: &perUser,
		ValidFrom:         testNow.Add(-24 * time.Hour),
		ValidUntil:        testNow.Add(24 * time.Hour),
		IsActive:          true,
	}
}

func validateReq(userID *uuid.UUID, subtotal string) *model.ValidatePromoRequest {
	return &model.ValidatePromoRequest{
		Code:       "SUMMER10",
		ProviderID: uuid.New(),
		ServiceIDs: []uuid.UUID{uuid.New()},
		Subtotal:   dec(subtotal),
		UserID:     userID,
	}
}

func TestValidate_UnknownCode(t *testing.T) {
	svc := NewPromotionService(newFakePromoRepo(), cache.Nop(), clock.NewMock(testNow))

	_, err := svc.Validate(context.Background(), validateReq(nil, "200"))
	assert.ErrorIs(t, err, model.ErrPromoNotFound)
}

func TestValidate_WindowChecks(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	repo.add(promo)
	clk := clock.NewMock(testNow)
	svc := NewPromotionService(repo, cache.Nop(), clk)

	// before the window opens
	clk.Set(promo.ValidFrom.Add(-time.Hour))
	_, err := svc.Validate(context.Background(), validateReq(nil, "200"))
	assert.ErrorIs(t, err, model.ErrPromoNotStarted)

	// after it closes
	clk.Set(promo.ValidUntil.Add(time.Hour))
	_, err = svc.Validate(context.Background(), validateReq(nil, "200"))
	assert.ErrorIs(t, err, model.ErrPromoExpired)

	// inactive beats everything after existence
	clk.Set(testNow)
	promo.IsActive = false
	_, err = svc.Validate(context.Background(), validateReq(nil, "200"))
	assert.ErrorIs(t, err, model.ErrPromoInactive)
}

func TestValidate_GlobalLimitBeforePerUser(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	limit := 5
	promo.UsageLimit = &limit
	promo.UsedCount = 5
	repo.add(promo)
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	userID := uuid.New()
	_, err := svc.Validate(context.Background(), validateReq(&userID, "200"))
	assert.ErrorIs(t, err, model.ErrPromoUsageLimitExceeded)
}

func TestValidate_PerUserLimit(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	repo.add(promo)
	userID := uuid.New()
	repo.usages = append(repo.usages, model.PromoCodeUsage{
		PromoCodeID: promo.ID,
		UserID:      userID,
		BookingID:   uuid.New(),
	})
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	_, err := svc.Validate(context.Background(), validateReq(&userID, "200"))
	assert.ErrorIs(t, err, model.ErrPromoUserLimitExceeded)
}

func TestValidate_NoPerUserLimitMeansUnlimited(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	promo.UsageLimitPerUser = nil
	repo.add(promo)
	userID := uuid.New()
	repo.usages = append(repo.usages, model.PromoCodeUsage{
		PromoCodeID: promo.ID,
		UserID:      userID,
		BookingID:   uuid.New(),
	})
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	result, err := svc.Validate(context.Background(), validateReq(&userID, "200"))
	require.NoError(t, err)
	assert.True(t, result.DiscountAmount.Equal(dec("20")))

	require.NoError(t, svc.ApplyWithTx(context.Background(), nil, promo.ID, userID, uuid.New(), dec("20")))
}

func TestValidate_MinAmount(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	min := dec("100")
	promo.MinBookingAmount = &min
	repo.add(promo)
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	_, err := svc.Validate(context.Background(), validateReq(nil, "99.99"))
	assert.ErrorIs(t, err, model.ErrPromoMinAmountNotMet)
}

func TestValidate_ServiceRestriction(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	promo.ApplicableServiceIDs = []uuid.UUID{uuid.New()}
	repo.add(promo)
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	// none of the booked services is in the eligible set
	_, err := svc.Validate(context.Background(), validateReq(nil, "200"))
	assert.ErrorIs(t, err, model.ErrPromoServiceNotEligible)

	// one eligible service is enough
	req := validateReq(nil, "200")
	req.ServiceIDs = append(req.ServiceIDs, promo.ApplicableServiceIDs[0])
	_, err = svc.Validate(context.Background(), req)
	assert.NoError(t, err)
}

func TestValidate_ProviderRestriction(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	providerID := uuid.New()
	promo.ProviderID = &providerID
	repo.add(promo)
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	_, err := svc.Validate(context.Background(), validateReq(nil, "200"))
	assert.ErrorIs(t, err, model.ErrPromoProviderMismatch)

	req := validateReq(nil, "200")
	req.ProviderID = providerID
	_, err = svc.Validate(context.Background(), req)
	assert.NoError(t, err)
}

func TestValidate_DiscountCapApplied(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	cap := dec("15")
	promo.MaxDiscountAmount = &cap
	repo.add(promo)
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	result, err := svc.Validate(context.Background(), validateReq(nil, "200"))
	require.NoError(t, err)
	assert.True(t, result.DiscountAmount.Equal(dec("15")), "got %s", result.DiscountAmount)
}

func TestApplyWithTx_PerUserLimitRecheck(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	repo.add(promo)
	userID := uuid.New()
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	err := svc.ApplyWithTx(context.Background(), nil, promo.ID, userID, uuid.New(), dec("20"))
	require.NoError(t, err)
	assert.Equal(t, 1, promo.UsedCount)

	// second application by the same user hits the per-user cap
	err = svc.ApplyWithTx(context.Background(), nil, promo.ID, userID, uuid.New(), dec("20"))
	assert.ErrorIs(t, err, model.ErrPromoUserLimitExceeded)
	assert.Equal(t, 1, promo.UsedCount)
}

func TestApplyWithTx_DuplicateBookingRejected(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	perUser := 5
	promo.UsageLimitPerUser = &perUser
	repo.add(promo)
	svc := NewPromotionService(repo, cache.Nop(), clock.NewMock(testNow))

	bookingID := uuid.New()
	userID := uuid.New()
	require.NoError(t, svc.ApplyWithTx(context.Background(), nil, promo.ID, userID, bookingID, dec("5")))

	err := svc.ApplyWithTx(context.Background(), nil, promo.ID, userID, bookingID, dec("5"))
	assert.ErrorIs(t, err, model.ErrUsageAlreadyRecorded)
}

// memoryCache is a map-backed cache spy for the lookup path.
type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = data
	m.sets++
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }

func TestGetByCode_ServedFromCacheOnSecondLookup(t *testing.T) {
	repo := newFakePromoRepo()
	promo := activePromo()
	repo.add(promo)
	mem := newMemoryCache()
	svc := NewPromotionService(repo, mem, clock.NewMock(testNow))

	first, err := svc.GetByCode(context.Background(), "SUMMER10")
	require.NoError(t, err)
	assert.Equal(t, 1, mem.sets)

	// Remove the backing row; the cached copy still answers.
	delete(repo.promos, promo.Code)
	delete(repo.byID, promo.ID)

	second, err := svc.GetByCode(context.Background(), "SUMMER10")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, mem.sets)
}

func TestCreatePromo_DropsStaleCacheEntry(t *testing.T) {
	repo := newFakePromoRepo()
	repo.add(activePromo())
	mem := newMemoryCache()
	svc := NewPromotionService(repo, mem, clock.NewMock(testNow))

	_, err := svc.GetByCode(context.Background(), "SUMMER10")
	require.NoError(t, err)
	require.NotEmpty(t, mem.entries)

	delete(repo.promos, "SUMMER10")
	_, err = svc.CreatePromo(context.Background(), &model.CreatePromoRequest{
		Code:          "SUMMER10",
		DiscountType:  model.DiscountTypePercentage.String(),
		DiscountValue: dec("20"),
		ValidFrom:     testNow,
		ValidUntil:    testNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)

	assert.Empty(t, mem.entries)
}
