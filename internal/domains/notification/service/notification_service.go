package service

import (
	"context"

	"github.com/google/uuid"

	"beautybook-backend/internal/domains/notification/model"
	"beautybook-backend/internal/domains/notification/repository"
	"beautybook-backend/pkg/logger"
)

// Sink is the fire-and-forget notification surface the booking and payment
// flows depend on. Failures are logged, never returned, so a broken
// notification store can never block a transition.
type Sink interface {
	Send(ctx context.Context, userID uuid.UUID, kind model.NotificationKind, title, body string, metadata model.Metadata)
	SendForBooking(ctx context.Context, userID, bookingID uuid.UUID, kind model.NotificationKind, title, body string)
	ClearPaymentPending(ctx context.Context, bookingID uuid.UUID)
}

// NotificationService is the full surface: the Sink plus read-side access.
type NotificationService interface {
	Sink
	List(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) Send(ctx context.Context, userID uuid.UUID, kind model.NotificationKind, title, body string, metadata model.Metadata) {
	s.persist(ctx, &model.Notification{
		ID:       uuid.New(),
		UserID:   userID,
		Kind:     kind,
		Title:    title,
		Body:     body,
		Metadata: metadata,
	})
}

func (s *notificationService) SendForBooking(ctx context.Context, userID, bookingID uuid.UUID, kind model.NotificationKind, title, body string) {
	s.persist(ctx, &model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		BookingID: &bookingID,
	})
}

func (s *notificationService) persist(ctx context.Context, n *model.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		logger.Error("failed to store notification", err)
	}
}

func (s *notificationService) ClearPaymentPending(ctx context.Context, bookingID uuid.UUID) {
	if err := s.repo.ClearPaymentPending(ctx, bookingID); err != nil {
		logger.Error("failed to clear payment pending notification", err)
	}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUserID(ctx, userID, page, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, notificationID, userID)
}
