package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"beautybook-backend/internal/domains/booking/service"
	"beautybook-backend/internal/shared"
	"beautybook-backend/pkg/logger"
)

// PaymentTimeoutSweepHandler cancels confirmed bookings whose payment
// deadline has passed without a settled payment. The sweep goes through the
// same versioned cancel path as user-initiated cancellations, so a booking
// paid between listing and cancelling is skipped, not double-cancelled.
type PaymentTimeoutSweepHandler struct {
	bookingService service.BookingService
}

func NewPaymentTimeoutSweepHandler(bookingService service.BookingService) *PaymentTimeoutSweepHandler {
	return &PaymentTimeoutSweepHandler{bookingService: bookingService}
}

func (h *PaymentTimeoutSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.PaymentTimeoutSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	cancelled, err := h.bookingService.SweepExpired(ctx)
	if err != nil {
		logger.Error("payment timeout sweep failed", err)
		return fmt.Errorf("sweep expired bookings: %w", err)
	}

	if cancelled > 0 {
		logger.Info("payment timeout sweep done", map[string]interface{}{
			"cancelled": cancelled,
		})
	}

	return nil
}
