package main

import (
	"github.com/hibiken/asynq"

	bookingjob "beautybook-backend/internal/domains/booking/job"
	"beautybook-backend/internal/shared"
	"beautybook-backend/pkg/container"
)

// HandlerRegistry holds all job handlers.
type HandlerRegistry struct {
	paymentTimeoutSweep *bookingjob.PaymentTimeoutSweepHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		paymentTimeoutSweep: bookingjob.NewPaymentTimeoutSweepHandler(c.BookingService),
	}
}

func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypePaymentTimeoutSweep, h.paymentTimeoutSweep.ProcessTask)
}
