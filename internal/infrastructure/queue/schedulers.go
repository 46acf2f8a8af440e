package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"beautybook-backend/internal/config"
	"beautybook-backend/internal/shared"
	"beautybook-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	cfg       config.BookingConfig
}

func NewScheduler(redisAddress string, cfg config.BookingConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		cfg:       cfg,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerPaymentTimeoutSweep()
}

// The sweep runs on a short interval so a missed deadline is detected
// within one tick. The handler itself is idempotent; overlapping runs
// racing on the same booking resolve through the version check.
func (s *Scheduler) registerPaymentTimeoutSweep() error {
	payload, err := json.Marshal(shared.PaymentTimeoutSweepPayload{Limit: 100})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypePaymentTimeoutSweep, payload)

	_, err = s.scheduler.Register(
		fmt.Sprintf("@every %ds", s.cfg.SweepIntervalSeconds),
		task,
		asynq.Queue(shared.QueueBooking),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Duration(s.cfg.SweepIntervalSeconds)*time.Second),
	)
	if err != nil {
		logger.Error("Failed to register PaymentTimeoutSweep job", err)
		return err
	}

	logger.Info("Registered PaymentTimeoutSweep", map[string]interface{}{
		"interval_seconds": s.cfg.SweepIntervalSeconds,
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
