package shared

// Asynq task type names. Namespaced by queue.
const (
	TypePaymentTimeoutSweep = "booking:payment_timeout_sweep"
)

// Queue names, by priority.
const (
	QueueBooking = "booking"
	QueueDefault = "default"
)

// PaymentTimeoutSweepPayload caps how many expired bookings one sweep run
// may cancel.
type PaymentTimeoutSweepPayload struct {
	Limit int `json:"limit"`
}
