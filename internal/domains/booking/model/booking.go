package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the booking lifecycle state
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

func (bs BookingStatus) IsValid() bool {
	switch bs {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusRejected,
		BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

func (bs BookingStatus) String() string {
	return string(bs)
}

// IsTerminal reports whether no further transition is allowed.
func (bs BookingStatus) IsTerminal() bool {
	switch bs {
	case BookingStatusRejected, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// bookingTransitions is the full transition table. States not listed as a
// key are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

// CanTransitionTo checks the transition table.
func (bs BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range bookingTransitions[bs] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PaymentStatus represents the payment state of a booking
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (ps PaymentStatus) IsValid() bool {
	switch ps {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

func (ps PaymentStatus) String() string {
	return string(ps)
}

// ServiceLocation is where the service is performed
type ServiceLocation string

const (
	LocationSalon ServiceLocation = "salon"
	LocationHome  ServiceLocation = "home"
)

func (sl ServiceLocation) IsValid() bool {
	return sl == LocationSalon || sl == LocationHome
}

func (sl ServiceLocation) String() string {
	return string(sl)
}

// CancelledBy identifies who triggered a cancellation
type CancelledBy string

const (
	CancelledByClient   CancelledBy = "client"
	CancelledByProvider CancelledBy = "provider"
	CancelledByAdmin    CancelledBy = "admin"
	CancelledBySystem   CancelledBy = "system"
)

func (cb CancelledBy) IsValid() bool {
	switch cb {
	case CancelledByClient, CancelledByProvider, CancelledByAdmin, CancelledBySystem:
		return true
	}
	return false
}

func (cb CancelledBy) String() string {
	return string(cb)
}

// Booking is a scheduled purchase of provider services by a client.
// Mutated only through state machine transitions, never deleted.
// Version backs the compare-and-swap on every transition.
type Booking struct {
	ID            uuid.UUID `json:"id" db:"id"`
	BookingNumber string    `json:"booking_number" db:"booking_number"`
	ClientID      uuid.UUID `json:"client_id" db:"client_id"`
	ProviderID    uuid.UUID `json:"provider_id" db:"provider_id"`

	AppointmentAt time.Time       `json:"appointment_at" db:"appointment_at"`
	Location      ServiceLocation `json:"location" db:"location"`

	// Pricing. total_amount = (subtotal - discount_amount) + tax_amount.
	Subtotal             decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountAmount       decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TaxAmount            decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount" db:"total_amount"`
	CommissionAmount     decimal.Decimal `json:"commission_amount" db:"commission_amount"`
	CancellationFee      decimal.Decimal `json:"cancellation_fee" db:"cancellation_fee"`
	TotalDurationMinutes int             `json:"total_duration_minutes" db:"total_duration_minutes"`

	PromoCodeID *uuid.UUID `json:"promo_code_id,omitempty" db:"promo_code_id"`

	Status        BookingStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`

	// PaymentDeadline is snapshotted at accept time from the configured
	// timeout; later config changes never move a running deadline.
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty" db:"payment_deadline"`
	PaidAt          *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	CancelledBy        *CancelledBy `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancellationReason *string      `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	ClientNote         *string      `json:"client_note,omitempty" db:"client_note"`

	Version int `json:"version" db:"version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BookingLineItem is one (service, quantity) line with the unit price
// snapshotted at booking time. Immutable once the booking leaves pending.
type BookingLineItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	ServiceID uuid.UUID `json:"service_id" db:"service_id"`

	// Snapshot data
	ServiceName     string          `json:"service_name" db:"service_name"`
	Location        ServiceLocation `json:"location" db:"location"`
	UnitPrice       decimal.Decimal `json:"unit_price" db:"unit_price"`
	Quantity        int             `json:"quantity" db:"quantity"`
	LineTotal       decimal.Decimal `json:"line_total" db:"line_total"`
	DurationMinutes int             `json:"duration_minutes" db:"duration_minutes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BookingStatusHistory tracks every transition for audit.
type BookingStatusHistory struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	BookingID  uuid.UUID  `json:"booking_id" db:"booking_id"`
	FromStatus *string    `json:"from_status,omitempty" db:"from_status"`
	ToStatus   string     `json:"to_status" db:"to_status"`
	ChangedBy  *uuid.UUID `json:"changed_by,omitempty" db:"changed_by"`
	Notes      *string    `json:"notes,omitempty" db:"notes"`
	ChangedAt  time.Time  `json:"changed_at" db:"changed_at"`
}
