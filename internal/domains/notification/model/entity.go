package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationKind classifies notifications for filtering and flag clearing
type NotificationKind string

const (
	KindBookingCreated   NotificationKind = "booking_created"
	KindBookingConfirmed NotificationKind = "booking_confirmed"
	KindBookingRejected  NotificationKind = "booking_rejected"
	KindBookingCancelled NotificationKind = "booking_cancelled"
	KindBookingCompleted NotificationKind = "booking_completed"
	KindPaymentPending   NotificationKind = "payment_pending"
	KindPaymentReceived  NotificationKind = "payment_received"
	KindPaymentFailed    NotificationKind = "payment_failed"
	KindWalletRefund     NotificationKind = "wallet_refund"
)

func (nk NotificationKind) String() string {
	return string(nk)
}

var ErrInvalidMetadata = errors.New("invalid notification metadata")

// Metadata is free-form context attached to a notification, typically a
// booking or payment reference.
type Metadata map[string]interface{}

// Value implements driver.Valuer for JSONB
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrInvalidMetadata
	}

	return json.Unmarshal(bytes, m)
}

// Notification is one stored in-app notification.
// Cleared is used by payment_pending entries: set once the payment settles
// so clients stop surfacing the reminder.
type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"body" db:"body"`
	Metadata  Metadata         `json:"metadata,omitempty" db:"metadata"`
	BookingID *uuid.UUID       `json:"booking_id,omitempty" db:"booking_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	Cleared   bool             `json:"cleared" db:"cleared"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
