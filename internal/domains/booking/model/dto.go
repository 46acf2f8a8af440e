package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingItemRequest is one requested (service, quantity) line.
type BookingItemRequest struct {
	ServiceID uuid.UUID `json:"service_id"`
	Quantity  int       `json:"quantity"`
}

func (i BookingItemRequest) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ServiceID, validation.Required),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1), validation.Max(20)),
	)
}

// CreateBookingRequest is the client checkout request.
type CreateBookingRequest struct {
	ProviderID    uuid.UUID            `json:"provider_id"`
	AppointmentAt time.Time            `json:"appointment_at"`
	Location      string               `json:"location"`
	Items         []BookingItemRequest `json:"items"`
	PromoCode     *string              `json:"promo_code"`
	ClientNote    *string              `json:"client_note"`
	ClientID      uuid.UUID            `json:"-"` // from JWT, never from the body
}

func (r CreateBookingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProviderID, validation.Required),
		validation.Field(&r.AppointmentAt, validation.Required),
		validation.Field(&r.Location,
			validation.Required,
			validation.In("salon", "home").Error("location must be salon or home"),
		),
		validation.Field(&r.Items,
			validation.Required.Error("at least one service is required"),
			validation.Length(1, 20),
		),
		validation.Field(&r.PromoCode,
			validation.Length(3, 50).Error("promo code must be 3-50 characters"),
		),
		validation.Field(&r.ClientNote, validation.Length(0, 500)),
	)
}

// ServiceIDs extracts the requested service ids.
func (r CreateBookingRequest) ServiceIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.ServiceID)
	}
	return ids
}

// CancelBookingRequest carries the cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (r CancelBookingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason,
			validation.Required.Error("reason is required"),
			validation.Length(3, 500),
		),
	)
}

// Actor is the authenticated caller of a transition.
type Actor struct {
	UserID uuid.UUID
	Role   string // client, provider, admin
}

func (a Actor) IsAdmin() bool { return a.Role == "admin" }

// BookingResponse is the full booking view.
type BookingResponse struct {
	ID            uuid.UUID `json:"id"`
	BookingNumber string    `json:"booking_number"`
	ClientID      uuid.UUID `json:"client_id"`
	ProviderID    uuid.UUID `json:"provider_id"`

	AppointmentAt time.Time `json:"appointment_at"`
	Location      string    `json:"location"`

	Items []LineItemResponse `json:"items"`

	Subtotal             decimal.Decimal `json:"subtotal"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	TaxAmount            decimal.Decimal `json:"tax_amount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	CancellationFee      decimal.Decimal `json:"cancellation_fee"`
	TotalDurationMinutes int             `json:"total_duration_minutes"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	PaymentDeadline *time.Time `json:"payment_deadline,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`

	CancelledBy        *string `json:"cancelled_by,omitempty"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	ClientNote         *string `json:"client_note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// LineItemResponse is one priced line in a booking view.
type LineItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ServiceID       uuid.UUID       `json:"service_id"`
	ServiceName     string          `json:"service_name"`
	Location        string          `json:"location"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	LineTotal       decimal.Decimal `json:"line_total"`
	DurationMinutes int             `json:"duration_minutes"`
}

// ToResponse converts a Booking plus its items.
func (b *Booking) ToResponse(items []BookingLineItem) *BookingResponse {
	resp := &BookingResponse{
		ID:                   b.ID,
		BookingNumber:        b.BookingNumber,
		ClientID:             b.ClientID,
		ProviderID:           b.ProviderID,
		AppointmentAt:        b.AppointmentAt,
		Location:             b.Location.String(),
		Subtotal:             b.Subtotal,
		DiscountAmount:       b.DiscountAmount,
		TaxAmount:            b.TaxAmount,
		TotalAmount:          b.TotalAmount,
		CommissionAmount:     b.CommissionAmount,
		CancellationFee:      b.CancellationFee,
		TotalDurationMinutes: b.TotalDurationMinutes,
		Status:               b.Status.String(),
		PaymentStatus:        b.PaymentStatus.String(),
		ConfirmedAt:          b.ConfirmedAt,
		PaymentDeadline:      b.PaymentDeadline,
		PaidAt:               b.PaidAt,
		CancelledAt:          b.CancelledAt,
		CompletedAt:          b.CompletedAt,
		CancellationReason:   b.CancellationReason,
		ClientNote:           b.ClientNote,
		CreatedAt:            b.CreatedAt,
	}
	if b.CancelledBy != nil {
		s := b.CancelledBy.String()
		resp.CancelledBy = &s
	}
	resp.Items = make([]LineItemResponse, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, LineItemResponse{
			ID:              item.ID,
			ServiceID:       item.ServiceID,
			ServiceName:     item.ServiceName,
			Location:        item.Location.String(),
			UnitPrice:       item.UnitPrice,
			Quantity:        item.Quantity,
			LineTotal:       item.LineTotal,
			DurationMinutes: item.DurationMinutes,
		})
	}
	return resp
}

// BookingListResponse is the compact list view.
type BookingListResponse struct {
	ID            uuid.UUID       `json:"id"`
	BookingNumber string          `json:"booking_number"`
	ProviderID    uuid.UUID       `json:"provider_id"`
	AppointmentAt time.Time       `json:"appointment_at"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CancellationQuote is returned before a client confirms a cancellation.
type CancellationQuote struct {
	Fee          decimal.Decimal `json:"fee"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	FeePercent   int64           `json:"fee_percent"`
}
