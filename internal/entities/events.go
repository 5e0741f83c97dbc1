package entities

import (
	"time"

	"github.com/google/uuid"
)

// Event routes itself to an external or service-internal topic.
type Event interface {
	IsInternal() bool
}

// BookingPaid_v1 is published when the payment gateway confirms a checkout
// session for a booking. It drives the confirmation email.
type BookingPaid_v1 struct {
	Header    EventHeader `json:"header"`
	BookingID uuid.UUID   `json:"booking_id"`
	ShowID    uuid.UUID   `json:"show_id"`
	UserID    string      `json:"user_id"`
	PaidAt    time.Time   `json:"paid_at"`
}

func (e BookingPaid_v1) IsInternal() bool {
	return false
}

// ShowAdded_v1 is published when a new show is scheduled. It drives the
// announcement broadcast.
type ShowAdded_v1 struct {
	Header     EventHeader `json:"header"`
	ShowID     uuid.UUID   `json:"show_id"`
	MovieTitle string      `json:"movie_title"`
	StartsAt   time.Time   `json:"starts_at"`
}

func (e ShowAdded_v1) IsInternal() bool {
	return false
}

// PaymentOrphaned_v1 reports a payment that completed after its booking was
// already released. These are never dropped silently; a handler records them
// for manual reconciliation.
type PaymentOrphaned_v1 struct {
	Header     EventHeader `json:"header"`
	BookingID  uuid.UUID   `json:"booking_id"`
	SessionID  string      `json:"session_id"`
	ReceivedAt time.Time   `json:"received_at"`
}

func (e PaymentOrphaned_v1) IsInternal() bool {
	return true
}
