package bookings

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Booking is a user's claim on a set of seats for a show. It is created
// unpaid; it either transitions to paid (and is kept permanently) or is
// deleted when the hold deadline passes without payment.
type Booking struct {
	Id            uuid.UUID     `json:"booking_id" db:"id"`
	UserID        string        `json:"user_id" db:"user_id"`
	ShowID        uuid.UUID     `json:"show_id" db:"show_id"`
	Seats         []string      `json:"seats" db:"-"`
	AmountCents   int64         `json:"amount_cents" db:"amount_cents"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	PaymentLink   string        `json:"payment_link" db:"payment_link"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

func (b Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}
