package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/rs/zerolog"

	"quickshow/internal/entities"
	"quickshow/internal/repository"
)

// RecordOrphanedPaymentHandler persists late payments (completed after their
// booking was released) so someone can refund or re-seat the customer.
func (h *Handler) RecordOrphanedPaymentHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"record_orphaned_payment_handler",
		func(ctx context.Context, payload *entities.PaymentOrphaned_v1) error {
			zerolog.Ctx(ctx).Warn().
				Stringer("booking_id", payload.BookingID).
				Str("session_id", payload.SessionID).
				Msg("recording orphaned payment")

			return h.orphanedRepo.Record(ctx, repository.OrphanedPayment{
				BookingID:  payload.BookingID,
				SessionID:  payload.SessionID,
				ReceivedAt: payload.ReceivedAt,
			})
		},
	)
}
