package events

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/rs/zerolog"

	bdomain "quickshow/internal/domain/bookings"
	udomain "quickshow/internal/domain/users"
	"quickshow/internal/entities"
	"quickshow/internal/notifications"
)

// SendBookingConfirmationHandler mails the customer once their payment is
// confirmed. Send failures are returned so the retry middleware redelivers.
func (h *Handler) SendBookingConfirmationHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"send_booking_confirmation_handler",
		func(ctx context.Context, payload *entities.BookingPaid_v1) error {
			logger := zerolog.Ctx(ctx)

			booking, err := h.bookingsRepo.GetBooking(ctx, payload.BookingID)
			if errors.Is(err, bdomain.ErrBookingNotFound) {
				logger.Warn().
					Stringer("booking_id", payload.BookingID).
					Msg("paid booking disappeared before confirmation email")
				return nil
			}
			if err != nil {
				return err
			}

			show, err := h.showsRepo.GetShow(ctx, booking.ShowID)
			if err != nil {
				return err
			}

			user, err := h.usersRepo.GetUser(ctx, booking.UserID)
			if errors.Is(err, udomain.ErrUserNotFound) {
				logger.Warn().
					Str("user_id", booking.UserID).
					Msg("no profile for booking holder, skipping confirmation email")
				return nil
			}
			if err != nil {
				return err
			}

			email, err := notifications.ConfirmationEmail(user, show, booking)
			if err != nil {
				return err
			}

			logger.Info().
				Stringer("booking_id", booking.Id).
				Str("to", user.Email).
				Msg("sending booking confirmation")
			return h.mailer.Send(ctx, user.Email, email.Subject, email.Body)
		},
	)
}
