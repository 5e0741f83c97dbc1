package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	bdomain "quickshow/internal/domain/bookings"
	"quickshow/internal/entities"
	"quickshow/internal/interfaces/events"
	"quickshow/internal/outbox"
)

type BookingsRepo interface {
	GetBooking(ctx context.Context, id uuid.UUID) (bdomain.Booking, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

type ReleaseJobsRepo interface {
	Delete(ctx context.Context, bookingID uuid.UUID) error
}

// ConfirmPaymentUsecase applies the gateway's completion signal to the
// booking ledger. The unpaid->paid transition is a conditional update, so it
// cannot overwrite a release that already happened, and a release cannot
// follow it (the worker checks the status under a row lock).
type ConfirmPaymentUsecase struct {
	bookingsRepo    BookingsRepo
	releaseJobsRepo ReleaseJobsRepo
	trManager       *trmanager.Manager
	trGetter        *trmsqlx.CtxGetter
	watermillLogger watermill.LoggerAdapter
}

func NewConfirmPaymentUsecase(
	bookingsRepo BookingsRepo,
	releaseJobsRepo ReleaseJobsRepo,
	trManager *trmanager.Manager,
	trGetter *trmsqlx.CtxGetter,
	watermillLogger watermill.LoggerAdapter,
) *ConfirmPaymentUsecase {
	return &ConfirmPaymentUsecase{
		bookingsRepo:    bookingsRepo,
		releaseJobsRepo: releaseJobsRepo,
		trManager:       trManager,
		trGetter:        trGetter,
		watermillLogger: watermillLogger,
	}
}

// Confirm marks the booking paid and publishes the corresponding event
// through the outbox. Redeliveries of the same signal are no-ops. A signal
// for a booking that no longer exists is a late payment: it is reported as
// PaymentOrphaned_v1, never dropped.
func (u *ConfirmPaymentUsecase) Confirm(ctx context.Context, bookingID uuid.UUID, sessionID string) error {
	logger := zerolog.Ctx(ctx)

	return u.trManager.Do(ctx, func(ctx context.Context) error {
		eventBus, err := u.eventBusInTx(ctx)
		if err != nil {
			return err
		}

		err = u.bookingsRepo.MarkPaid(ctx, bookingID)
		switch {
		case err == nil:
			// The worker would no-op on a paid booking anyway; deleting the
			// job here just saves it the wakeup.
			if err := u.releaseJobsRepo.Delete(ctx, bookingID); err != nil {
				return err
			}

			booking, err := u.bookingsRepo.GetBooking(ctx, bookingID)
			if err != nil {
				return err
			}

			return eventBus.Publish(ctx, entities.BookingPaid_v1{
				Header:    entities.NewEventHeaderWithIdempotencyKey(sessionID),
				BookingID: booking.Id,
				ShowID:    booking.ShowID,
				UserID:    booking.UserID,
				PaidAt:    time.Now().UTC(),
			})

		case errors.Is(err, bdomain.ErrAlreadyPaid):
			logger.Info().
				Stringer("booking_id", bookingID).
				Msg("payment signal for already-paid booking, ignoring")
			return nil

		case errors.Is(err, bdomain.ErrBookingNotFound):
			logger.Error().
				Stringer("booking_id", bookingID).
				Str("session_id", sessionID).
				Msg("payment completed for a released booking")

			return eventBus.Publish(ctx, entities.PaymentOrphaned_v1{
				Header:     entities.NewEventHeaderWithIdempotencyKey(sessionID),
				BookingID:  bookingID,
				SessionID:  sessionID,
				ReceivedAt: time.Now().UTC(),
			})

		default:
			return err
		}
	})
}

func (u *ConfirmPaymentUsecase) eventBusInTx(ctx context.Context) (*cqrs.EventBus, error) {
	tr := u.trGetter.DefaultTrOrDB(ctx, nil)
	if tr == nil {
		return nil, fmt.Errorf("failed to get transaction from context")
	}

	publisher, err := outbox.NewPublisher(tr, u.watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return events.NewEventBus(publisher, u.watermillLogger)
}
