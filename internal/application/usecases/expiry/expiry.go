package expiry

import (
	"context"
	"errors"
	"time"

	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	bdomain "quickshow/internal/domain/bookings"
)

type BookingsRepo interface {
	GetBookingForUpdate(ctx context.Context, id uuid.UUID) (bdomain.Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error
}

type SeatsRepo interface {
	ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
}

type ReleaseJobsRepo interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	Delete(ctx context.Context, bookingID uuid.UUID) error
}

// ReleaseExpiredHoldsUsecase enforces the hold deadline: once a booking's
// release job comes due, the booking either has paid (seats are kept
// permanently) or its seats go back to the pool and the booking is deleted.
type ReleaseExpiredHoldsUsecase struct {
	bookingsRepo    BookingsRepo
	seatsRepo       SeatsRepo
	releaseJobsRepo ReleaseJobsRepo
	trManager       *trmanager.Manager

	now func() time.Time
}

func NewReleaseExpiredHoldsUsecase(
	bookingsRepo BookingsRepo,
	seatsRepo SeatsRepo,
	releaseJobsRepo ReleaseJobsRepo,
	trManager *trmanager.Manager,
) *ReleaseExpiredHoldsUsecase {
	return &ReleaseExpiredHoldsUsecase{
		bookingsRepo:    bookingsRepo,
		seatsRepo:       seatsRepo,
		releaseJobsRepo: releaseJobsRepo,
		trManager:       trManager,
		now:             time.Now,
	}
}

// maxJobsPerTick bounds how many due jobs one invocation drains before
// yielding back to the worker loop.
const maxJobsPerTick = 256

// ReleaseDue processes due jobs one transaction each, so a failing job does
// not block the rest of the queue. It returns the number of holds actually
// released (paid and already-gone bookings count as no-ops).
func (u *ReleaseExpiredHoldsUsecase) ReleaseDue(ctx context.Context) (int, error) {
	released := 0

	for i := 0; i < maxJobsPerTick; i++ {
		didRelease, more, err := u.releaseNext(ctx)
		if err != nil {
			return released, err
		}
		if didRelease {
			released++
		}
		if !more {
			break
		}
	}

	return released, nil
}

func (u *ReleaseExpiredHoldsUsecase) releaseNext(ctx context.Context) (didRelease bool, more bool, err error) {
	err = u.trManager.Do(ctx, func(ctx context.Context) error {
		ids, err := u.releaseJobsRepo.ClaimDue(ctx, u.now(), 1)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		more = true

		bookingID := ids[0]
		booking, err := u.bookingsRepo.GetBookingForUpdate(ctx, bookingID)
		if errors.Is(err, bdomain.ErrBookingNotFound) {
			// Already rolled back (e.g. by the gateway-failure compensation).
			return u.releaseJobsRepo.Delete(ctx, bookingID)
		}
		if err != nil {
			return err
		}

		if booking.IsPaid() {
			zerolog.Ctx(ctx).Debug().
				Stringer("booking_id", bookingID).
				Msg("hold deadline passed for paid booking, keeping seats")
			return u.releaseJobsRepo.Delete(ctx, bookingID)
		}

		if _, err := u.seatsRepo.ReleaseByBooking(ctx, bookingID); err != nil {
			return err
		}
		if err := u.bookingsRepo.DeleteBooking(ctx, bookingID); err != nil {
			return err
		}
		if err := u.releaseJobsRepo.Delete(ctx, bookingID); err != nil {
			return err
		}

		didRelease = true
		zerolog.Ctx(ctx).Info().
			Stringer("booking_id", bookingID).
			Stringer("show_id", booking.ShowID).
			Strs("seats", booking.Seats).
			Msg("released unpaid hold")
		return nil
	})

	return didRelease, more, err
}
