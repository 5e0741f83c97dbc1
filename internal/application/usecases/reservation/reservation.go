package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	trmanager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	bdomain "quickshow/internal/domain/bookings"
	sdomain "quickshow/internal/domain/shows"
	"quickshow/internal/infrastructure/clients"
)

type ShowsRepo interface {
	GetShow(ctx context.Context, id uuid.UUID) (sdomain.Show, error)
}

type SeatsRepo interface {
	Claim(ctx context.Context, showID, bookingID uuid.UUID, userID string, seats []string) ([]string, error)
	ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
	OccupiedSeats(ctx context.Context, showID uuid.UUID) ([]string, error)
}

type BookingsRepo interface {
	CreateBooking(ctx context.Context, booking bdomain.Booking) (uuid.UUID, error)
	SetPaymentLink(ctx context.Context, id uuid.UUID, link string) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error
}

type ReleaseJobsRepo interface {
	Schedule(ctx context.Context, bookingID uuid.UUID, runAt time.Time) error
	Delete(ctx context.Context, bookingID uuid.UUID) error
}

type CheckoutService interface {
	CreateSession(ctx context.Context, req clients.CheckoutSessionRequest) (clients.CheckoutSession, error)
}

type ReserveSeatsUsecase struct {
	showsRepo       ShowsRepo
	seatsRepo       SeatsRepo
	bookingsRepo    BookingsRepo
	releaseJobsRepo ReleaseJobsRepo
	checkout        CheckoutService
	trManager       *trmanager.Manager
	watermillLogger watermill.LoggerAdapter

	holdTTL       time.Duration
	sessionExpiry time.Duration
}

func NewReserveSeatsUsecase(
	showsRepo ShowsRepo,
	seatsRepo SeatsRepo,
	bookingsRepo BookingsRepo,
	releaseJobsRepo ReleaseJobsRepo,
	checkout CheckoutService,
	trManager *trmanager.Manager,
	watermillLogger watermill.LoggerAdapter,
	holdTTL time.Duration,
	sessionExpiry time.Duration,
) *ReserveSeatsUsecase {
	return &ReserveSeatsUsecase{
		showsRepo:       showsRepo,
		seatsRepo:       seatsRepo,
		bookingsRepo:    bookingsRepo,
		releaseJobsRepo: releaseJobsRepo,
		checkout:        checkout,
		trManager:       trManager,
		watermillLogger: watermillLogger,
		holdTTL:         holdTTL,
		sessionExpiry:   sessionExpiry,
	}
}

type ReserveInput struct {
	ShowID uuid.UUID
	UserID string
	Seats  []string
	Origin string
}

// Reserve claims the selected seats, creates an unpaid booking with a
// deferred release job, and opens a checkout session for it. The claim, the
// booking and the job are committed atomically; the gateway call happens
// after commit and is compensated synchronously when it fails (the job
// remains as the durable safety net should the compensation fail too).
func (u *ReserveSeatsUsecase) Reserve(ctx context.Context, in ReserveInput) (string, error) {
	if err := validateSelection(in.Seats); err != nil {
		return "", err
	}

	var bookingID uuid.UUID
	var show sdomain.Show

	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		var err error
		show, err = u.showsRepo.GetShow(ctx, in.ShowID)
		if err != nil {
			return err
		}

		for _, seat := range in.Seats {
			if !show.SeatInLayout(seat) {
				return fmt.Errorf("seat %q: %w", seat, sdomain.ErrSeatOutsideLayout)
			}
		}

		bookingID, err = u.bookingsRepo.CreateBooking(ctx, bdomain.Booking{
			UserID:      in.UserID,
			ShowID:      in.ShowID,
			Seats:       in.Seats,
			AmountCents: show.PriceCents * int64(len(in.Seats)),
		})
		if err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		claimed, err := u.seatsRepo.Claim(ctx, in.ShowID, bookingID, in.UserID, in.Seats)
		if err != nil {
			return err
		}
		if len(claimed) < len(in.Seats) {
			// Another booking already holds part of the selection; rolling
			// back also discards the partial claim.
			return sdomain.ErrSeatsUnavailable
		}

		return u.releaseJobsRepo.Schedule(ctx, bookingID, time.Now().Add(u.holdTTL))
	})
	if err != nil {
		return "", err
	}

	session, err := u.checkout.CreateSession(ctx, clients.CheckoutSessionRequest{
		BookingID:   bookingID,
		MovieTitle:  show.MovieTitle,
		AmountCents: show.PriceCents * int64(len(in.Seats)),
		SuccessURL:  in.Origin + "/loading/my-bookings",
		CancelURL:   in.Origin + "/my-bookings",
		ExpiresAt:   time.Now().Add(u.sessionExpiry),
	})
	if err != nil {
		u.compensate(ctx, bookingID)
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	if err := u.bookingsRepo.SetPaymentLink(ctx, bookingID, session.URL); err != nil {
		// The hold and the session are both live; the client can still pay.
		zerolog.Ctx(ctx).Err(err).
			Stringer("booking_id", bookingID).
			Msg("failed to store payment link")
	}

	return session.URL, nil
}

func (u *ReserveSeatsUsecase) compensate(ctx context.Context, bookingID uuid.UUID) {
	err := u.trManager.Do(ctx, func(ctx context.Context) error {
		if _, err := u.seatsRepo.ReleaseByBooking(ctx, bookingID); err != nil {
			return err
		}
		if err := u.bookingsRepo.DeleteBooking(ctx, bookingID); err != nil {
			return err
		}
		return u.releaseJobsRepo.Delete(ctx, bookingID)
	})
	if err != nil {
		// The release job will clean up at the hold deadline.
		zerolog.Ctx(ctx).Err(err).
			Stringer("booking_id", bookingID).
			Msg("failed to roll back reservation after gateway error")
	}
}

// OccupiedSeats lists every held or booked seat label of the show.
func (u *ReserveSeatsUsecase) OccupiedSeats(ctx context.Context, showID uuid.UUID) ([]string, error) {
	if _, err := u.showsRepo.GetShow(ctx, showID); err != nil {
		return nil, err
	}
	return u.seatsRepo.OccupiedSeats(ctx, showID)
}

func validateSelection(seats []string) error {
	if len(seats) == 0 {
		return sdomain.ErrNoSeatsSelected
	}
	seen := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		if _, ok := seen[seat]; ok {
			return fmt.Errorf("seat %q: %w", seat, sdomain.ErrDuplicateSeats)
		}
		seen[seat] = struct{}{}
	}
	return nil
}

// IsValidationError reports whether the reservation failed on input rather
// than on state or infrastructure.
func IsValidationError(err error) bool {
	return errors.Is(err, sdomain.ErrNoSeatsSelected) ||
		errors.Is(err, sdomain.ErrDuplicateSeats) ||
		errors.Is(err, sdomain.ErrSeatOutsideLayout)
}
