package events

import (
	"context"

	"github.com/google/uuid"

	bdomain "quickshow/internal/domain/bookings"
	sdomain "quickshow/internal/domain/shows"
	udomain "quickshow/internal/domain/users"
	"quickshow/internal/repository"
)

type MailService interface {
	Send(ctx context.Context, to, subject, body string) error
}

type BookingsRepository interface {
	GetBooking(ctx context.Context, id uuid.UUID) (bdomain.Booking, error)
}

type ShowsRepository interface {
	GetShow(ctx context.Context, id uuid.UUID) (sdomain.Show, error)
}

type UsersRepository interface {
	GetUser(ctx context.Context, id string) (udomain.User, error)
	ListUsers(ctx context.Context) ([]udomain.User, error)
}

type OrphanedPaymentsRepository interface {
	Record(ctx context.Context, p repository.OrphanedPayment) error
}

type Handler struct {
	mailer       MailService
	bookingsRepo BookingsRepository
	showsRepo    ShowsRepository
	usersRepo    UsersRepository
	orphanedRepo OrphanedPaymentsRepository
}

func NewHandler(
	mailer MailService,
	bookingsRepo BookingsRepository,
	showsRepo ShowsRepository,
	usersRepo UsersRepository,
	orphanedRepo OrphanedPaymentsRepository,
) *Handler {
	return &Handler{
		mailer:       mailer,
		bookingsRepo: bookingsRepo,
		showsRepo:    showsRepo,
		usersRepo:    usersRepo,
		orphanedRepo: orphanedRepo,
	}
}
