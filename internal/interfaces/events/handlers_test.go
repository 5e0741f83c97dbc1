package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bdomain "quickshow/internal/domain/bookings"
	sdomain "quickshow/internal/domain/shows"
	udomain "quickshow/internal/domain/users"
	"quickshow/internal/entities"
	"quickshow/internal/repository"
)

type sentMail struct {
	to      string
	subject string
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	if f.failFor[to] {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject})
	return nil
}

type fakeBookingsRepo struct {
	bookings map[uuid.UUID]bdomain.Booking
}

func (f *fakeBookingsRepo) GetBooking(_ context.Context, id uuid.UUID) (bdomain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return bdomain.Booking{}, bdomain.ErrBookingNotFound
	}
	return b, nil
}

type fakeShowsRepo struct {
	shows map[uuid.UUID]sdomain.Show
}

func (f *fakeShowsRepo) GetShow(_ context.Context, id uuid.UUID) (sdomain.Show, error) {
	s, ok := f.shows[id]
	if !ok {
		return sdomain.Show{}, sdomain.ErrShowNotFound
	}
	return s, nil
}

type fakeUsersRepo struct {
	users []udomain.User
}

func (f *fakeUsersRepo) GetUser(_ context.Context, id string) (udomain.User, error) {
	for _, u := range f.users {
		if u.Id == id {
			return u, nil
		}
	}
	return udomain.User{}, udomain.ErrUserNotFound
}

func (f *fakeUsersRepo) ListUsers(_ context.Context) ([]udomain.User, error) {
	return f.users, nil
}

type fakeOrphanedRepo struct {
	recorded []repository.OrphanedPayment
}

func (f *fakeOrphanedRepo) Record(_ context.Context, p repository.OrphanedPayment) error {
	f.recorded = append(f.recorded, p)
	return nil
}

func TestSendBookingConfirmationHandler(t *testing.T) {
	bookingID := uuid.New()
	showID := uuid.New()

	newFixture := func() (*fakeMailer, *Handler) {
		mailer := &fakeMailer{}
		h := NewHandler(
			mailer,
			&fakeBookingsRepo{bookings: map[uuid.UUID]bdomain.Booking{
				bookingID: {
					Id:          bookingID,
					UserID:      "u1",
					ShowID:      showID,
					Seats:       []string{"A1"},
					AmountCents: 1500,
				},
			}},
			&fakeShowsRepo{shows: map[uuid.UUID]sdomain.Show{
				showID: {Id: showID, MovieTitle: "Alien", StartsAt: time.Now().Add(24 * time.Hour)},
			}},
			&fakeUsersRepo{users: []udomain.User{
				{Id: "u1", Name: "Ada", Email: "ada@example.com"},
			}},
			&fakeOrphanedRepo{},
		)
		return mailer, h
	}

	t.Run("mails the booking holder", func(t *testing.T) {
		mailer, h := newFixture()

		err := h.SendBookingConfirmationHandler().Handle(context.Background(), &entities.BookingPaid_v1{
			BookingID: bookingID,
		})
		require.NoError(t, err)

		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "ada@example.com", mailer.sent[0].to)
		assert.Contains(t, mailer.sent[0].subject, "Alien")
	})

	t.Run("skips silently when the booking is gone", func(t *testing.T) {
		mailer, h := newFixture()

		err := h.SendBookingConfirmationHandler().Handle(context.Background(), &entities.BookingPaid_v1{
			BookingID: uuid.New(),
		})
		require.NoError(t, err)
		assert.Empty(t, mailer.sent)
	})

	t.Run("returns send failures for redelivery", func(t *testing.T) {
		mailer, h := newFixture()
		mailer.failFor = map[string]bool{"ada@example.com": true}

		err := h.SendBookingConfirmationHandler().Handle(context.Background(), &entities.BookingPaid_v1{
			BookingID: bookingID,
		})
		assert.Error(t, err)
	})
}

func TestAnnounceShowHandler(t *testing.T) {
	mailer := &fakeMailer{failFor: map[string]bool{"bob@example.com": true}}
	h := NewHandler(
		mailer,
		&fakeBookingsRepo{},
		&fakeShowsRepo{},
		&fakeUsersRepo{users: []udomain.User{
			{Id: "u1", Name: "Ada", Email: "ada@example.com"},
			{Id: "u2", Name: "Bob", Email: "bob@example.com"},
			{Id: "u3", Name: "Eve", Email: "eve@example.com"},
		}},
		&fakeOrphanedRepo{},
	)

	err := h.AnnounceShowHandler().Handle(context.Background(), &entities.ShowAdded_v1{
		ShowID:     uuid.New(),
		MovieTitle: "Stalker",
	})

	// One bounced recipient must not fail the broadcast; a retry would
	// double-mail everyone else.
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 2)
}

func TestRecordOrphanedPaymentHandler(t *testing.T) {
	orphaned := &fakeOrphanedRepo{}
	h := NewHandler(&fakeMailer{}, &fakeBookingsRepo{}, &fakeShowsRepo{}, &fakeUsersRepo{}, orphaned)

	bookingID := uuid.New()
	receivedAt := time.Now()

	err := h.RecordOrphanedPaymentHandler().Handle(context.Background(), &entities.PaymentOrphaned_v1{
		BookingID:  bookingID,
		SessionID:  "cs_test_123",
		ReceivedAt: receivedAt,
	})
	require.NoError(t, err)

	require.Len(t, orphaned.recorded, 1)
	assert.Equal(t, bookingID, orphaned.recorded[0].BookingID)
	assert.Equal(t, "cs_test_123", orphaned.recorded[0].SessionID)
}

func TestTopicForEvent(t *testing.T) {
	assert.Equal(t, "events.BookingPaid_v1",
		topicForEvent("BookingPaid_v1", entities.BookingPaid_v1{}))
	assert.Equal(t, "events.ShowAdded_v1",
		topicForEvent("ShowAdded_v1", entities.ShowAdded_v1{}))
	assert.Equal(t, "internal-events.svc-quickshow.PaymentOrphaned_v1",
		topicForEvent("PaymentOrphaned_v1", entities.PaymentOrphaned_v1{}))
}
