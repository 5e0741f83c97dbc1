package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	sdomain "quickshow/internal/domain/shows"
	udomain "quickshow/internal/domain/users"
)

type ShowsRepo interface {
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]sdomain.Show, error)
}

type SeatsRepo interface {
	HolderIDs(ctx context.Context, showID uuid.UUID) ([]string, error)
}

type UsersRepo interface {
	ListUsersByIDs(ctx context.Context, ids []string) ([]udomain.User, error)
}

type MailService interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Report counts the outcome of one reminder pass. Sends fail independently
// per recipient; one bounced address never blocks the rest.
type Report struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ReminderService mails seat holders of shows starting within the lookahead
// window. It runs on a fixed cron schedule matching the window size, so the
// window start is trimmed to keep consecutive runs from overlapping.
type ReminderService struct {
	showsRepo ShowsRepo
	seatsRepo SeatsRepo
	usersRepo UsersRepo
	mailer    MailService
	logger    zerolog.Logger

	lookahead time.Duration
	overlap   time.Duration
	now       func() time.Time
}

func NewReminderService(
	showsRepo ShowsRepo,
	seatsRepo SeatsRepo,
	usersRepo UsersRepo,
	mailer MailService,
	logger zerolog.Logger,
) *ReminderService {
	return &ReminderService{
		showsRepo: showsRepo,
		seatsRepo: seatsRepo,
		usersRepo: usersRepo,
		mailer:    mailer,
		logger:    logger,
		lookahead: 8 * time.Hour,
		overlap:   10 * time.Minute,
		now:       time.Now,
	}
}

// RunOnce executes a single reminder pass over the window
// [now+lookahead-overlap, now+lookahead].
func (s *ReminderService) RunOnce(ctx context.Context) (Report, error) {
	windowEnd := s.now().Add(s.lookahead)
	windowStart := windowEnd.Add(-s.overlap)

	shows, err := s.showsRepo.ListStartingBetween(ctx, windowStart, windowEnd)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, show := range shows {
		holderIDs, err := s.seatsRepo.HolderIDs(ctx, show.Id)
		if err != nil {
			return report, err
		}
		if len(holderIDs) == 0 {
			continue
		}

		users, err := s.usersRepo.ListUsersByIDs(ctx, holderIDs)
		if err != nil {
			return report, err
		}

		for _, user := range users {
			email, err := ReminderEmail(user, show)
			if err != nil {
				report.Failed++
				continue
			}
			if err := s.mailer.Send(ctx, user.Email, email.Subject, email.Body); err != nil {
				s.logger.Err(err).
					Str("user_id", user.Id).
					Stringer("show_id", show.Id).
					Msg("failed to send show reminder")
				report.Failed++
				continue
			}
			report.Sent++
		}
	}

	s.logger.Info().
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("reminder pass finished")
	return report, nil
}
