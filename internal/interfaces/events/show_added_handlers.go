package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/rs/zerolog"

	"quickshow/internal/entities"
	"quickshow/internal/notifications"
)

// AnnounceShowHandler broadcasts a new-show announcement to every user.
// Per-recipient failures are logged and counted but never fail the handler:
// redelivering the whole broadcast would double-mail the users that already
// got it.
func (h *Handler) AnnounceShowHandler() cqrs.EventHandler {
	return cqrs.NewEventHandler(
		"announce_show_handler",
		func(ctx context.Context, payload *entities.ShowAdded_v1) error {
			logger := zerolog.Ctx(ctx)

			users, err := h.usersRepo.ListUsers(ctx)
			if err != nil {
				return err
			}

			sent, failed := 0, 0
			for _, user := range users {
				email, err := notifications.AnnouncementEmail(user, payload.MovieTitle)
				if err != nil {
					failed++
					continue
				}
				if err := h.mailer.Send(ctx, user.Email, email.Subject, email.Body); err != nil {
					logger.Err(err).
						Str("user_id", user.Id).
						Msg("failed to send new-show announcement")
					failed++
					continue
				}
				sent++
			}

			logger.Info().
				Stringer("show_id", payload.ShowID).
				Int("sent", sent).
				Int("failed", failed).
				Msg("new-show announcement finished")
			return nil
		},
	)
}
