package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	udomain "quickshow/internal/domain/users"
)

type IdentityWebhookRequest struct {
	Type string `json:"type"`
	Data struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}

// IdentityWebhookHandler keeps the local users table in sync with the
// identity provider. Upserts are idempotent so replayed deliveries are safe.
func (s *Server) IdentityWebhookHandler(c echo.Context) error {
	ctx := c.Request().Context()
	logger := zerolog.Ctx(ctx)

	var request IdentityWebhookRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed request body"})
	}
	if request.Data.ID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	switch request.Type {
	case "user.created", "user.updated":
		err := s.users.UpsertUser(ctx, udomain.User{
			Id:    request.Data.ID,
			Name:  request.Data.Name,
			Email: request.Data.Email,
		})
		if err != nil {
			logger.Error().Err(err).Str("user_id", request.Data.ID).Msg("Failed to upsert user")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sync user"})
		}
	case "user.deleted":
		if err := s.users.DeleteUser(ctx, request.Data.ID); err != nil {
			logger.Error().Err(err).Str("user_id", request.Data.ID).Msg("Failed to delete user")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sync user"})
		}
	default:
		logger.Info().Str("event_type", request.Type).Msg("Ignoring identity event")
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
