package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeWebhookHandler verifies and processes Stripe webhook events.
// Only checkout.session.completed marks a booking as paid; everything
// else is acknowledged and ignored.
func (s *Server) StripeWebhookHandler(c echo.Context) error {
	ctx := c.Request().Context()
	logger := zerolog.Ctx(ctx)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to read request body"})
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")
	if sigHeader == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing Stripe-Signature header"})
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, s.stripeWebhookSecret)
	if err != nil {
		logger.Warn().Err(err).Msg("Stripe webhook signature verification failed")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	if event.Type != "checkout.session.completed" {
		logger.Info().Str("event_type", string(event.Type)).Msg("Ignoring Stripe event")
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		logger.Error().Err(err).Msg("Failed to parse checkout session payload")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "failed to parse event data"})
	}

	bookingID, err := uuid.Parse(session.Metadata["booking_id"])
	if err != nil {
		logger.Error().
			Str("session_id", session.ID).
			Msg("Checkout session completed without a booking_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing booking_id metadata"})
	}

	if err := s.payments.Confirm(ctx, bookingID, session.ID); err != nil {
		// Non-2xx makes Stripe retry the delivery, which is what we want
		// for transient failures.
		logger.Error().Err(err).
			Str("booking_id", bookingID.String()).
			Msg("Failed to confirm payment")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm payment"})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
