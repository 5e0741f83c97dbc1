package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"quickshow/internal/application/usecases/reservation"
	sdomain "quickshow/internal/domain/shows"
	udomain "quickshow/internal/domain/users"
	"quickshow/internal/observability"
)

type ReservationService interface {
	Reserve(ctx context.Context, in reservation.ReserveInput) (string, error)
	OccupiedSeats(ctx context.Context, showID uuid.UUID) ([]string, error)
}

type ShowsService interface {
	CreateShow(ctx context.Context, show sdomain.Show) (uuid.UUID, error)
}

type PaymentsService interface {
	Confirm(ctx context.Context, bookingID uuid.UUID, sessionID string) error
}

type UsersService interface {
	UpsertUser(ctx context.Context, user udomain.User) error
	DeleteUser(ctx context.Context, id string) error
}

type Server struct {
	e      *echo.Echo
	logger zerolog.Logger

	reservations ReservationService
	shows        ShowsService
	payments     PaymentsService
	users        UsersService

	stripeWebhookSecret string
	publicURL           string
	port                string
}

func NewServer(
	logger zerolog.Logger,
	reservations ReservationService,
	shows ShowsService,
	payments PaymentsService,
	users UsersService,
	stripeWebhookSecret string,
	publicURL string,
	port string,
	routerIsRunning func() bool,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		e:                   e,
		logger:              logger,
		reservations:        reservations,
		shows:               shows,
		payments:            payments,
		users:               users,
		stripeWebhookSecret: stripeWebhookSecret,
		publicURL:           publicURL,
		port:                port,
	}

	e.Use(srv.loggingMiddleware)

	e.POST("/bookings", srv.ReserveSeatsHandler)
	e.GET("/shows/:show_id/occupied-seats", srv.OccupiedSeatsHandler)
	e.POST("/shows", srv.CreateShowHandler)

	e.POST("/webhooks/stripe", srv.StripeWebhookHandler)
	e.POST("/webhooks/identity", srv.IdentityWebhookHandler)

	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})

	return srv
}

// loggingMiddleware hangs a request-scoped logger (with correlation id) on
// the request context and logs each request and its outcome.
func (s *Server) loggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		correlationID := c.Request().Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		reqLogger := s.logger.With().
			Str("correlation_id", correlationID).
			Str("path", c.Request().URL.Path).
			Logger()

		ctx := observability.ContextWithCorrelationID(c.Request().Context(), correlationID)
		c.SetRequest(c.Request().WithContext(reqLogger.WithContext(ctx)))

		reqLogger.Info().Msg("Handling a request")

		err := next(c)

		if err != nil {
			reqLogger.Err(err).Msg("Request handling error")
		}

		return err
	}
}

func (s *Server) Start() error {
	err := s.e.Start(":" + s.port)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// Echo exposes the router for handler tests.
func (s *Server) Echo() *echo.Echo {
	return s.e
}
