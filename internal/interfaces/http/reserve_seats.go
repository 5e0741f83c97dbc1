package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"quickshow/internal/application/usecases/reservation"
	sdomain "quickshow/internal/domain/shows"
)

type ReserveSeatsRequest struct {
	ShowID string   `json:"show_id"`
	Seats  []string `json:"seats"`
}

// ReserveSeatsResponse is the uniform reservation envelope: either a
// checkout redirect URL or a failure message, never an unhandled error.
type ReserveSeatsResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) ReserveSeatsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request ReserveSeatsRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ReserveSeatsResponse{
			Success: false,
			Message: "malformed request body",
		})
	}

	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ReserveSeatsResponse{
			Success: false,
			Message: "missing user identity",
		})
	}

	showID, err := uuid.Parse(request.ShowID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ReserveSeatsResponse{
			Success: false,
			Message: "show_id is not a valid UUID",
		})
	}

	origin := c.Request().Header.Get("Origin")
	if origin == "" {
		origin = s.publicURL
	}

	url, err := s.reservations.Reserve(ctx, reservation.ReserveInput{
		ShowID: showID,
		UserID: userID,
		Seats:  request.Seats,
		Origin: origin,
	})

	switch {
	case err == nil:
		return c.JSON(http.StatusOK, ReserveSeatsResponse{
			Success: true,
			URL:     url,
		})

	case errors.Is(err, sdomain.ErrShowNotFound):
		return c.JSON(http.StatusNotFound, ReserveSeatsResponse{
			Success: false,
			Message: "Show not found",
		})

	case errors.Is(err, sdomain.ErrSeatsUnavailable):
		return c.JSON(http.StatusConflict, ReserveSeatsResponse{
			Success: false,
			Message: "Selected Seats are not available",
		})

	case reservation.IsValidationError(err):
		return c.JSON(http.StatusBadRequest, ReserveSeatsResponse{
			Success: false,
			Message: err.Error(),
		})

	default:
		return c.JSON(http.StatusBadGateway, ReserveSeatsResponse{
			Success: false,
			Message: "failed to process reservation",
		})
	}
}

type OccupiedSeatsResponse struct {
	Success       bool     `json:"success"`
	OccupiedSeats []string `json:"occupiedSeats"`
	Message       string   `json:"message,omitempty"`
}

func (s *Server) OccupiedSeatsHandler(c echo.Context) error {
	ctx := c.Request().Context()

	showID, err := uuid.Parse(c.Param("show_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, OccupiedSeatsResponse{
			Success: false,
			Message: "show_id is not a valid UUID",
		})
	}

	seats, err := s.reservations.OccupiedSeats(ctx, showID)
	switch {
	case err == nil:
		if seats == nil {
			seats = []string{}
		}
		return c.JSON(http.StatusOK, OccupiedSeatsResponse{
			Success:       true,
			OccupiedSeats: seats,
		})

	case errors.Is(err, sdomain.ErrShowNotFound):
		return c.JSON(http.StatusNotFound, OccupiedSeatsResponse{
			Success: false,
			Message: "Show not found",
		})

	default:
		return c.JSON(http.StatusInternalServerError, OccupiedSeatsResponse{
			Success: false,
			Message: "failed to list occupied seats",
		})
	}
}
