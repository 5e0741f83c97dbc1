package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	sdomain "quickshow/internal/domain/shows"
)

type CreateShowRequest struct {
	MovieTitle  string    `json:"movie_title"`
	PriceCents  int64     `json:"price_cents"`
	StartsAt    time.Time `json:"starts_at"`
	SeatRows    int       `json:"seat_rows"`
	SeatsPerRow int       `json:"seats_per_row"`
}

type CreateShowResponse struct {
	Success bool      `json:"success"`
	ShowID  uuid.UUID `json:"show_id,omitempty"`
	Message string    `json:"message,omitempty"`
}

func (s *Server) CreateShowHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateShowRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, CreateShowResponse{
			Success: false,
			Message: "malformed request body",
		})
	}

	showID, err := s.shows.CreateShow(ctx, sdomain.Show{
		MovieTitle:  request.MovieTitle,
		PriceCents:  request.PriceCents,
		StartsAt:    request.StartsAt,
		SeatRows:    request.SeatRows,
		SeatsPerRow: request.SeatsPerRow,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, CreateShowResponse{
			Success: false,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, CreateShowResponse{
		Success: true,
		ShowID:  showID,
	})
}
