package shows

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Show is a scheduled screening of a movie. Seats are laid out as rows
// "A".."Z" (SeatRows of them) with numbers 1..SeatsPerRow.
type Show struct {
	Id          uuid.UUID `json:"show_id" db:"id"`
	MovieTitle  string    `json:"movie_title" db:"movie_title"`
	PriceCents  int64     `json:"price_cents" db:"price_cents"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	SeatRows    int       `json:"seat_rows" db:"seat_rows"`
	SeatsPerRow int       `json:"seats_per_row" db:"seats_per_row"`
}

// SeatInLayout reports whether a seat label like "A12" falls inside the
// show's layout.
func (s Show) SeatInLayout(seat string) bool {
	if len(seat) < 2 {
		return false
	}
	row := seat[0]
	if row < 'A' || row >= byte('A'+s.SeatRows) {
		return false
	}
	n, err := strconv.Atoi(seat[1:])
	if err != nil {
		return false
	}
	return n >= 1 && n <= s.SeatsPerRow
}

func (s Show) Validate() error {
	if s.MovieTitle == "" {
		return fmt.Errorf("movie title is required")
	}
	if s.PriceCents <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if s.SeatRows < 1 || s.SeatRows > 26 {
		return fmt.Errorf("seat rows must be between 1 and 26")
	}
	if s.SeatsPerRow < 1 {
		return fmt.Errorf("seats per row must be positive")
	}
	return nil
}

// SeatHold is one occupied seat of a show together with its holder.
type SeatHold struct {
	ShowID    uuid.UUID `db:"show_id"`
	Seat      string    `db:"seat"`
	BookingID uuid.UUID `db:"booking_id"`
	UserID    string    `db:"user_id"`
	HeldAt    time.Time `db:"held_at"`
}
