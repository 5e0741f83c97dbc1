package shows

import "errors"

var (
	ErrShowNotFound      = errors.New("show not found")
	ErrSeatsUnavailable  = errors.New("selected seats are not available")
	ErrNoSeatsSelected   = errors.New("no seats selected")
	ErrDuplicateSeats    = errors.New("duplicate seats in selection")
	ErrSeatOutsideLayout = errors.New("seat is outside the show's layout")
)
