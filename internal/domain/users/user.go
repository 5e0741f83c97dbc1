package users

import "errors"

// User mirrors the identity provider's profile fields. The id is the
// provider's identifier, not one of ours.
type User struct {
	Id    string `json:"user_id" db:"id"`
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
}

var ErrUserNotFound = errors.New("user not found")
