package userbackend

import (
	"errors"

	"github.com/sagarc03/volstore"
)

// ErrUserNotFound is returned when the username does not exist in the store.
var ErrUserNotFound = errors.New("user not found")

// ErrBadPassword is returned when the password does not match.
var ErrBadPassword = errors.New("password mismatch")

func unauthorized(err error) error {
	return errors.Join(err, volstore.ErrUnauthorized)
}
