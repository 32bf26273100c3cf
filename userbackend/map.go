// Package userbackend provides the user stores behind the sandbox
// authentication endpoint.
package userbackend

import (
	"crypto/subtle"
	"fmt"
)

// MapUserStore keeps username to password pairs in memory.
type MapUserStore struct {
	users map[string]string
}

// NewMapUserStore creates a store from a username to password map.
func NewMapUserStore(users map[string]string) *MapUserStore {
	return &MapUserStore{users: users}
}

// Verify checks a username and password. Both failures also match
// volstore.ErrUnauthorized.
func (s *MapUserStore) Verify(username, password string) error {
	want, found := s.users[username]
	if !found {
		return fmt.Errorf("verify %q: %w", username, unauthorized(ErrUserNotFound))
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 {
		return fmt.Errorf("verify %q: %w", username, unauthorized(ErrBadPassword))
	}
	return nil
}

// Len returns the number of known users.
func (s *MapUserStore) Len() int {
	return len(s.users)
}
