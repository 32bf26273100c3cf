package userbackend

import (
	"encoding/json"
	"fmt"
	"os"
)

// User is one username and password pair.
type User struct {
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
}

// LoadUsersFromFile loads users from a JSON file holding an array of users:
//
//	[
//	  {"username": "alice", "password": "secret"},
//	  {"username": "bob", "password": "hunter2"}
//	]
//
// Entries with an empty username or password are skipped.
func LoadUsersFromFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}

	var list []User
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}

	users := make(map[string]string, len(list))
	for _, u := range list {
		if u.Username != "" && u.Password != "" {
			users[u.Username] = u.Password
		}
	}

	return users, nil
}
