package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrCredentialsRequired = errors.New("username and password, or a token, are required")
	ErrUsernameRequired    = errors.New("username is required")
	ErrConfigRequired      = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrEmptyPath   = errors.New("path is required")
	ErrEmptyVolume = errors.New("volume is required")
)
