package volstore

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// StorageFormat selects how a volume keeps its content.
type StorageFormat string

// FormatDataDirectory is the only format this client allocates: a plain
// directory tree on the storage agent.
const FormatDataDirectory StorageFormat = "DATA_DIRECTORY"

// Credentials is a username/password pair. It is only held for the duration
// of an authentication call.
type Credentials struct {
	Username string
	Password string
}

// Validate checks that both fields are set.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username is required: %w", ErrInvalidInput)
	}
	if c.Password == "" {
		return fmt.Errorf("password is required: %w", ErrInvalidInput)
	}
	return nil
}

// Token is an opaque bearer credential issued by the authentication endpoint.
type Token string

// IsZero reports whether the token is empty.
func (t Token) IsZero() bool {
	return strings.TrimSpace(string(t)) == ""
}

// Header returns the Authorization header value for the token.
func (t Token) Header() string {
	return "Bearer " + string(t)
}

// OwnerKey derives the conventional owner key for a user.
func OwnerKey(username string) string {
	return "user:" + username
}

// VolumeHandle identifies one allocated volume. It is returned by allocation
// and lookup and is never modified afterwards.
type VolumeHandle struct {
	ID       string        `json:"id"`
	BaseURL  string        `json:"connectionURL"`
	OwnerKey string        `json:"ownerKey"`
	Name     string        `json:"name"`
	Format   StorageFormat `json:"storageFormat,omitempty"`
	Tags     []string      `json:"storageTags,omitempty"`
}

// Validate checks that the handle can address the storage agent.
func (v VolumeHandle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("volume id is required: %w", ErrInvalidInput)
	}
	if v.BaseURL == "" {
		return fmt.Errorf("volume connection URL is required: %w", ErrInvalidInput)
	}
	return nil
}

// EntryType distinguishes directories from files.
type EntryType string

const (
	EntryDirectory EntryType = "directory"
	EntryFile      EntryType = "file"
)

// Entry describes a directory or file inside a volume.
type Entry struct {
	VolumeID  string `json:"storageId"`
	Path      string `json:"nodeRelativePath"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType,omitempty"`
	Directory bool   `json:"collectionFlag"`
	AccessURL string `json:"nodeAccessURL,omitempty"`
}

// Name returns the last segment of the entry path.
func (e Entry) Name() string {
	if e.Path == "" {
		return ""
	}
	return path.Base(e.Path)
}

// Type returns EntryDirectory or EntryFile.
func (e Entry) Type() EntryType {
	if e.Directory {
		return EntryDirectory
	}
	return EntryFile
}

// Tables holds configurable table names for the volume registry.
type Tables struct {
	Volumes string `mapstructure:"volumes"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Volumes == "" {
		return errors.New("validate tables: volumes table name cannot be empty")
	}

	if !IsValidTableName(t.Volumes) {
		return fmt.Errorf("validate tables: invalid volumes table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Volumes)
	}

	return nil
}
