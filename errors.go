package volstore

import (
	"errors"
	"strconv"
)

// Failure kinds, one per remote boundary. Use errors.Is to classify an error
// returned by the auth, provision and agent clients.
var (
	// ErrAuthentication is returned when the authentication endpoint rejects the credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAllocation is returned when a volume could not be allocated.
	ErrAllocation = errors.New("volume allocation failed")
	// ErrVolumeLookup is returned when a volume could not be looked up or searched.
	ErrVolumeLookup = errors.New("volume lookup failed")
	// ErrInvalidPath is returned for a malformed relative path, before any network call.
	ErrInvalidPath = errors.New("invalid path")
	// ErrDirectoryCreation is returned when one prefix of a directory plan could not be created.
	ErrDirectoryCreation = errors.New("directory creation failed")
	// ErrFileUpload is returned when a file could not be created.
	ErrFileUpload = errors.New("file upload failed")
	// ErrListing is returned when a volume path could not be listed.
	ErrListing = errors.New("listing failed")
	// ErrContentRead is returned when the content of an entry could not be read.
	ErrContentRead = errors.New("content read failed")
)

// Errors shared by the storage backends.
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a resource already exists
	ErrExists = errors.New("already exists")
	// ErrIsDirectory is returned when file content is requested for a directory
	ErrIsDirectory = errors.New("is a directory")
	// ErrNotDirectory is returned when a directory is expected but a file is found
	ErrNotDirectory = errors.New("not a directory")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller may not access a resource
	ErrForbidden = errors.New("forbidden")
)

// RemoteError describes a remote call that did not produce the expected
// response. Either StatusCode and Body are set (the service answered) or Err
// is set (the call never completed).
type RemoteError struct {
	Kind       error
	Op         string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " at " + strconv.Quote(e.Path)
	}
	if e.StatusCode != 0 {
		msg += ": status " + strconv.Itoa(e.StatusCode)
		if e.Body != "" {
			msg += " - " + e.Body
		}
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PathError reports a relative path rejected during normalization.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return "invalid path " + strconv.Quote(e.Path) + ": " + e.Reason
}

func (e *PathError) Unwrap() error {
	return ErrInvalidPath
}
