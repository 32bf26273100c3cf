package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sagarc03/volstore"
)

// StatusError is a response with an unexpected status code.
type StatusError struct {
	StatusCode int
	Body       string
	Header     http.Header
}

func (e *StatusError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Wrap classifies err as a failure of the given kind. Path errors pass
// through unchanged since they are raised before any call is made.
func Wrap(kind error, op, path string, err error) error {
	if err == nil {
		return nil
	}

	var pathErr *volstore.PathError
	if errors.As(err, &pathErr) {
		return err
	}

	var remote *volstore.RemoteError
	if errors.As(err, &remote) && errors.Is(err, kind) {
		return err
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &volstore.RemoteError{
			Kind:       kind,
			Op:         op,
			Path:       path,
			StatusCode: statusErr.StatusCode,
			Body:       statusErr.Body,
		}
	}

	return &volstore.RemoteError{Kind: kind, Op: op, Path: path, Err: err}
}
