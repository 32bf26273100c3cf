package sandbox

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/volstore"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, volstore.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, volstore.ErrExists):
		WriteError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, volstore.ErrNotDirectory):
		WriteError(w, http.StatusConflict, "not_a_directory", err.Error())
	case errors.Is(err, volstore.ErrInvalidPath), errors.Is(err, volstore.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, volstore.ErrIsDirectory):
		WriteError(w, http.StatusBadRequest, "is_directory", err.Error())
	case errors.Is(err, volstore.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing credentials")
	case errors.Is(err, volstore.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.As(err, &maxBytes):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body too large")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
