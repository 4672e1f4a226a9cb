package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/blackmichael/spotreport/internal/domain"
)

// Client-facing error messages.
const (
	msgConflict     = "Already exists!"
	msgKindInUse    = "Kind is in use!"
	msgNotFound     = "Not found!"
	msgUnavailable  = "Image classification is unavailable, try again later."
	msgNotReady     = "Service is starting, try again later."
	msgRateLimited  = "Too many requests, slow down."
	msgTooLarge     = "Upload is too large."
	msgInternal     = "Internal server error."
	msgInvalidJSON  = "Request body must be a JSON object."
	msgInvalidID    = "Post id must be an integer."
	msgInvalidCoord = "%s must be a number."
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps service errors to responses. It is the only place
// that turns errors into status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status  int
		message string
		ve      *domain.ValidationError
		maxErr  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &ve):
		status, message = http.StatusBadRequest, ve.Message
	case errors.Is(err, domain.ErrConflict):
		status, message = http.StatusBadRequest, msgConflict
	case errors.Is(err, domain.ErrKindInUse):
		status, message = http.StatusBadRequest, msgKindInUse
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrClassifierUnavailable):
		status, message = http.StatusServiceUnavailable, msgUnavailable
	case errors.As(err, &maxErr):
		status, message = http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads the response.
		status, message = 499, "Client closed request."
	default:
		status, message = http.StatusInternalServerError, msgInternal
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)

	writeMessage(w, status, message)
}
