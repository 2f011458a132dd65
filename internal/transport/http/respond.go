package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"lpk-quiz-service/internal/domain"
)

var (
	errInvalidBody  = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

type errorPayload struct {
	Message string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps domain errors to statuses. Anything unrecognised is an
// internal error and its details stay in the log.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorPayload{Message: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, domain.ErrEmptyAnswers),
		errors.Is(err, domain.ErrInvalidQuizID):
		return http.StatusBadRequest
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrQuizInactive),
		errors.Is(err, domain.ErrQuizNotStarted),
		errors.Is(err, domain.ErrQuizEnded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// statusLabel is the metrics label for an error outcome.
func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch statusFor(err) {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "error"
	}
}
