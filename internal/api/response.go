package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
	"github.com/gyaneshwarpardhi/bayesnet/internal/engine"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeQueryError maps engine and network errors onto HTTP statuses.
func writeQueryError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bayes.ErrNodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrQueueFull):
		status = http.StatusTooManyRequests
	case errors.Is(err, engine.ErrTimeout):
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, err.Error())
}
