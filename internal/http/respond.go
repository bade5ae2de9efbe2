package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/core"
)

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Status: "error", Message: message})
}

// statusForError maps domain validation failures to 400 and everything else to 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidTransactionType),
		errors.Is(err, core.ErrInsufficientFunds),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrEmptyCategoryTitle):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
