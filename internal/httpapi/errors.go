package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"clobrub/internal/engine"
	"clobrub/internal/instruments"
	"clobrub/internal/ledger"
	"clobrub/internal/store"
	"clobrub/internal/users"
)

// writeJSON encodes v as the response body with status and a JSON
// content type set.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps a typed sentinel error to its HTTP status, rather than
// matching on error text.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, users.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, users.ErrForbidden), errors.Is(err, engine.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrOrderNotFound),
		errors.Is(err, store.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, users.ErrUnknown),
		errors.Is(err, engine.ErrUnknownInstrument),
		errors.Is(err, instruments.ErrUnknown),
		errors.Is(err, instruments.ErrExists),
		errors.Is(err, engine.ErrNotCancellable),
		errors.Is(err, engine.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, engine.ErrInsufficientLiquidity):
		status = http.StatusBadRequest
	case errors.Is(err, users.ErrNameTooShort), errors.Is(err, engine.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrTransient):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}
