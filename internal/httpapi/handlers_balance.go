package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"clobrub/internal/engine"
	"clobrub/internal/users"
)

// handleGetBalances implements GET /api/v1/balance: every balance the
// authenticated user holds, keyed by ticker.
func (s *Services) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r)
	balances, err := s.Ledger.ListByUser(r.Context(), s.DB, u.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	byTicker := make(map[string]int64, len(balances))
	for _, b := range balances {
		byTicker[b.Ticker] = b.Amount
	}
	writeJSON(w, http.StatusOK, byTicker)
}

type adminBalanceRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Ticker string    `json:"ticker"`
	Amount int64     `json:"amount"`
}

// handleDeposit implements POST /api/v1/admin/balance/deposit.
func (s *Services) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.adminBalanceMutation(w, r, func(tx *sql.Tx, userID uuid.UUID, ticker string, amount int64) error {
		return s.Ledger.AdminCredit(r.Context(), tx, userID, ticker, amount)
	})
}

// handleWithdraw implements POST /api/v1/admin/balance/withdraw.
func (s *Services) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.adminBalanceMutation(w, r, func(tx *sql.Tx, userID uuid.UUID, ticker string, amount int64) error {
		return s.Ledger.AdminDebit(r.Context(), tx, userID, ticker, amount)
	})
}

func (s *Services) adminBalanceMutation(w http.ResponseWriter, r *http.Request, apply func(tx *sql.Tx, userID uuid.UUID, ticker string, amount int64) error) {
	var req adminBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if req.Amount <= 0 {
		writeError(w, fmt.Errorf("amount must be > 0: %w", engine.ErrValidation))
		return
	}

	exists, err := s.userExists(r, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, fmt.Errorf("user %s: %w", req.UserID, users.ErrUnknown))
		return
	}
	tickerOK, err := s.Instruments.Exists(r.Context(), req.Ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	if !tickerOK {
		writeError(w, fmt.Errorf("ticker %s: %w", req.Ticker, engine.ErrUnknownInstrument))
		return
	}

	tx, err := s.DB.BeginTx(r.Context(), nil)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := apply(tx, req.UserID, req.Ticker, req.Amount); err != nil {
		tx.Rollback()
		writeError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

func (s *Services) userExists(r *http.Request, id uuid.UUID) (bool, error) {
	_, err := s.Users.ByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUnknown) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
