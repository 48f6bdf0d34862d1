package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"clobrub/internal/engine"
)

// handleOrderBook implements GET /api/v1/public/orderbook/{ticker}.
func (s *Services) handleOrderBook(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	book, err := s.Engine.OrderBook(r.Context(), ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// handleTrades implements GET /api/v1/public/transactions/{ticker}?limit=N.
func (s *Services) handleTrades(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	exists, err := s.Instruments.Exists(r.Context(), ticker)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, fmt.Errorf("ticker %s: %w", ticker, engine.ErrUnknownInstrument))
		return
	}

	trades, err := s.Engine.RecentTrades(r.Context(), ticker, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// handleHealth verifies database connectivity.
func (s *Services) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "database connection failed"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{"healthy"})
}
