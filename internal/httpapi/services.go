// Package httpapi exposes the trading service over HTTP: a thin JSON
// layer translating requests into calls against the engine, ledger,
// instrument registry and user store, and translating their typed
// errors back into the matching HTTP status codes.
package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/rs/zerolog"

	"clobrub/internal/engine"
	"clobrub/internal/instruments"
	"clobrub/internal/ledger"
	"clobrub/internal/users"
)

// Services bundles every dependency a handler needs, constructed once in
// main; every handler is a method on it — there is no package-level
// global state anywhere in this package.
type Services struct {
	DB          *sql.DB
	Engine      *engine.Engine
	Ledger      *ledger.Ledger
	Instruments *instruments.Registry
	Users       *users.Store
	Log         zerolog.Logger
}

// NewRouter builds the full request-routing table.
func NewRouter(s *Services) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/public/register", s.handleRegister)
	mux.HandleFunc("GET /api/v1/public/instrument", s.handleListInstruments)
	mux.HandleFunc("GET /api/v1/public/orderbook/{ticker}", s.handleOrderBook)
	mux.HandleFunc("GET /api/v1/public/transactions/{ticker}", s.handleTrades)

	mux.HandleFunc("POST /api/v1/admin/instrument", s.withAuth(s.withAdmin(s.handleCreateInstrument)))
	mux.HandleFunc("DELETE /api/v1/admin/instrument/{ticker}", s.withAuth(s.withAdmin(s.handleDeleteInstrument)))

	mux.HandleFunc("GET /api/v1/balance", s.withAuth(s.handleGetBalances))
	mux.HandleFunc("POST /api/v1/admin/balance/deposit", s.withAuth(s.withAdmin(s.handleDeposit)))
	mux.HandleFunc("POST /api/v1/admin/balance/withdraw", s.withAuth(s.withAdmin(s.handleWithdraw)))

	mux.HandleFunc("POST /api/v1/order", s.withAuth(s.handleSubmitOrder))
	mux.HandleFunc("GET /api/v1/order", s.withAuth(s.handleListOrders))
	mux.HandleFunc("GET /api/v1/order/{id}", s.withAuth(s.handleGetOrder))
	mux.HandleFunc("DELETE /api/v1/order/{id}", s.withAuth(s.handleCancelOrder))

	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}
