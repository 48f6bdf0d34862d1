// Package instruments is the read-only-to-callers registry of tradeable
// tickers; only admin routes mutate it.
package instruments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clobrub/internal/models"
)

// ErrExists is returned by Create when the ticker is already registered.
var ErrExists = errors.New("instrument already exists")

// ErrUnknown is returned when a ticker has no matching instrument.
var ErrUnknown = errors.New("unknown instrument")

// ErrProtected is returned by Delete for the RUB quote asset, which is
// never removed.
var ErrProtected = errors.New("the quote asset cannot be deleted")

// Registry manages the instruments table.
type Registry struct {
	db *sql.DB
}

// New constructs a Registry bound to db.
func New(db *sql.DB) *Registry { return &Registry{db: db} }

// List returns every registered instrument.
func (r *Registry) List(ctx context.Context) ([]models.Instrument, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ticker, name FROM instruments ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	var out []models.Instrument
	for rows.Next() {
		var i models.Instrument
		if err := rows.Scan(&i.Ticker, &i.Name); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Exists reports whether ticker is a registered instrument.
func (r *Registry) Exists(ctx context.Context, ticker string) (bool, error) {
	var found int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM instruments WHERE ticker = $1`, ticker).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check instrument %s: %w", ticker, err)
	}
	return true, nil
}

// Create registers a new ticker, failing with ErrExists if it's already present.
func (r *Registry) Create(ctx context.Context, name, ticker string) error {
	exists, err := r.Exists(ctx, ticker)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create instrument %s: %w", ticker, ErrExists)
	}
	if _, err := r.db.ExecContext(ctx, `INSERT INTO instruments (ticker, name) VALUES ($1, $2)`, ticker, name); err != nil {
		return fmt.Errorf("insert instrument %s: %w", ticker, err)
	}
	return nil
}

// Delete removes ticker, failing with ErrUnknown if it doesn't exist and
// with ErrProtected for RUB.
func (r *Registry) Delete(ctx context.Context, ticker string) error {
	if ticker == models.RUB {
		return fmt.Errorf("delete instrument %s: %w", ticker, ErrProtected)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM instruments WHERE ticker = $1`, ticker)
	if err != nil {
		return fmt.Errorf("delete instrument %s: %w", ticker, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete instrument %s: %w", ticker, err)
	}
	if n == 0 {
		return fmt.Errorf("delete instrument %s: %w", ticker, ErrUnknown)
	}
	return nil
}
