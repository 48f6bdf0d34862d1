// Package store holds the persistent order and trade repositories: thin,
// explicit repository operations with row-locking verbs in place of an
// ORM.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clobrub/internal/models"
)

// ErrOrderNotFound is returned when an order id has no matching row.
var ErrOrderNotFound = errors.New("order not found")

// OrderStore is the persistent record of every order ever submitted.
type OrderStore struct{}

// NewOrderStore constructs an OrderStore.
func NewOrderStore() *OrderStore { return &OrderStore{} }

func scanOrder(row interface{ Scan(...any) error }) (models.Order, error) {
	var o models.Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Ticker, &o.Direction, &o.Qty, &o.Price, &o.Filled, &o.Status, &o.Timestamp); err != nil {
		return models.Order{}, err
	}
	return o, nil
}

// Insert persists a newly admitted order with timestamp = now(), fixing
// its time priority.
func (s *OrderStore) Insert(ctx context.Context, tx *sql.Tx, o *models.Order) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, ticker, direction, qty, price, filled, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING timestamp
	`, o.ID, o.UserID, o.Ticker, o.Direction, o.Qty, o.Price, o.Filled, o.Status).Scan(&o.Timestamp)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Update persists filled and status changes for an already-locked order.
func (s *OrderStore) Update(ctx context.Context, tx *sql.Tx, o *models.Order) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET filled = $1, status = $2 WHERE id = $3
	`, o.Filled, o.Status, o.ID)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	return nil
}

// LockForUpdate loads a single order row under FOR UPDATE, used by
// cancellation to resolve races against a concurrent matching
// transaction (§5: whoever locks first wins).
func (s *OrderStore) LockForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (models.Order, error) {
	o, err := scanOrder(tx.QueryRowContext(ctx, `
		SELECT id, user_id, ticker, direction, qty, price, filled, status, timestamp
		FROM orders WHERE id = $1 FOR UPDATE
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("lock order %s: %w", id, err)
	}
	return o, nil
}

// Get loads a single order without locking, for read endpoints.
func (s *OrderStore) Get(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id uuid.UUID) (models.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, `
		SELECT id, user_id, ticker, direction, qty, price, filled, status, timestamp
		FROM orders WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// ListByUser returns every order ever submitted by a user, most recent first.
func (s *OrderStore) ListByUser(ctx context.Context, db *sql.DB, userID uuid.UUID) ([]models.Order, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, ticker, direction, qty, price, filled, status, timestamp
		FROM orders WHERE user_id = $1 ORDER BY timestamp DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LockMatchCandidates selects every live resting order of the opposite
// direction on ticker that is price-compatible with the incoming order,
// locked FOR UPDATE in price-time priority:
//
//   - incoming BUY: ascending price, ascending timestamp, price <= limit (or any, for market)
//   - incoming SELL: descending price, ascending timestamp, price >= limit (or any, for market)
func (s *OrderStore) LockMatchCandidates(ctx context.Context, tx *sql.Tx, ticker string, incomingDir models.Direction, limitPrice *int64) ([]models.Order, error) {
	opposite := incomingDir.Opposite()

	var query string
	args := []any{ticker, opposite}
	if incomingDir == models.Buy {
		query = `
			SELECT id, user_id, ticker, direction, qty, price, filled, status, timestamp
			FROM orders
			WHERE ticker = $1 AND direction = $2
			  AND status IN ('NEW', 'PARTIALLY_EXECUTED')
			  AND price IS NOT NULL`
		if limitPrice != nil {
			query += " AND price <= $3"
			args = append(args, *limitPrice)
		}
		query += " ORDER BY price ASC, timestamp ASC FOR UPDATE"
	} else {
		query = `
			SELECT id, user_id, ticker, direction, qty, price, filled, status, timestamp
			FROM orders
			WHERE ticker = $1 AND direction = $2
			  AND status IN ('NEW', 'PARTIALLY_EXECUTED')
			  AND price IS NOT NULL`
		if limitPrice != nil {
			query += " AND price >= $3"
			args = append(args, *limitPrice)
		}
		query += " ORDER BY price DESC, timestamp ASC FOR UPDATE"
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("lock match candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Levels aggregates live resting limit orders on one side of ticker by
// price, summing the residual (qty-filled), for the order-book view.
func (s *OrderStore) Levels(ctx context.Context, db *sql.DB, ticker string, dir models.Direction) ([]models.PriceLevel, error) {
	order := "ASC"
	if dir == models.Buy {
		order = "DESC"
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT price, SUM(qty - filled) AS residual
		FROM orders
		WHERE ticker = $1 AND direction = $2
		  AND status IN ('NEW', 'PARTIALLY_EXECUTED')
		  AND price IS NOT NULL
		GROUP BY price
		HAVING SUM(qty - filled) > 0
		ORDER BY price %s
	`, order), ticker, dir)
	if err != nil {
		return nil, fmt.Errorf("order book levels: %w", err)
	}
	defer rows.Close()

	var out []models.PriceLevel
	for rows.Next() {
		var lvl models.PriceLevel
		if err := rows.Scan(&lvl.Price, &lvl.Qty); err != nil {
			return nil, fmt.Errorf("scan level: %w", err)
		}
		out = append(out, lvl)
	}
	return out, rows.Err()
}
