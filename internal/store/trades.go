package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"clobrub/internal/models"
)

// TradeStore is the append-only record of executed fills.
type TradeStore struct{}

// NewTradeStore constructs a TradeStore.
func NewTradeStore() *TradeStore { return &TradeStore{} }

// Insert appends a trade row within the settling transaction.
func (s *TradeStore) Insert(ctx context.Context, tx *sql.Tx, t *models.Trade) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO trades (id, ticker, buyer_id, seller_id, amount, price, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING timestamp
	`, t.ID, t.Ticker, t.BuyerID, t.SellerID, t.Amount, t.Price).Scan(&t.Timestamp)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Recent returns the most recent limit trades for ticker, most recent first.
func (s *TradeStore) Recent(ctx context.Context, db *sql.DB, ticker string, limit int) ([]models.Trade, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, ticker, buyer_id, seller_id, amount, price, timestamp
		FROM trades WHERE ticker = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("recent trades for %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.Ticker, &t.BuyerID, &t.SellerID, &t.Amount, &t.Price, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
