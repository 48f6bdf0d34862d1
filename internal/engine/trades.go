package engine

import (
	"context"

	"clobrub/internal/models"
)

// RecentTrades returns the most recent trades for ticker, most recent
// first, for the GET /api/v1/public/transactions/{ticker} endpoint.
func (e *Engine) RecentTrades(ctx context.Context, ticker string, limit int) ([]models.Trade, error) {
	trades, err := e.trades.Recent(ctx, e.db, ticker, limit)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return trades, nil
}
