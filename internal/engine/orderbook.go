package engine

import (
	"context"

	"clobrub/internal/models"
)

// OrderBookSnapshot is the aggregated bid/ask view, built fresh from the
// orders table on every read — there is no cached in-process book, since
// the database is the only source of truth for resting liquidity.
type OrderBookSnapshot struct {
	Ticker string              `json:"ticker"`
	Bids   []models.PriceLevel `json:"bids"`
	Asks   []models.PriceLevel `json:"asks"`
}

// OrderBook reads the current aggregated order book for ticker: bids
// (BUY side) sorted best-first (highest price), asks (SELL side) sorted
// best-first (lowest price).
func (e *Engine) OrderBook(ctx context.Context, ticker string) (OrderBookSnapshot, error) {
	bids, err := e.orders.Levels(ctx, e.db, ticker, models.Buy)
	if err != nil {
		return OrderBookSnapshot{}, classifyStoreErr(err)
	}
	asks, err := e.orders.Levels(ctx, e.db, ticker, models.Sell)
	if err != nil {
		return OrderBookSnapshot{}, classifyStoreErr(err)
	}
	return OrderBookSnapshot{Ticker: ticker, Bids: bids, Asks: asks}, nil
}
