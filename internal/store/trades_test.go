package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"clobrub/internal/models"
)

func TestTradeStore_InsertAndRecent(t *testing.T) {
	database := setupTestDB(t)
	s := NewTradeStore()
	ctx := context.Background()
	newInstrument(t, database, "TRD")
	buyer := newUser(t, database)
	seller := newUser(t, database)

	tx, err := database.BeginTx(ctx, nil)
	require.NoError(t, err)
	trade := &models.Trade{Ticker: "TRD", BuyerID: buyer, SellerID: seller, Amount: 3, Price: 50}
	require.NoError(t, s.Insert(ctx, tx, trade))
	require.NoError(t, tx.Commit())
	require.NotEqual(t, uuid.Nil, trade.ID)

	recent, err := s.Recent(ctx, database, "TRD", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, int64(3), recent[0].Amount)
}

func TestTradeStore_RecentDefaultsLimit(t *testing.T) {
	database := setupTestDB(t)
	s := NewTradeStore()

	trades, err := s.Recent(context.Background(), database, "NOSUCHTICKER", 0)
	require.NoError(t, err)
	require.Empty(t, trades)
}
