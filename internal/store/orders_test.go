package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"clobrub/internal/db"
	"clobrub/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	database, err := db.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	t.Cleanup(func() { database.Close() })
	return database
}

func newUser(t *testing.T, database *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := database.Exec(`INSERT INTO users (id, name, role, api_key) VALUES ($1, $2, 'USER', $3)`,
		id, "store-test-"+id.String(), uuid.New().String())
	require.NoError(t, err)
	return id
}

func newInstrument(t *testing.T, database *sql.DB, ticker string) {
	t.Helper()
	_, err := database.Exec(`INSERT INTO instruments (ticker, name) VALUES ($1, $1) ON CONFLICT DO NOTHING`, ticker)
	require.NoError(t, err)
}

func TestOrderStore_InsertGetUpdate(t *testing.T) {
	database := setupTestDB(t)
	s := NewOrderStore()
	ctx := context.Background()
	newInstrument(t, database, "XYZ")
	userID := newUser(t, database)

	price := int64(100)
	o := &models.Order{ID: uuid.New(), UserID: userID, Ticker: "XYZ", Direction: models.Buy, Qty: 10, Price: &price, Status: models.StatusNew}

	tx, err := database.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, tx, o))
	require.NoError(t, tx.Commit())
	require.False(t, o.Timestamp.IsZero())

	fetched, err := s.Get(ctx, database, o.ID)
	require.NoError(t, err)
	require.Equal(t, o.Qty, fetched.Qty)

	fetched.Filled = 4
	fetched.Status = models.StatusPartiallyExecuted
	tx, err = database.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, tx, &fetched))
	require.NoError(t, tx.Commit())

	refetched, err := s.Get(ctx, database, o.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), refetched.Filled)
	require.Equal(t, models.StatusPartiallyExecuted, refetched.Status)
}

func TestOrderStore_GetNotFound(t *testing.T) {
	database := setupTestDB(t)
	s := NewOrderStore()

	_, err := s.Get(context.Background(), database, uuid.New())
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderStore_LockMatchCandidatesPriceTimePriority(t *testing.T) {
	database := setupTestDB(t)
	s := NewOrderStore()
	ctx := context.Background()
	newInstrument(t, database, "PQR")
	seller := newUser(t, database)

	prices := []int64{102, 100, 101}
	for _, p := range prices {
		price := p
		o := &models.Order{ID: uuid.New(), UserID: seller, Ticker: "PQR", Direction: models.Sell, Qty: 1, Price: &price, Status: models.StatusNew}
		tx, err := database.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, s.Insert(ctx, tx, o))
		require.NoError(t, tx.Commit())
	}

	tx, err := database.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	candidates, err := s.LockMatchCandidates(ctx, tx, "PQR", models.Buy, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	require.Equal(t, int64(100), *candidates[0].Price)
	require.Equal(t, int64(101), *candidates[1].Price)
	require.Equal(t, int64(102), *candidates[2].Price)
}

func TestOrderStore_Levels(t *testing.T) {
	database := setupTestDB(t)
	s := NewOrderStore()
	ctx := context.Background()
	newInstrument(t, database, "LVL")
	seller := newUser(t, database)

	for _, p := range []int64{100, 100, 101} {
		price := p
		o := &models.Order{ID: uuid.New(), UserID: seller, Ticker: "LVL", Direction: models.Sell, Qty: 5, Price: &price, Status: models.StatusNew}
		tx, err := database.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, s.Insert(ctx, tx, o))
		require.NoError(t, tx.Commit())
	}

	levels, err := s.Levels(ctx, database, "LVL", models.Sell)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	require.Equal(t, int64(100), levels[0].Price)
	require.Equal(t, int64(10), levels[0].Qty)
	require.Equal(t, int64(101), levels[1].Price)
	require.Equal(t, int64(5), levels[1].Qty)
}
