package ledger

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

// setupTestDB connects to a real PostgreSQL instance and applies the
// schema, skipping the test entirely when DATABASE_URL is unset — these
// suites exercise real row locks and cannot run against a fake.
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

func newTestUser(t *testing.T, database *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := database.Exec(`INSERT INTO users (id, name, role, api_key) VALUES ($1, $2, 'USER', $3)`,
		id, "test-user-"+id.String(), uuid.New().String())
	require.NoError(t, err)
	return id
}

func TestLedger_ReserveAndRelease(t *testing.T) {
	database := setupTestDB(t)
	l := New()
	userID := newTestUser(t, database)

	tx, err := database.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, l.AdminCredit(context.Background(), tx, userID, models.RUB, 1000))

	require.NoError(t, l.Reserve(context.Background(), tx, userID, models.RUB, 400))
	b, err := l.Get(context.Background(), tx, userID, models.RUB)
	require.NoError(t, err)
	require.Equal(t, int64(1000), b.Amount)
	require.Equal(t, int64(600), b.Available)

	require.NoError(t, l.Release(context.Background(), tx, userID, models.RUB, 400))
	b, err = l.Get(context.Background(), tx, userID, models.RUB)
	require.NoError(t, err)
	require.Equal(t, int64(1000), b.Available)
}

func TestLedger_ReserveInsufficientFunds(t *testing.T) {
	database := setupTestDB(t)
	l := New()
	userID := newTestUser(t, database)

	tx, err := database.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = l.Reserve(context.Background(), tx, userID, models.RUB, 1)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestLedger_SettleDebitAndCredit(t *testing.T) {
	database := setupTestDB(t)
	l := New()
	buyer := newTestUser(t, database)
	seller := newTestUser(t, database)

	tx, err := database.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, l.AdminCredit(context.Background(), tx, buyer, models.RUB, 1000))
	require.NoError(t, l.Reserve(context.Background(), tx, buyer, models.RUB, 1000))

	require.NoError(t, l.SettleDebit(context.Background(), tx, buyer, models.RUB, 1000))
	require.NoError(t, l.SettleCredit(context.Background(), tx, seller, models.RUB, 1000))

	buyerBal, err := l.Get(context.Background(), tx, buyer, models.RUB)
	require.NoError(t, err)
	require.Equal(t, int64(0), buyerBal.Amount)
	require.Equal(t, int64(0), buyerBal.Available)

	sellerBal, err := l.Get(context.Background(), tx, seller, models.RUB)
	require.NoError(t, err)
	require.Equal(t, int64(1000), sellerBal.Amount)
	require.Equal(t, int64(1000), sellerBal.Available)
}

func TestLedger_DebitAvailable(t *testing.T) {
	database := setupTestDB(t)
	l := New()
	userID := newTestUser(t, database)

	tx, err := database.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, l.AdminCredit(context.Background(), tx, userID, models.RUB, 500))
	require.NoError(t, l.DebitAvailable(context.Background(), tx, userID, models.RUB, 500))

	err = l.DebitAvailable(context.Background(), tx, userID, models.RUB, 1)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestLedger_AdminDebitInsufficientFunds(t *testing.T) {
	database := setupTestDB(t)
	l := New()
	userID := newTestUser(t, database)

	tx, err := database.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = l.AdminDebit(context.Background(), tx, userID, models.RUB, 100)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestLedger_GetMissingRowIsZero(t *testing.T) {
	database := setupTestDB(t)
	l := New()
	userID := newTestUser(t, database)

	tx, err := database.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	b, err := l.Get(context.Background(), tx, userID, "NOSUCHTICKER")
	require.NoError(t, err)
	require.Equal(t, int64(0), b.Amount)
	require.Equal(t, int64(0), b.Available)
}
