// Package ledger implements the reserve/release/settle primitives that
// keep every (user, ticker) balance row consistent under concurrent
// matching. All operations run inside a caller-supplied transaction and
// take the row lock they need themselves.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clobrub/internal/models"
)

// ErrInsufficientFunds is returned whenever an operation would drive
// amount or available negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger operates on balance rows within an open transaction.
type Ledger struct{}

// New constructs a Ledger. It holds no state; every method takes the
// transaction to operate in explicitly.
func New() *Ledger { return &Ledger{} }

// lockBalance selects the (user, ticker) balance row for update, creating
// it lazily with zero amount/available if it does not yet exist — a
// missing row is equivalent to a zero balance.
func (l *Ledger) lockBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string) (models.Balance, error) {
	var b models.Balance
	err := tx.QueryRowContext(ctx, `
		SELECT user_id, ticker, amount, available FROM balances
		WHERE user_id = $1 AND ticker = $2
		FOR UPDATE
	`, userID, ticker).Scan(&b.UserID, &b.Ticker, &b.Amount, &b.Available)

	if errors.Is(err, sql.ErrNoRows) {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO balances (user_id, ticker, amount, available)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (user_id, ticker) DO NOTHING
		`, userID, ticker)
		if err != nil {
			return models.Balance{}, fmt.Errorf("lazily create balance: %w", err)
		}
		return l.lockBalance(ctx, tx, userID, ticker)
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("lock balance: %w", err)
	}
	return b, nil
}

func (l *Ledger) writeBalance(ctx context.Context, tx *sql.Tx, b models.Balance) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE balances SET amount = $1, available = $2
		WHERE user_id = $3 AND ticker = $4
	`, b.Amount, b.Available, b.UserID, b.Ticker)
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

// Get returns the current balance, or a zero balance if no row exists.
func (l *Ledger) Get(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string) (models.Balance, error) {
	var b models.Balance
	err := tx.QueryRowContext(ctx, `
		SELECT user_id, ticker, amount, available FROM balances
		WHERE user_id = $1 AND ticker = $2
	`, userID, ticker).Scan(&b.UserID, &b.Ticker, &b.Amount, &b.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Balance{UserID: userID, Ticker: ticker}, nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// Reserve requires available >= n and performs available -= n. It locks
// funds behind a newly admitted live order.
func (l *Ledger) Reserve(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error {
	b, err := l.lockBalance(ctx, tx, userID, ticker)
	if err != nil {
		return err
	}
	if b.Available < n {
		return fmt.Errorf("reserve %d %s for %s: %w", n, ticker, userID, ErrInsufficientFunds)
	}
	b.Available -= n
	return l.writeBalance(ctx, tx, b)
}

// Release performs available += n, with postcondition available <= amount.
// It frees the unfilled remainder of a cancelled order.
func (l *Ledger) Release(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error {
	b, err := l.lockBalance(ctx, tx, userID, ticker)
	if err != nil {
		return err
	}
	b.Available += n
	if b.Available > b.Amount {
		return fmt.Errorf("release %d %s for %s would push available above amount: %w", n, ticker, userID, ErrInsufficientFunds)
	}
	return l.writeBalance(ctx, tx, b)
}

// SettleDebit performs amount -= n. The corresponding available decrement
// already happened at reservation time for the delivering side.
func (l *Ledger) SettleDebit(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error {
	b, err := l.lockBalance(ctx, tx, userID, ticker)
	if err != nil {
		return err
	}
	if b.Amount < n {
		return fmt.Errorf("settle debit %d %s for %s: %w", n, ticker, userID, ErrInsufficientFunds)
	}
	b.Amount -= n
	if b.Available > b.Amount {
		return fmt.Errorf("settle debit %d %s for %s would push available above amount: %w", n, ticker, userID, ErrInsufficientFunds)
	}
	return l.writeBalance(ctx, tx, b)
}

// SettleCredit performs amount += n and available += n: the receiving
// side's funds are credited and made available simultaneously.
func (l *Ledger) SettleCredit(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error {
	b, err := l.lockBalance(ctx, tx, userID, ticker)
	if err != nil {
		return err
	}
	b.Amount += n
	b.Available += n
	return l.writeBalance(ctx, tx, b)
}

// DebitAvailable decrements both amount and available by n, checking
// available >= n first. Used for the market-BUY path, where the
// submitter's RUB was never pre-reserved and must be charged per fill.
func (l *Ledger) DebitAvailable(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error {
	b, err := l.lockBalance(ctx, tx, userID, ticker)
	if err != nil {
		return err
	}
	if b.Available < n {
		return fmt.Errorf("debit %d %s for %s: %w", n, ticker, userID, ErrInsufficientFunds)
	}
	b.Available -= n
	b.Amount -= n
	return l.writeBalance(ctx, tx, b)
}

// AdminCredit symmetrically increases amount and available. Used by the
// admin deposit endpoint.
func (l *Ledger) AdminCredit(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error {
	b, err := l.lockBalance(ctx, tx, userID, ticker)
	if err != nil {
		return err
	}
	b.Amount += n
	b.Available += n
	return l.writeBalance(ctx, tx, b)
}

// ListByUser returns every balance row a user holds, for the GET
// /api/v1/balance endpoint. Unlike the mutating operations this reads
// without a row lock, outside any transaction.
func (l *Ledger) ListByUser(ctx context.Context, db *sql.DB, userID uuid.UUID) ([]models.Balance, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT user_id, ticker, amount, available FROM balances WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list balances for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []models.Balance
	for rows.Next() {
		var b models.Balance
		if err := rows.Scan(&b.UserID, &b.Ticker, &b.Amount, &b.Available); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AdminDebit symmetrically decreases amount and available, failing if
// amount < n. Used by the admin withdraw endpoint.
func (l *Ledger) AdminDebit(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error {
	b, err := l.lockBalance(ctx, tx, userID, ticker)
	if err != nil {
		return err
	}
	if b.Amount < n {
		return fmt.Errorf("admin debit %d %s for %s: %w", n, ticker, userID, ErrInsufficientFunds)
	}
	if b.Available < n {
		return fmt.Errorf("admin debit %d %s for %s would push available negative: %w", n, ticker, userID, ErrInsufficientFunds)
	}
	b.Amount -= n
	b.Available -= n
	return l.writeBalance(ctx, tx, b)
}
