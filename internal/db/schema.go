package db

import (
	"database/sql"
	"fmt"
)

// Schema is the DDL for every table the service owns, mirroring the
// entities this service persists. Migrate is idempotent so it can run
// unconditionally at process startup.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'USER',
	api_key    TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS instruments (
	ticker VARCHAR(10) PRIMARY KEY,
	name   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balances (
	user_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	ticker    VARCHAR(10) NOT NULL REFERENCES instruments(ticker) ON DELETE CASCADE,
	amount    BIGINT NOT NULL DEFAULT 0,
	available BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, ticker),
	CHECK (amount >= 0),
	CHECK (available >= 0),
	CHECK (available <= amount)
);

CREATE TABLE IF NOT EXISTS orders (
	id        UUID PRIMARY KEY,
	user_id   UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	ticker    VARCHAR(10) NOT NULL REFERENCES instruments(ticker) ON DELETE CASCADE,
	direction TEXT NOT NULL,
	qty       BIGINT NOT NULL CHECK (qty > 0),
	price     BIGINT CHECK (price IS NULL OR price > 0),
	filled    BIGINT NOT NULL DEFAULT 0 CHECK (filled >= 0),
	status    TEXT NOT NULL DEFAULT 'NEW',
	timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS index_orders_ticker_direction_status ON orders (ticker, direction, status);
CREATE INDEX IF NOT EXISTS index_orders_price_timestamp ON orders (price, timestamp);
CREATE INDEX IF NOT EXISTS index_orders_user_id ON orders (user_id);

CREATE TABLE IF NOT EXISTS trades (
	id        UUID PRIMARY KEY,
	ticker    VARCHAR(10) NOT NULL REFERENCES instruments(ticker) ON DELETE CASCADE,
	buyer_id  UUID REFERENCES users(id) ON DELETE CASCADE,
	seller_id UUID REFERENCES users(id) ON DELETE CASCADE,
	amount    BIGINT NOT NULL CHECK (amount > 0),
	price     BIGINT NOT NULL CHECK (price > 0),
	timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS index_trades_ticker_timestamp ON trades (ticker, timestamp);
`

// Migrate applies Schema against db and seeds the RUB quote instrument,
// which must always exist as the universal quote asset. It is safe to call on every
// startup.
func Migrate(database *sql.DB) error {
	if _, err := database.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := database.Exec(
		`INSERT INTO instruments (ticker, name) VALUES ('RUB', 'Russian Ruble') ON CONFLICT DO NOTHING`,
	); err != nil {
		return fmt.Errorf("failed to seed RUB instrument: %w", err)
	}
	return nil
}
