// Package models defines the entities persisted by the trading service:
// users, instruments, balances, orders and trades.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes ordinary users from administrators.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is an authenticated principal identified by an opaque API key.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Role      Role      `json:"role" db:"role"`
	APIKey    string    `json:"-" db:"api_key"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// Instrument is a tradeable ticker. The quote asset "RUB" is always present.
type Instrument struct {
	Ticker string `json:"ticker" db:"ticker"`
	Name   string `json:"name" db:"name"`
}

// RUB is the single quote asset every balance and price is denominated in.
const RUB = "RUB"

// Balance is a (user, ticker) holding. A missing row is equivalent to a
// zero balance; callers must never assume a row exists.
type Balance struct {
	UserID    uuid.UUID `db:"user_id"`
	Ticker    string    `db:"ticker"`
	Amount    int64     `db:"amount"`
	Available int64     `db:"available"`
}

// Direction is the side of an order.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Opposite returns the direction resting orders matching this one carry.
func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew               Status = "NEW"
	StatusPartiallyExecuted Status = "PARTIALLY_EXECUTED"
	StatusExecuted          Status = "EXECUTED"
	StatusCancelled         Status = "CANCELLED"
)

// Live reports whether the status still participates in matching.
func (s Status) Live() bool {
	return s == StatusNew || s == StatusPartiallyExecuted
}

// Order is a single limit or market order. Price is nil for market orders.
type Order struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Ticker    string    `json:"ticker" db:"ticker"`
	Direction Direction `json:"direction" db:"direction"`
	Qty       int64     `json:"qty" db:"qty"`
	Price     *int64    `json:"price,omitempty" db:"price"`
	Filled    int64     `json:"filled" db:"filled"`
	Status    Status    `json:"status" db:"status"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// IsMarket reports whether the order has no limit price.
func (o *Order) IsMarket() bool { return o.Price == nil }

// Outstanding is the unfilled remainder of the order.
func (o *Order) Outstanding() int64 { return o.Qty - o.Filled }

// Trade is one executed fill between two opposite-side orders.
type Trade struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Ticker    string    `json:"ticker" db:"ticker"`
	BuyerID   uuid.UUID `json:"buyer_id" db:"buyer_id"`
	SellerID  uuid.UUID `json:"seller_id" db:"seller_id"`
	Amount    int64     `json:"amount" db:"amount"`
	Price     int64     `json:"price" db:"price"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// PriceLevel is one aggregated row of the order-book view.
type PriceLevel struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// OrderRequest is the decoded body of POST /api/v1/order. A nil Price
// means a market order.
type OrderRequest struct {
	Direction Direction `json:"direction"`
	Ticker    string    `json:"ticker"`
	Qty       int64     `json:"qty"`
	Price     *int64    `json:"price,omitempty"`
}
