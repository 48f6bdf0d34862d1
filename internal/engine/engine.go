// Package engine is the matching engine: order admission with funds
// reservation, price-time matching, settlement and cancellation, all as
// single all-or-nothing SQL transactions against PostgreSQL.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clobrub/internal/ledger"
	"clobrub/internal/models"
	"clobrub/internal/store"
)

// Engine orchestrates the order store, trade store and ledger under a
// single PostgreSQL connection pool. It holds no in-process matching
// state of its own — the database is the single source of truth.
type Engine struct {
	db      *sql.DB
	orders  *store.OrderStore
	trades  *store.TradeStore
	ledger  *ledger.Ledger
	matcher *Matcher
	log     zerolog.Logger
}

// New constructs an Engine bound to db.
func New(db *sql.DB, log zerolog.Logger) *Engine {
	return &Engine{
		db:      db,
		orders:  store.NewOrderStore(),
		trades:  store.NewTradeStore(),
		ledger:  ledger.New(),
		matcher: NewMatcher(),
		log:     log.With().Str("component", "engine").Logger(),
	}
}

// instrumentExists checks the instruments table within tx; a plain read,
// no row lock needed since instrument rows are never mutated by a trade.
func (e *Engine) instrumentExists(ctx context.Context, tx *sql.Tx, ticker string) (bool, error) {
	var found int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM instruments WHERE ticker = $1`, ticker).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check instrument %s: %w", ticker, err)
	}
	return true, nil
}

// balanceOp is one leg of a four-way settlement, queued so the four
// locks it needs can be acquired in canonical (user_id, ticker) order.
type balanceOp struct {
	userID uuid.UUID
	ticker string
	amount int64
	apply  func(ctx context.Context, tx *sql.Tx, userID uuid.UUID, ticker string, n int64) error
}

// settleFill applies the four balance mutations for one fill, locking
// rows in (user_id, ticker) order to prevent deadlock under cross-pair
// contention.
func (e *Engine) settleFill(ctx context.Context, tx *sql.Tx, ticker string, buyerID, sellerID uuid.UUID, qty, price int64, buyerIsMarket bool) error {
	buyerDebit := e.ledger.SettleDebit
	if buyerIsMarket {
		buyerDebit = e.ledger.DebitAvailable
	}

	ops := []balanceOp{
		{buyerID, models.RUB, qty * price, buyerDebit},
		{sellerID, models.RUB, qty * price, e.ledger.SettleCredit},
		{sellerID, ticker, qty, e.ledger.SettleDebit},
		{buyerID, ticker, qty, e.ledger.SettleCredit},
	}
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].userID != ops[j].userID {
			return ops[i].userID.String() < ops[j].userID.String()
		}
		return ops[i].ticker < ops[j].ticker
	})

	for _, op := range ops {
		if err := op.apply(ctx, tx, op.userID, op.ticker, op.amount); err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
			}
			return err
		}
	}
	return nil
}

// Submit runs admission and matching as a single transaction: instrument
// check, reservation, candidate locking, the matching loop, settlement,
// and the new order's terminal status.
func (e *Engine) Submit(ctx context.Context, user models.User, req models.OrderRequest) (order *models.Order, executedTrades []models.Trade, err error) {
	if req.Qty < 1 {
		return nil, nil, fmt.Errorf("qty must be >= 1: %w", ErrValidation)
	}
	if req.Direction != models.Buy && req.Direction != models.Sell {
		return nil, nil, fmt.Errorf("direction must be BUY or SELL: %w", ErrValidation)
	}
	if req.Price != nil && *req.Price <= 0 {
		return nil, nil, fmt.Errorf("price must be > 0: %w", ErrValidation)
	}

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", classifyStoreErr(err))
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()
	rollback := func(cause error) (*models.Order, []models.Trade, error) {
		tx.Rollback()
		return nil, nil, cause
	}

	exists, err := e.instrumentExists(ctx, tx, req.Ticker)
	if err != nil {
		return rollback(classifyStoreErr(err))
	}
	if !exists {
		return rollback(fmt.Errorf("ticker %s: %w", req.Ticker, ErrUnknownInstrument))
	}

	newOrder := &models.Order{
		ID:        uuid.New(),
		UserID:    user.ID,
		Ticker:    req.Ticker,
		Direction: req.Direction,
		Qty:       req.Qty,
		Price:     req.Price,
		Filled:    0,
		Status:    models.StatusNew,
	}

	switch {
	case req.Direction == models.Buy && req.Price != nil:
		if err := e.ledger.Reserve(ctx, tx, user.ID, models.RUB, req.Qty*(*req.Price)); err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return rollback(fmt.Errorf("%w: %v", ErrInsufficientFunds, err))
			}
			return rollback(classifyStoreErr(err))
		}
	case req.Direction == models.Sell:
		if err := e.ledger.Reserve(ctx, tx, user.ID, req.Ticker, req.Qty); err != nil {
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				return rollback(fmt.Errorf("%w: %v", ErrInsufficientFunds, err))
			}
			return rollback(classifyStoreErr(err))
		}
	}
	// BUY market: no pre-reservation; settled per fill via DebitAvailable
	// instead.

	if err := e.orders.Insert(ctx, tx, newOrder); err != nil {
		return rollback(classifyStoreErr(err))
	}

	candidates, err := e.orders.LockMatchCandidates(ctx, tx, req.Ticker, req.Direction, req.Price)
	if err != nil {
		return rollback(classifyStoreErr(err))
	}

	if req.Price == nil {
		var liquidity int64
		for _, c := range candidates {
			if c.UserID == user.ID {
				continue // self-matched quantity is unavailable liquidity
			}
			liquidity += c.Outstanding()
		}
		if liquidity < req.Qty {
			return rollback(fmt.Errorf("ticker %s: %w", req.Ticker, ErrInsufficientLiquidity))
		}
	}

	candidatePtrs := make([]*models.Order, len(candidates))
	for i := range candidates {
		candidatePtrs[i] = &candidates[i]
	}
	fills := e.matcher.Match(newOrder, candidatePtrs)

	buyerIsMarket := req.Direction == models.Buy && req.Price == nil
	for _, f := range fills {
		var buyerID, sellerID uuid.UUID
		if newOrder.Direction == models.Buy {
			buyerID, sellerID = newOrder.UserID, f.Maker.UserID
		} else {
			buyerID, sellerID = f.Maker.UserID, newOrder.UserID
		}

		if err := e.settleFill(ctx, tx, req.Ticker, buyerID, sellerID, f.Quantity, f.Price, buyerIsMarket); err != nil {
			return rollback(classifyStoreErr(err))
		}

		trade := &models.Trade{
			ID:       uuid.New(),
			Ticker:   req.Ticker,
			BuyerID:  buyerID,
			SellerID: sellerID,
			Amount:   f.Quantity,
			Price:    f.Price,
		}
		if err := e.trades.Insert(ctx, tx, trade); err != nil {
			return rollback(classifyStoreErr(err))
		}
		if err := e.orders.Update(ctx, tx, f.Maker); err != nil {
			return rollback(classifyStoreErr(err))
		}
		executedTrades = append(executedTrades, *trade)
	}

	switch {
	case newOrder.Filled == newOrder.Qty:
		newOrder.Status = models.StatusExecuted
	case req.Price == nil:
		// Admission guaranteed liquidity; a concurrent consumer must have
		// raced us despite the lock, so fail closed instead of resting a
		// partially-filled market order.
		return rollback(fmt.Errorf("ticker %s: %w", req.Ticker, ErrInsufficientLiquidity))
	case newOrder.Filled > 0:
		newOrder.Status = models.StatusPartiallyExecuted
	default:
		newOrder.Status = models.StatusNew
	}

	if err := e.orders.Update(ctx, tx, newOrder); err != nil {
		return rollback(classifyStoreErr(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit order %s: %w", newOrder.ID, classifyStoreErr(err))
	}

	e.log.Info().
		Str("order_id", newOrder.ID.String()).
		Str("ticker", newOrder.Ticker).
		Str("status", string(newOrder.Status)).
		Int64("filled", newOrder.Filled).
		Int("trades", len(executedTrades)).
		Msg("order submitted")

	return newOrder, executedTrades, nil
}

// Cancel runs ownership and terminal/market-order checks, reservation
// release, and the status flip as a single atomic commit.
func (e *Engine) Cancel(ctx context.Context, user models.User, orderID uuid.UUID) (*models.Order, error) {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", classifyStoreErr(err))
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	o, err := e.orders.LockForUpdate(ctx, tx, orderID)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
		}
		return nil, classifyStoreErr(err)
	}

	if o.UserID != user.ID {
		tx.Rollback()
		return nil, fmt.Errorf("order %s: %w", orderID, ErrForbidden)
	}
	if !o.Status.Live() || o.IsMarket() {
		tx.Rollback()
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotCancellable)
	}

	outstanding := o.Outstanding()
	if o.Direction == models.Buy {
		err = e.ledger.Release(ctx, tx, o.UserID, models.RUB, outstanding*(*o.Price))
	} else {
		err = e.ledger.Release(ctx, tx, o.UserID, o.Ticker, outstanding)
	}
	if err != nil {
		tx.Rollback()
		return nil, classifyStoreErr(err)
	}

	o.Status = models.StatusCancelled
	if err := e.orders.Update(ctx, tx, &o); err != nil {
		tx.Rollback()
		return nil, classifyStoreErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel %s: %w", orderID, classifyStoreErr(err))
	}

	e.log.Info().Str("order_id", orderID.String()).Msg("order cancelled")
	return &o, nil
}

// GetOrder loads a single order by id for the GET /api/v1/order/{id} route.
func (e *Engine) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := e.orders.Get(ctx, e.db, id)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
		}
		return nil, classifyStoreErr(err)
	}
	return &o, nil
}

// ListOrders returns every order a user has ever submitted.
func (e *Engine) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := e.orders.ListByUser(ctx, e.db, userID)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return orders, nil
}
