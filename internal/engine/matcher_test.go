package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"clobrub/internal/models"
)

func price(n int64) *int64 { return &n }

func restingOrder(userID uuid.UUID, dir models.Direction, qty, p int64) *models.Order {
	return &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Ticker:    "ABC",
		Direction: dir,
		Qty:       qty,
		Price:     price(p),
		Status:    models.StatusNew,
	}
}

// TestMatcher_LimitLimitFullMatch verifies a 1:1 limit/limit match produces
// one fill at the maker's price and fills both orders completely.
func TestMatcher_LimitLimitFullMatch(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()

	maker := restingOrder(seller, models.Sell, 10, 100)
	taker := restingOrder(buyer, models.Buy, 10, 100)

	fills := NewMatcher().Match(taker, []*models.Order{maker})

	require.Len(t, fills, 1)
	require.Equal(t, int64(10), fills[0].Quantity)
	require.Equal(t, int64(100), fills[0].Price)
	require.Equal(t, models.StatusExecuted, maker.Status)
	require.Equal(t, int64(10), taker.Filled)
}

// TestMatcher_PartialFillLeavesRemainder ensures a larger taker partially
// fills a smaller resting order and is left with an outstanding remainder.
func TestMatcher_PartialFillLeavesRemainder(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()

	maker := restingOrder(seller, models.Sell, 5, 100)
	taker := restingOrder(buyer, models.Buy, 10, 100)

	fills := NewMatcher().Match(taker, []*models.Order{maker})

	require.Len(t, fills, 1)
	require.Equal(t, int64(5), fills[0].Quantity)
	require.Equal(t, models.StatusExecuted, maker.Status)
	require.Equal(t, int64(5), taker.Outstanding())
}

// TestMatcher_MarketOrderWalksMultipleLevels confirms a market buy consumes
// resting asks in price-time order until fully filled.
func TestMatcher_MarketOrderWalksMultipleLevels(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()

	makers := []*models.Order{
		restingOrder(seller, models.Sell, 3, 100),
		restingOrder(seller, models.Sell, 4, 101),
		restingOrder(seller, models.Sell, 5, 102),
	}
	taker := &models.Order{ID: uuid.New(), UserID: buyer, Ticker: "ABC", Direction: models.Buy, Qty: 12}

	fills := NewMatcher().Match(taker, makers)

	require.Len(t, fills, 3)
	require.Equal(t, []int64{100, 101, 102}, []int64{fills[0].Price, fills[1].Price, fills[2].Price})
	require.Equal(t, int64(12), taker.Filled)
	require.Equal(t, int64(0), taker.Outstanding())
}

// TestMatcher_SelfTradeSkipped ensures an order never trades against
// another resting order owned by the same user, even when price-compatible.
func TestMatcher_SelfTradeSkipped(t *testing.T) {
	user := uuid.New()
	other := uuid.New()

	ownMaker := restingOrder(user, models.Sell, 10, 100)
	otherMaker := restingOrder(other, models.Sell, 10, 100)
	taker := restingOrder(user, models.Buy, 10, 100)

	fills := NewMatcher().Match(taker, []*models.Order{ownMaker, otherMaker})

	require.Len(t, fills, 1)
	require.Equal(t, otherMaker.ID, fills[0].Maker.ID)
	require.Equal(t, models.StatusNew, ownMaker.Status)
	require.Equal(t, int64(0), ownMaker.Filled)
}

// TestMatcher_FIFOSamePrice verifies time priority within one price level.
func TestMatcher_FIFOSamePrice(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()

	first := restingOrder(seller, models.Sell, 5, 100)
	second := restingOrder(seller, models.Sell, 5, 100)
	taker := restingOrder(buyer, models.Buy, 3, 100)

	fills := NewMatcher().Match(taker, []*models.Order{first, second})

	require.Len(t, fills, 1)
	require.Equal(t, first.ID, fills[0].Maker.ID)
	require.Equal(t, int64(0), second.Filled)
}

// TestMatcher_MarketLimitPriceRule verifies a market/limit match always
// settles at the maker's price, never an implicit taker price.
func TestMatcher_MarketLimitPriceRule(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()

	maker := restingOrder(seller, models.Sell, 1, 50000)
	taker := &models.Order{ID: uuid.New(), UserID: buyer, Ticker: "ABC", Direction: models.Buy, Qty: 1}

	fills := NewMatcher().Match(taker, []*models.Order{maker})

	require.Len(t, fills, 1)
	require.Equal(t, int64(50000), fills[0].Price)
}
