package engine

import "clobrub/internal/models"

// Fill is one match between the taker and a single resting maker order.
// Price is always the maker's price (makers set the price).
type Fill struct {
	Maker    *models.Order
	Quantity int64
	Price    int64
}

// Matcher is the pure, DB-agnostic price-time priority matching loop. It
// mutates taker and every maker it fills in place and returns the list of
// real (non self-trade) fills produced. Candidates must already be
// locked and ordered in price-time priority by the caller (store.OrderStore
// .LockMatchCandidates); Matcher performs no I/O and no locking itself.
type Matcher struct{}

// NewMatcher returns a Matcher.
func NewMatcher() *Matcher { return &Matcher{} }

// Match walks candidates in order, filling taker against each until
// either taker is fully filled or candidates are exhausted. A self-trade
// (taker.UserID == candidate.UserID) is skipped entirely: no quantity is
// taken, no fill is recorded, and the candidate's filled state is left
// untouched — that candidate's remaining quantity is simply unavailable
// to this taker.
func (m *Matcher) Match(taker *models.Order, candidates []*models.Order) []Fill {
	var fills []Fill

	for _, maker := range candidates {
		if taker.Outstanding() == 0 {
			break
		}
		if maker.Outstanding() <= 0 {
			continue
		}
		if taker.UserID == maker.UserID {
			continue
		}

		take := min(taker.Outstanding(), maker.Outstanding())
		if take <= 0 {
			continue
		}

		price := *maker.Price
		fills = append(fills, Fill{Maker: maker, Quantity: take, Price: price})

		taker.Filled += take
		maker.Filled += take
		if maker.Filled == maker.Qty {
			maker.Status = models.StatusExecuted
		} else {
			maker.Status = models.StatusPartiallyExecuted
		}
	}

	return fills
}
