package engine

import "errors"

// Error taxonomy. Handlers use errors.Is against these sentinels rather
// than matching on error text.
var (
	ErrValidation            = errors.New("validation error")
	ErrUnknownInstrument     = errors.New("unknown instrument")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrNotCancellable        = errors.New("order is not cancellable")
	ErrOrderNotFound         = errors.New("order not found")
	ErrForbidden             = errors.New("forbidden")
	ErrTransient             = errors.New("transient store error")
)
