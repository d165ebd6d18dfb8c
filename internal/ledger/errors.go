package ledger

import "errors"

var (
	// ErrInsufficientFunds rejects an Open whose cost exceeds the available
	// balance. Not retryable; surface it to the operator.
	ErrInsufficientFunds = errors.New("insufficient virtual balance")

	// ErrPriceUnavailable rejects a market-order Open when no quote could be
	// resolved. Transient; the caller may retry.
	ErrPriceUnavailable = errors.New("no quote available for market order")

	// ErrNotFound rejects a Close for an unknown position id.
	ErrNotFound = errors.New("position not found")

	// ErrAlreadyClosed rejects a second Close on the same position. The
	// second call never mutates the balance; callers use this to detect
	// double-close bugs, so it is an error rather than a no-op.
	ErrAlreadyClosed = errors.New("position already closed")
)
