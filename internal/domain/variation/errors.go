package variation

import "errors"

// Sentinel errors for variation operations. Operator-facing failures are
// returned as shared.DomainError values that unwrap to one of these.
var (
	ErrTooManyCombinations      = errors.New("variation: too many combinations")
	ErrPriceRequired            = errors.New("variation: price is required")
	ErrInvalidQuantity          = errors.New("variation: invalid stock quantity")
	ErrInvalidStockStatus       = errors.New("variation: invalid stock status")
	ErrInvalidPrice             = errors.New("variation: invalid price")
	ErrConfirmationRequired     = errors.New("variation: confirmation required")
	ErrUnknownBulkAction        = errors.New("variation: unknown bulk action")
	ErrVariationIndexOutOfRange = errors.New("variation: variation index out of range")
	ErrSessionNotFound          = errors.New("variation: session not found")
	ErrNoVariations             = errors.New("variation: nothing to submit")
)
