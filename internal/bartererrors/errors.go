package bartererrors

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the lifecycle matches exactly one of these with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("not authorized")
	ErrStateConflict   = errors.New("invalid state transition")
	ErrEquityThreshold = errors.New("equity threshold exceeded")
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream failure")
)

// input errors, detected before any network call where possible
var (
	ErrSelfTrade       = fmt.Errorf("%w: self-trade", ErrValidation)
	ErrEmptySelection  = fmt.Errorf("%w: empty selection", ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", ErrValidation)
	ErrDuplicateItem   = fmt.Errorf("%w: product selected more than once", ErrValidation)
	ErrItemNotOwned    = fmt.Errorf("%w: item not owned by the expected party", ErrValidation)
	ErrItemUnavailable = fmt.Errorf("%w: item unavailable", ErrValidation)
	ErrUnitMismatch    = fmt.Errorf("%w: unit does not match product", ErrValidation)
	ErrInvalidAction   = fmt.Errorf("%w: unknown action", ErrValidation)
	ErrMissingField    = fmt.Errorf("%w: missing required field", ErrValidation)
)

// authorization and state errors
var (
	ErrNoSession    = fmt.Errorf("%w: missing session", ErrUnauthorized)
	ErrNotParty     = fmt.Errorf("%w: not a party to this proposal", ErrUnauthorized)
	ErrNotRecipient = fmt.Errorf("%w: only the recipient may do this", ErrUnauthorized)
	ErrNotProposer  = fmt.Errorf("%w: only the proposer may do this", ErrUnauthorized)
	ErrNotPending   = fmt.Errorf("%w: proposal is not pending", ErrStateConflict)
)

// equity errors
var (
	ErrUnfairTrade = fmt.Errorf("%w: evaluator judged the trade unfair", ErrEquityThreshold)
)

// lookup errors
var (
	ErrProposalNotFound = fmt.Errorf("proposal %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
)

// UpstreamError is a failure reported by, or while reaching, an external backend.
// Message is kept verbatim for display.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s unreachable: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Message)
}

// Unwrap lets errors.Is(err, ErrUpstream) match
func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// Category returns the category sentinel err belongs to, or nil if it matches none
func Category(err error) error {
	for _, c := range []error{ErrEquityThreshold, ErrValidation, ErrUnauthorized, ErrStateConflict, ErrNotFound, ErrUpstream} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

// Repository-level errors
var (
	ErrProposalExists = fmt.Errorf("%w: proposal already exists", ErrStateConflict)
)
