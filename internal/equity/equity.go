// Package equity holds the contract with the external equity evaluator and the
// local fairness policy applied on top of its verdicts.
//
// The evaluator is an opaque oracle: its scoring is never reproduced here. The
// policy only gates on the verdict it returns.
package equity

//go:generate mockgen -source=equity.go -destination=mock_equity.go -package=equity

import (
	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"context"
	"fmt"
)

// DefaultMaxDifferencePercentage is the hard cap on the value gap between the two sides of a trade.
const DefaultMaxDifferencePercentage = 40.0

// Evaluator compares the value of an offered and a requested product
type Evaluator interface {
	Evaluate(ctx context.Context, offeredProductID, requestedProductID string) (model.EquityVerdict, error)
}

// Policy decides whether a verdict allows a proposal to be submitted or countered
type Policy struct {
	MaxDifferencePercentage float64
	// RequireFairVerdict additionally blocks verdicts the evaluator marks unfair.
	RequireFairVerdict bool
}

// DefaultPolicy returns the 40% cap without the fair-verdict requirement
func DefaultPolicy() Policy {
	return Policy{MaxDifferencePercentage: DefaultMaxDifferencePercentage}
}

// Check returns nil when the verdict permits the trade.
// The percentage cap applies even when the evaluator says the trade is fair.
func (p Policy) Check(verdict model.EquityVerdict) error {
	if verdict.DifferencePercentage < 0 || verdict.DifferencePercentage > 100 {
		return &bartererrors.UpstreamError{
			Service: "equity evaluator",
			Message: fmt.Sprintf("difference percentage %.2f out of range", verdict.DifferencePercentage),
		}
	}

	if verdict.DifferencePercentage > p.MaxDifferencePercentage {
		return fmt.Errorf("%w: difference %.2f%% exceeds %.2f%%", bartererrors.ErrEquityThreshold, verdict.DifferencePercentage, p.MaxDifferencePercentage)
	}

	if p.RequireFairVerdict && !verdict.IsFair {
		return fmt.Errorf("%w: %s", bartererrors.ErrUnfairTrade, verdict.Message)
	}
	return nil
}

// WithinThreshold reports whether the verdict passes the policy
func (p Policy) WithinThreshold(verdict model.EquityVerdict) bool {
	return p.Check(verdict) == nil
}
