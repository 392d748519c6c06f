package pattern

import (
	"context"

	"sentinel-hq/ceres/pkg/validation"
)

// Scorer is the Tier 3 contract: a heuristic or learned model that maps a
// request to a risk score in [0,1]. Higher means riskier. An error means
// the scorer itself failed and counts against the pattern tier's breaker;
// a high score is a successful call.
//
// Scorer is a pluggable strategy: swapping the model never touches the
// dispatcher.
type Scorer interface {
	Score(ctx context.Context, req *validation.Request) (float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, req *validation.Request) (float64, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, req *validation.Request) (float64, error) {
	return f(ctx, req)
}
