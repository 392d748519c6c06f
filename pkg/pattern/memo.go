package pattern

import (
	"context"
	"time"

	"sentinel-hq/ceres/pkg/cache"
	"sentinel-hq/ceres/pkg/validation"
)

// MemoizedScorer wraps a Scorer with a short-TTL memoization keyed by
// fingerprint. Scores can drift with context, so the TTL is expected to be
// short. Failures are never memoized.
type MemoizedScorer struct {
	inner Scorer
	memo  *cache.Memo[float64]
}

// NewMemoizedScorer wraps scorer with a memoizer whose entries live for ttl.
func NewMemoizedScorer(scorer Scorer, ttl time.Duration) *MemoizedScorer {
	return &MemoizedScorer{
		inner: scorer,
		memo:  cache.NewMemo[float64](ttl),
	}
}

// Score returns the memoized score for the request's fingerprint, or
// delegates to the wrapped scorer and memoizes its result.
func (m *MemoizedScorer) Score(ctx context.Context, req *validation.Request) (float64, error) {
	fp := validation.EnsureFingerprint(req)

	if score, ok := m.memo.Get(fp); ok {
		return score, nil
	}

	score, err := m.inner.Score(ctx, req)
	if err != nil {
		return 0, err
	}

	m.memo.Put(fp, score)
	return score, nil
}
