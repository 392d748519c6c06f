package policy

import (
	"context"
	"time"

	"sentinel-hq/ceres/pkg/cache"
	"sentinel-hq/ceres/pkg/validation"
)

// MemoizedEvaluator wraps an Evaluator with a short-TTL memoization keyed
// by fingerprint. Rule evaluation is deterministic for identical input, so
// repeated evaluations within the TTL are served from memory. Failures are
// never memoized.
type MemoizedEvaluator struct {
	inner Evaluator
	memo  *cache.Memo[*Result]
}

// NewMemoizedEvaluator wraps eval with a memoizer whose entries live for
// ttl.
func NewMemoizedEvaluator(eval Evaluator, ttl time.Duration) *MemoizedEvaluator {
	return &MemoizedEvaluator{
		inner: eval,
		memo:  cache.NewMemo[*Result](ttl),
	}
}

// Evaluate returns the memoized result for the request's fingerprint, or
// delegates to the wrapped evaluator and memoizes its result.
func (m *MemoizedEvaluator) Evaluate(ctx context.Context, req *validation.Request) (*Result, error) {
	fp := validation.EnsureFingerprint(req)

	if result, ok := m.memo.Get(fp); ok {
		return result, nil
	}

	result, err := m.inner.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	m.memo.Put(fp, result)
	return result, nil
}
