package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedAnalyzer wraps a MatchAnalyzer with a client-side token bucket
// so that fan-out analysis does not exceed the provider's requests-per-minute
// quota. Waiting respects the caller's context deadline.
type RateLimitedAnalyzer struct {
	inner   MatchAnalyzer
	limiter *rate.Limiter
}

var _ MatchAnalyzer = (*RateLimitedAnalyzer)(nil)

// NewRateLimitedAnalyzer wraps analyzer with a limiter allowing rpm requests
// per minute with a burst of burst. rpm <= 0 disables limiting.
func NewRateLimitedAnalyzer(analyzer MatchAnalyzer, rpm int, burst int) *RateLimitedAnalyzer {
	limit := rate.Inf
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedAnalyzer{
		inner:   analyzer,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *RateLimitedAnalyzer) AnalyzeMatch(ctx context.Context, query, portfolioText string) (*MatchAnalysis, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.AnalyzeMatch(ctx, query, portfolioText)
}
