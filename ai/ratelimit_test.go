package ai

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAnalyzer struct {
	calls atomic.Int32
}

func (a *countingAnalyzer) AnalyzeMatch(ctx context.Context, query, portfolioText string) (*MatchAnalysis, error) {
	a.calls.Add(1)
	return &MatchAnalysis{MatchScore: 0.5, MatchReason: "stub"}, nil
}

func TestRateLimitedAnalyzer_Delegates(t *testing.T) {
	inner := &countingAnalyzer{}
	limited := NewRateLimitedAnalyzer(inner, 600, 1)

	analysis, err := limited.AnalyzeMatch(context.Background(), "golang", "a golang project")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, analysis.MatchScore, 1e-9)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRateLimitedAnalyzer_ZeroRPMDisablesLimiting(t *testing.T) {
	inner := &countingAnalyzer{}
	limited := NewRateLimitedAnalyzer(inner, 0, 1)

	start := time.Now()
	for i := 0; i < 50; i++ {
		_, err := limited.AnalyzeMatch(context.Background(), "q", "text")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(50), inner.calls.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimitedAnalyzer_PacesCalls(t *testing.T) {
	inner := &countingAnalyzer{}
	// 6000 rpm = 100 calls/s, so calls after the burst wait ~10ms each.
	limited := NewRateLimitedAnalyzer(inner, 6000, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := limited.AnalyzeMatch(context.Background(), "q", "text")
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRateLimitedAnalyzer_WaitHonorsCancellation(t *testing.T) {
	inner := &countingAnalyzer{}
	// 60 rpm = one token per second; the first call drains the bucket.
	limited := NewRateLimitedAnalyzer(inner, 60, 1)

	_, err := limited.AnalyzeMatch(context.Background(), "q", "text")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = limited.AnalyzeMatch(ctx, "q", "text")
	require.Error(t, err)
	assert.Equal(t, int32(1), inner.calls.Load(), "inner analyzer must not run after cancellation")
}
