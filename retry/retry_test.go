package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/experfolio/foliosearch/core"
)

func fastPolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, InitialDelay: 10 * time.Millisecond}
}

func TestDo_Success(t *testing.T) {
	attempts := 0
	out := Do(context.Background(), fastPolicy(3), func(ctx context.Context) core.Outcome[int] {
		attempts++
		return core.Ok(42)
	})

	require.True(t, out.Ok())
	assert.Equal(t, 42, out.Value())
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestDo_EventualSuccess(t *testing.T) {
	attempts := 0
	out := Do(context.Background(), fastPolicy(5), func(ctx context.Context) core.Outcome[string] {
		attempts++
		if attempts < 3 {
			return core.Fail[string](core.ErrorNetwork, errors.New("temporary error"))
		}
		return core.Ok("done")
	})

	require.True(t, out.Ok())
	assert.Equal(t, "done", out.Value())
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	attempts := 0
	cause := errors.New("bad score")
	out := Do(context.Background(), fastPolicy(5), func(ctx context.Context) core.Outcome[int] {
		attempts++
		return core.Fail[int](core.ErrorInvalidInput, cause)
	})

	require.False(t, out.Ok())
	assert.Equal(t, 1, attempts, "non-retryable failures get exactly one attempt")
	assert.Equal(t, core.ErrorInvalidInput, out.Failure().Kind)
	assert.ErrorIs(t, out.Failure(), cause, "failure must not be masked as a different kind")
}

func TestDo_RetriesExhausted(t *testing.T) {
	attempts := 0
	out := Do(context.Background(), fastPolicy(3), func(ctx context.Context) core.Outcome[int] {
		attempts++
		return core.Fail[int](core.ErrorTimeout, errors.New("still slow"))
	})

	require.False(t, out.Ok())
	assert.Equal(t, 3, attempts, "should attempt exactly MaxAttempts times")
	assert.Equal(t, core.ErrorTimeout, out.Failure().Kind)
}

func TestDo_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	out := Do(context.Background(), fastPolicy(5), func(ctx context.Context) core.Outcome[int] {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 4 {
			return core.Fail[int](core.ErrorNetwork, errors.New("flaky"))
		}
		return core.Ok(1)
	})

	require.True(t, out.Ok())
	require.Len(t, delays, 3)

	// Allow some tolerance for timing variance
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.Greater(t, delays[1], delays[0], "second delay should be greater than first")
	assert.Greater(t, delays[2], delays[1], "third delay should be greater than second")
}

func TestDo_PanicBecomesTerminalSystemResourceFailure(t *testing.T) {
	attempts := 0
	out := Do(context.Background(), fastPolicy(5), func(ctx context.Context) core.Outcome[int] {
		attempts++
		panic("boom")
	})

	require.False(t, out.Ok())
	assert.Equal(t, core.ErrorSystemResource, out.Failure().Kind)
	assert.Equal(t, 1, attempts, "panics are terminal, not retried")
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	out := Do(ctx, fastPolicy(10), func(ctx context.Context) core.Outcome[int] {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return core.Fail[int](core.ErrorNetwork, errors.New("flaky"))
	})

	require.False(t, out.Ok())
	assert.ErrorIs(t, out.Failure(), context.Canceled)
	assert.LessOrEqual(t, attempts, 2, "should stop when context is canceled")
}

func TestDo_InvalidMaxAttempts(t *testing.T) {
	attempts := 0
	out := Do(context.Background(), Policy{MaxAttempts: 0}, func(ctx context.Context) core.Outcome[int] {
		attempts++
		return core.Ok(1)
	})

	require.False(t, out.Ok())
	assert.Equal(t, core.ErrorConfiguration, out.Failure().Kind)
	assert.ErrorIs(t, out.Failure(), ErrInvalidMaxAttempts)
	assert.Equal(t, 0, attempts)
}
