// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/experfolio/foliosearch/core"
)

// Policy bounds a retry loop: at most MaxAttempts attempts, sleeping
// InitialDelay * 2^attempt between retryable failures.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultPolicy returns the policy used by the batch orchestrator.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
	}
}

// Task is a unit of work that reports its result as an Outcome.
type Task[T any] func(ctx context.Context) core.Outcome[T]

// Do runs task under the policy. The task knows nothing about retries; the
// decision to retry is driven entirely by the failure's kind.
//
// On success the outcome is returned immediately. A retryable failure is
// retried with exponential backoff while attempts remain; a non-retryable
// failure, or a retryable one after the last attempt, is returned unchanged.
// A panic escaping the task is recovered and returned as a terminal
// SystemResource failure. Sleeping is context-aware: cancellation ends the
// loop with a SystemResource failure wrapping ctx.Err().
func Do[T any](ctx context.Context, policy Policy, task Task[T]) core.Outcome[T] {
	if policy.MaxAttempts <= 0 {
		return core.Fail[T](core.ErrorConfiguration, ErrInvalidMaxAttempts)
	}

	var last core.Outcome[T]
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return core.Fail[T](core.ErrorSystemResource, ctx.Err())
		default:
		}

		last = run(ctx, task)
		if last.Ok() {
			if attempt > 0 {
				slog.Debug("task succeeded after retry", "attempt", attempt+1)
			}
			return last
		}

		failure := last.Failure()
		if !failure.Retryable() || attempt == policy.MaxAttempts-1 {
			if failure.Retryable() {
				slog.Debug("task failed, retries exhausted",
					"attempts", policy.MaxAttempts, "err", failure)
			}
			return last
		}

		// Exponential backoff: initialDelay, 2*initialDelay, 4*initialDelay...
		delay := policy.InitialDelay << attempt
		slog.Debug("task failed, will retry",
			"attempt", attempt+1, "maxAttempts", policy.MaxAttempts,
			"delay", delay, "err", failure)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return core.Fail[T](core.ErrorSystemResource, ctx.Err())
		case <-timer.C:
		}
	}

	return last
}

// run invokes the task once, converting an escaped panic into a terminal
// SystemResource failure so that a buggy task cannot take down a batch run.
func run[T any](ctx context.Context, task Task[T]) (out core.Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("task panicked", "panic", r)
			out = core.Fail[T](core.ErrorSystemResource, fmt.Errorf("task panic: %v", r))
		}
	}()
	return task(ctx)
}
