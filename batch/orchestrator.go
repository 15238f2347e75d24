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


package batch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/retry"
	"github.com/experfolio/foliosearch/storage"
)

const (
	defaultWorkers        = 4
	defaultReportInterval = 10
)

// Orchestrator runs the batch job: select, process under retry, summarize.
type Orchestrator struct {
	repo      storage.PortfolioRepository
	processor *ItemProcessor
	policy    retry.Policy
	pool      *ants.Pool
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithWorkers sets the worker pool size for concurrent item processing.
func WithWorkers(size int) Option {
	return func(o *Orchestrator) error {
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithRetryPolicy sets the retry policy wrapped around each item.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(o *Orchestrator) error {
		o.policy = policy
		return nil
	}
}

// WithProgress sets where progress output is written (typically os.Stderr).
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) error {
		o.progress = w
		return nil
	}
}

// NewOrchestrator creates a batch orchestrator.
func NewOrchestrator(repo storage.PortfolioRepository, processor *ItemProcessor, opts ...Option) (*Orchestrator, error) {
	pool, err := ants.NewPool(defaultWorkers)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		repo:      repo,
		processor: processor,
		policy:    retry.DefaultPolicy(),
		pool:      pool,
		progress:  io.Discard,
		logger:    slog.Default().With("component", "batch"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			o.pool.Release()
			return nil, err
		}
	}
	return o, nil
}

// Release releases the worker pool. The orchestrator should not be used
// after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// Run executes one batch run and always returns a summary: a fault escaping
// the batch loop is recovered into an empty summary rather than propagated
// to the scheduler.
func (o *Orchestrator) Run(ctx context.Context) (summary core.BatchSummary) {
	runId := uuid.NewString()
	start := time.Now()

	summary = core.BatchSummary{
		RunId:     runId,
		FailedIds: []core.ID{},
		Elapsed:   core.FormatElapsed(0),
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("batch run panicked", "runId", runId, "panic", r)
			summary = core.BatchSummary{
				RunId:     runId,
				FailedIds: []core.ID{},
				Elapsed:   core.FormatElapsed(time.Since(start)),
			}
		}
	}()

	portfolios, err := o.repo.FindNeedingProcessing(ctx)
	if err != nil {
		o.logger.Error("selecting portfolios failed", "runId", runId, "err", err)
		summary.Elapsed = core.FormatElapsed(time.Since(start))
		return summary
	}

	if len(portfolios) == 0 {
		o.logger.Info("nothing to process", "runId", runId)
		summary.Elapsed = core.FormatElapsed(time.Since(start))
		return summary
	}

	o.logger.Info("starting batch run",
		"runId", runId, "total", len(portfolios))

	tracker := NewProgressTracker(o.progress, len(portfolios), defaultReportInterval)
	tracker.Start()

	// One result slot per portfolio so failedIds keeps discovery order
	// regardless of completion order.
	outcomes := make([]core.Outcome[core.ID], len(portfolios))
	var wg sync.WaitGroup

	for i, portfolio := range portfolios {
		wg.Add(1)
		err := o.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = retry.Do(ctx, o.policy, func(ctx context.Context) core.Outcome[core.ID] {
				return o.processor.Process(ctx, portfolio)
			})
			tracker.Increment(1)
		})
		if err != nil {
			outcomes[i] = core.Fail[core.ID](core.ErrorSystemResource, err)
			wg.Done()
		}
	}
	wg.Wait()
	tracker.Finish()

	summary.Total = len(portfolios)
	for i, outcome := range outcomes {
		if outcome.Ok() {
			summary.Success++
			continue
		}
		summary.Failed++
		summary.FailedIds = append(summary.FailedIds, portfolios[i].Id)
		o.logger.Warn("portfolio permanently failed",
			"runId", runId,
			"id", portfolios[i].Id,
			"kind", outcome.Failure().Kind.String(),
			"err", outcome.Failure().Err)
	}
	summary.Elapsed = core.FormatElapsed(time.Since(start))

	o.logger.Info("batch run complete",
		"runId", runId,
		"total", summary.Total,
		"success", summary.Success,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed)

	return summary
}
