// Copyright 2025 Experfolio
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/experfolio/foliosearch/core"
	"github.com/robfig/cron/v3"
)

// DefaultSpec runs the batch daily at 02:00.
const DefaultSpec = "0 2 * * *"

// Runner executes one batch run. Satisfied by *batch.Orchestrator.
type Runner interface {
	Run(ctx context.Context) core.BatchSummary
}

// Status is a snapshot of the scheduler state.
type Status struct {
	Running     bool               `json:"running"`
	LastRun     time.Time          `json:"lastRun"`
	NextRun     time.Time          `json:"nextRun"`
	LastSummary *core.BatchSummary `json:"lastSummary,omitempty"`
}

// Scheduler triggers the batch runner on a cron schedule with a
// single-flight guard: overlapping triggers are skipped.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	entry  cron.EntryID
	logger *slog.Logger

	running atomic.Bool

	mu          sync.Mutex
	lastRun     time.Time
	lastSummary *core.BatchSummary
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithLogger sets the logger used for run and skip events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) error {
		if logger != nil {
			s.logger = logger.With("component", "scheduler")
		}
		return nil
	}
}

// New creates a Scheduler that fires the runner on the given cron
// spec. An empty spec falls back to DefaultSpec.
func New(runner Runner, spec string, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, ErrRunnerRequired
	}
	if spec == "" {
		spec = DefaultSpec
	}

	s := &Scheduler{
		runner: runner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "scheduler"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	entry, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, err
	}
	s.entry = entry

	return s, nil
}

// Start begins firing scheduled runs. Idempotent.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "nextRun", s.cron.Entry(s.entry).Next)
}

// Stop halts the schedule and waits for an in-flight tick to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// TriggerNow runs the batch immediately. Returns ErrRunInProgress if a
// run is already in flight.
func (s *Scheduler) TriggerNow(ctx context.Context) (core.BatchSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return core.BatchSummary{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	return s.runLocked(ctx), nil
}

// TriggerAsync starts a batch run in the background. Returns
// ErrRunInProgress without starting anything if a run is in flight.
func (s *Scheduler) TriggerAsync() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}

	go func() {
		defer s.running.Store(false)
		s.runLocked(context.Background())
	}()

	return nil
}

// Status reports the current scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:     s.running.Load(),
		LastRun:     s.lastRun,
		NextRun:     s.cron.Entry(s.entry).Next,
		LastSummary: s.lastSummary,
	}
}

func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("skipping scheduled run, previous run still in progress")
		return
	}
	defer s.running.Store(false)

	s.runLocked(context.Background())
}

// runLocked assumes the caller holds the single-flight guard.
func (s *Scheduler) runLocked(ctx context.Context) core.BatchSummary {
	s.logger.Info("batch run starting")
	summary := s.runner.Run(ctx)
	s.logger.Info("batch run finished",
		"runId", summary.RunId,
		"total", summary.Total,
		"success", summary.Success,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastSummary = &summary
	s.mu.Unlock()

	return summary
}
