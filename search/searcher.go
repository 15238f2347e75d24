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


package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/experfolio/foliosearch/ai"
	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/storage"
)

// Config holds the search pipeline tuning knobs.
type Config struct {
	// CandidateLimit bounds the vector-search stage.
	CandidateLimit int

	// MinSimilarity is the vector-search score threshold.
	MinSimilarity float32

	// TopK bounds the rerank stage.
	TopK int

	// MaxConcurrent is the number of analysis calls admitted at once.
	MaxConcurrent int

	// AnalysisTimeout bounds each candidate's analysis call. A candidate
	// exceeding it is discarded, not retried.
	AnalysisTimeout time.Duration

	// RateLimitRetries is how many times a rate-limited analysis call is
	// retried before the candidate is dropped.
	RateLimitRetries int

	// RateLimitBaseDelay and RateLimitMultiplier shape the backoff between
	// rate-limit retries. LLM quotas recover slower than network blips, so
	// this policy is configured separately from the generic retry executor.
	RateLimitBaseDelay  time.Duration
	RateLimitMultiplier float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CandidateLimit:      20,
		MinSimilarity:       0.30,
		TopK:                10,
		MaxConcurrent:       4,
		AnalysisTimeout:     30 * time.Second,
		RateLimitRetries:    2,
		RateLimitBaseDelay:  5 * time.Second,
		RateLimitMultiplier: 2.0,
	}
}

// Searcher runs the candidate search pipeline over stored portfolios.
type Searcher struct {
	repo     storage.PortfolioRepository
	embedder ai.Embedder
	analyzer ai.MatchAnalyzer
	reranker ai.Reranker
	config   *Config
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithConfig sets the pipeline configuration.
func WithConfig(config *Config) Option {
	return func(s *Searcher) error {
		if config != nil {
			s.config = config
		}
		return nil
	}
}

// WithReranker sets the reranker stage. Without one, candidates keep their
// vector-search order truncated to TopK.
func WithReranker(reranker ai.Reranker) Option {
	return func(s *Searcher) error {
		s.reranker = reranker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repo storage.PortfolioRepository, provider ai.Provider, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repo:     repo,
		embedder: provider.Embedder(),
		analyzer: provider.MatchAnalyzer(),
		config:   DefaultConfig(),
		logger:   slog.Default().With("component", "search"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(s.config.MaxConcurrent)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	return s, nil
}

// Release releases the analysis worker pool. The searcher should not be
// used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Search runs the full pipeline for one query.
func (s *Searcher) Search(ctx context.Context, query string) core.Outcome[core.SearchResponse] {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor runs the pipeline with stage callbacks.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, monitor Monitor) core.Outcome[core.SearchResponse] {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	query, err := core.ValidateQuery(query)
	if err != nil {
		return core.Fail[core.SearchResponse](core.ErrorInvalidInput, err)
	}

	monitor.Start(query)
	start := time.Now()

	// 1. Embed the query. Failure here is terminal for the request.
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Error("query embedding failed", "err", err)
		return core.FailWith[core.SearchResponse](core.Classify(err))
	}

	// 2. Vector search. Zero candidates is an empty success, not an error.
	matches, err := s.repo.FindSimilar(ctx, vector, s.config.MinSimilarity, s.config.CandidateLimit)
	if err != nil {
		s.logger.Error("vector search failed", "err", err)
		return core.Fail[core.SearchResponse](core.ErrorNetwork, err)
	}
	monitor.AfterVectorSearch(matches)

	if len(matches) == 0 {
		response := emptyResponse(start)
		monitor.Finish(&response)
		return core.Ok(response)
	}

	// 3. Rerank, best-effort.
	if s.reranker != nil {
		matches = s.reranker.Rerank(ctx, query, matches, s.config.TopK)
	} else {
		matches = ai.TruncateToTopK(matches, s.config.TopK)
	}
	monitor.AfterRerank(matches)

	if len(matches) == 0 {
		response := emptyResponse(start)
		monitor.Finish(&response)
		return core.Ok(response)
	}

	// 4. Analysis fan-out. Discarded candidates are dropped silently;
	// partial results are the expected steady state under load.
	candidates := s.analyzeCandidates(ctx, query, matches, monitor)

	response := core.SearchResponse{
		Status:       "success",
		Candidates:   candidates,
		SearchTime:   formatSearchTime(time.Since(start)),
		TotalResults: len(candidates),
	}
	monitor.Finish(&response)
	return core.Ok(response)
}

// analyzeCandidates runs the bounded-concurrency fan-out. One result slot
// per candidate keeps the rerank order: the analysis stage filters, never
// reorders.
func (s *Searcher) analyzeCandidates(ctx context.Context, query string, matches []core.PortfolioMatch, monitor Monitor) []core.CandidateResult {
	results := make([]*core.CandidateResult, len(matches))
	var wg sync.WaitGroup

	for i, match := range matches {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			results[i] = s.analyzeOne(ctx, query, match, monitor)
		})
		if err != nil {
			wg.Done()
			s.logger.Warn("analysis submit failed",
				"userId", match.Portfolio.UserId, "err", err)
		}
	}
	wg.Wait()

	candidates := make([]core.CandidateResult, 0, len(matches))
	for _, r := range results {
		if r != nil {
			candidates = append(candidates, *r)
		}
	}
	return candidates
}

// analyzeOne analyzes a single candidate under its own timeout, retrying
// only on rate limits. Returns nil when the candidate is discarded.
func (s *Searcher) analyzeOne(parent context.Context, query string, match core.PortfolioMatch, monitor Monitor) *core.CandidateResult {
	userId := match.Portfolio.UserId
	text := match.Portfolio.Embedding.SearchableText

	ctx, cancel := context.WithTimeout(parent, s.config.AnalysisTimeout)
	defer cancel()

	delay := s.config.RateLimitBaseDelay
	for attempt := 0; ; attempt++ {
		analysis, err := s.analyzer.AnalyzeMatch(ctx, query, text)
		if err == nil {
			if err := core.ValidateMatchScore(analysis.MatchScore); err != nil {
				s.logger.Warn("analysis score out of range, dropping candidate",
					"userId", userId, "score", analysis.MatchScore)
				monitor.CandidateDiscarded(userId, "score out of range")
				return nil
			}
			monitor.CandidateAnalyzed(userId, analysis.MatchScore)
			return &core.CandidateResult{
				UserId:      userId,
				MatchScore:  analysis.MatchScore,
				MatchReason: analysis.MatchReason,
				Keywords:    analysis.Keywords,
			}
		}

		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			s.logger.Warn("analysis timed out, dropping candidate", "userId", userId)
			monitor.CandidateDiscarded(userId, "timeout")
			return nil
		}

		failure := core.Classify(err)
		if failure.Kind != core.ErrorRateLimit || attempt >= s.config.RateLimitRetries {
			s.logger.Warn("analysis failed, dropping candidate",
				"userId", userId, "kind", failure.Kind.String(), "err", err)
			monitor.CandidateDiscarded(userId, failure.Kind.String())
			return nil
		}

		s.logger.Debug("analysis rate limited, backing off",
			"userId", userId, "attempt", attempt+1, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			monitor.CandidateDiscarded(userId, "timeout")
			return nil
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * s.config.RateLimitMultiplier)
	}
}

func emptyResponse(start time.Time) core.SearchResponse {
	return core.SearchResponse{
		Status:       "success",
		Candidates:   []core.CandidateResult{},
		SearchTime:   formatSearchTime(time.Since(start)),
		TotalResults: 0,
	}
}

// formatSearchTime renders the request's wall-clock time in seconds.
func formatSearchTime(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
