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


package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/experfolio/foliosearch/core"
)

// HTTPReranker reorders vector-search candidates with a cross-encoder model
// served behind an HTTP endpoint (TEI /rerank wire format). Reranking is
// best-effort: any failure logs a warning and returns the original order
// truncated to topK, so a dead reranker never fails a search.
type HTTPReranker struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

var _ Reranker = (*HTTPReranker)(nil)

// NewHTTPReranker creates a reranker talking to endpoint. A zero timeout
// defaults to 10 seconds.
func NewHTTPReranker(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTPReranker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPReranker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("component", "reranker"),
	}
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (r *HTTPReranker) Rerank(ctx context.Context, query string, matches []core.PortfolioMatch, topK int) []core.PortfolioMatch {
	if len(matches) == 0 {
		return matches
	}

	reordered, err := r.rerank(ctx, query, matches)
	if err != nil {
		r.logger.Warn("rerank failed, keeping vector order", "error", err)
		return TruncateToTopK(matches, topK)
	}
	return TruncateToTopK(reordered, topK)
}

// Ping verifies the reranker endpoint end to end with a one-document
// scoring request.
func (r *HTTPReranker) Ping(ctx context.Context) error {
	body, err := json.Marshal(rerankRequest{Query: "ping", Texts: []string{"ping"}})
	if err != nil {
		return fmt.Errorf("encoding ping request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building ping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling reranker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}
	return nil
}

func (r *HTTPReranker) rerank(ctx context.Context, query string, matches []core.PortfolioMatch) ([]core.PortfolioMatch, error) {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Portfolio.Embedding.SearchableText
	}

	body, err := json.Marshal(rerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("encoding rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling reranker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reranker returned status %d", resp.StatusCode)
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}
	if len(results) != len(matches) {
		return nil, fmt.Errorf("reranker returned %d results for %d candidates", len(results), len(matches))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	reordered := make([]core.PortfolioMatch, 0, len(matches))
	for _, res := range results {
		if res.Index < 0 || res.Index >= len(matches) {
			return nil, fmt.Errorf("reranker returned out-of-range index %d", res.Index)
		}
		m := matches[res.Index]
		m.Score = float32(res.Score)
		reordered = append(reordered, m)
	}
	return reordered, nil
}
