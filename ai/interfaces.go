package ai

import (
	"context"

	"github.com/experfolio/foliosearch/core"
)

// Embedder generates vector embeddings from text for semantic similarity
// search. Implementations must be thread-safe for concurrent use and must
// return unit-length vectors so that similarity can be computed as a dot
// product.
type Embedder interface {
	// EmbedDocument generates an embedding for portfolio text being indexed.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery generates an embedding for a search query. Models that
	// differentiate query and document representations use the query side
	// here; others may delegate to the same encoding.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// MatchAnalysis is the LLM's judgment of how well one candidate's portfolio
// matches a search query.
type MatchAnalysis struct {
	MatchScore  float64  `json:"matchScore"`
	MatchReason string   `json:"matchReason"`
	Keywords    []string `json:"keywords"`
}

// MatchAnalyzer scores a candidate's portfolio text against a search query.
// Implementations must be thread-safe for concurrent use.
type MatchAnalyzer interface {
	// AnalyzeMatch returns the model's match analysis for the query and
	// portfolio text. Rate limit rejections must surface through the
	// returned error so callers can classify them (core.Classify).
	AnalyzeMatch(ctx context.Context, query, portfolioText string) (*MatchAnalysis, error)
}

// Reranker reorders vector-search hits by cross-encoder relevance.
//
// The contract is best-effort: implementations never fail the search. On any
// internal error they return the input truncated to topK in its original
// order.
type Reranker interface {
	Rerank(ctx context.Context, query string, matches []core.PortfolioMatch, topK int) []core.PortfolioMatch
}

// Provider aggregates the model services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// MatchAnalyzer returns the LLM match analysis service.
	MatchAnalyzer() MatchAnalyzer

	// Close releases resources held by the provider and its services.
	Close() error
}

// TruncateToTopK is the shared fallback for best-effort rerankers: the input
// order preserved, cut to at most topK entries. topK <= 0 means no limit.
func TruncateToTopK(matches []core.PortfolioMatch, topK int) []core.PortfolioMatch {
	if topK <= 0 || topK >= len(matches) {
		return matches
	}
	return matches[:topK]
}
