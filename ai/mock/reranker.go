package mock

import (
	"context"

	"github.com/experfolio/foliosearch/ai"
	"github.com/experfolio/foliosearch/core"
)

// MockReranker is a test double for ai.Reranker.
type MockReranker struct {
	// RerankFunc is called by Rerank if set.
	// If nil, the input order is kept and truncated to topK.
	RerankFunc func(ctx context.Context, query string, matches []core.PortfolioMatch, topK int) []core.PortfolioMatch

	callCount int
}

// NewMockReranker creates a mock reranker that preserves input order.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

func (m *MockReranker) Rerank(ctx context.Context, query string, matches []core.PortfolioMatch, topK int) []core.PortfolioMatch {
	m.callCount++

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, matches, topK)
	}
	return ai.TruncateToTopK(matches, topK)
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	return m.callCount
}
