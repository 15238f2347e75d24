// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.MatchAnalyzer,
// ai.Reranker, and ai.Provider for use in unit tests. The mocks allow tests to
// run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedQuery(ctx, "test")
//
//	// Custom behavior injection
//	mockAnalyzer := mock.NewMockAnalyzer()
//	mockAnalyzer.AnalyzeMatchFunc = func(ctx context.Context, query, text string) (*ai.MatchAnalysis, error) {
//	    return &ai.MatchAnalysis{MatchScore: 0.9}, nil
//	}
//
//	// Check call counts
//	count := mockAnalyzer.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockAnalyzer: Scores by word overlap between query and portfolio text
//   - MockReranker: Keeps vector order, truncated to topK
//   - MockProvider: Aggregates mock embedder and analyzer
package mock
