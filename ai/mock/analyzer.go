package mock

import (
	"context"
	"strings"

	"github.com/experfolio/foliosearch/ai"
)

// MockAnalyzer is a test double for ai.MatchAnalyzer.
// It allows custom behavior injection via function fields.
type MockAnalyzer struct {
	// AnalyzeMatchFunc is called by AnalyzeMatch if set.
	// If nil, uses default word-overlap scoring.
	AnalyzeMatchFunc func(ctx context.Context, query, portfolioText string) (*ai.MatchAnalysis, error)

	callCount int
}

// NewMockAnalyzer creates a mock analyzer with default deterministic behavior.
func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

// AnalyzeMatch scores the portfolio by the fraction of query words it
// contains. Deterministic and always in [0, 1].
func (m *MockAnalyzer) AnalyzeMatch(ctx context.Context, query, portfolioText string) (*ai.MatchAnalysis, error) {
	m.callCount++

	if m.AnalyzeMatchFunc != nil {
		return m.AnalyzeMatchFunc(ctx, query, portfolioText)
	}

	words := strings.Fields(strings.ToLower(query))
	lowerText := strings.ToLower(portfolioText)
	var matched []string
	for _, w := range words {
		if strings.Contains(lowerText, w) {
			matched = append(matched, w)
		}
	}

	score := 0.0
	if len(words) > 0 {
		score = float64(len(matched)) / float64(len(words))
	}

	return &ai.MatchAnalysis{
		MatchScore:  score,
		MatchReason: "word overlap score",
		Keywords:    matched,
	}, nil
}

// CallCount returns the number of times AnalyzeMatch was called.
func (m *MockAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected function.
func (m *MockAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeMatchFunc = nil
}
