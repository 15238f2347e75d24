package search

import "github.com/experfolio/foliosearch/core"

// Monitor provides hooks to observe the search pipeline.
// Implement this interface to track intermediate stages during a search.
type Monitor interface {
	Start(query string)
	AfterVectorSearch(matches []core.PortfolioMatch)
	AfterRerank(matches []core.PortfolioMatch)
	CandidateAnalyzed(userId string, score float64)
	CandidateDiscarded(userId string, reason string)
	Finish(response *core.SearchResponse)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterVectorSearch(_ []core.PortfolioMatch) {}
func (n *noopMonitor) AfterRerank(_ []core.PortfolioMatch)     {}
func (n *noopMonitor) CandidateAnalyzed(_ string, _ float64)   {}
func (n *noopMonitor) CandidateDiscarded(_ string, _ string)   {}
func (n *noopMonitor) Finish(_ *core.SearchResponse)           {}
