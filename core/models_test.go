package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashContent_Deterministic(t *testing.T) {
	a := HashContent("backend developer, 3 years")
	b := HashContent("backend developer, 3 years")
	c := HashContent("frontend developer")

	assert.Equal(t, a, b, "same content must hash identically")
	assert.NotEqual(t, a, c)
}

func TestPortfolio_Attachments_AliasesItems(t *testing.T) {
	p := &Portfolio{
		Items: []PortfolioItem{
			{Title: "one", Attachments: []Attachment{{FilePath: "a.pdf"}}},
			{Title: "two", Attachments: []Attachment{{FilePath: "b.png"}, {FilePath: "c.txt"}}},
		},
	}

	atts := p.Attachments()
	require.Len(t, atts, 3)
	assert.Equal(t, "a.pdf", atts[0].FilePath)
	assert.Equal(t, "c.txt", atts[2].FilePath)

	// Mutations through the returned pointers must be visible on the portfolio.
	atts[1].Status = ExtractionFailed
	assert.Equal(t, ExtractionFailed, p.Items[1].Attachments[0].Status)
}

func TestPortfolio_NeedsProcessing(t *testing.T) {
	tests := []struct {
		name string
		p    Portfolio
		want bool
	}{
		{
			name: "needs embedding",
			p:    Portfolio{Processing: ProcessingStatus{NeedsEmbedding: true}},
			want: true,
		},
		{
			name: "failed attachment",
			p: Portfolio{
				Items: []PortfolioItem{
					{Attachments: []Attachment{{FilePath: "x.pdf", Status: ExtractionFailed}}},
				},
			},
			want: true,
		},
		{
			name: "fully processed",
			p: Portfolio{
				Items: []PortfolioItem{
					{Attachments: []Attachment{{FilePath: "x.pdf", Status: ExtractionCompleted}}},
				},
			},
			want: false,
		},
		{
			name: "empty",
			p:    Portfolio{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.NeedsProcessing())
		})
	}
}

func TestBatchSummary_SuccessRate(t *testing.T) {
	empty := BatchSummary{}
	assert.Equal(t, 0.0, empty.SuccessRate(), "empty run has rate 0")

	s := BatchSummary{Total: 4, Success: 3, Failed: 1}
	assert.InDelta(t, 0.75, s.SuccessRate(), 1e-9)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0s", FormatElapsed(400*time.Millisecond))
	assert.Equal(t, "45s", FormatElapsed(45*time.Second))
	assert.Equal(t, "1m 0s", FormatElapsed(60*time.Second))
	assert.Equal(t, "15m 30s", FormatElapsed(15*time.Minute+30*time.Second))
}
