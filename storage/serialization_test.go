package storage

import (
	"testing"
	"time"

	"github.com/experfolio/foliosearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Empty(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalPortfolio(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	portfolio := &core.Portfolio{
		Id:     core.ID(7),
		UserId: "user-7",
		BasicInfo: core.BasicInfo{
			Name:            "Kim",
			School:          "Tech University",
			Major:           "Computer Science",
			DesiredPosition: "Backend Engineer",
			Awards:          []core.Award{{Name: "Hackathon", Achievement: "1st place"}},
			Certifications:  []core.Certification{{Name: "CKA"}},
			Languages:       []core.LanguageSkill{{TestName: "TOEIC", Score: "950"}},
		},
		Items: []core.PortfolioItem{
			{
				Title:   "Payment gateway",
				Content: "Built a Go payment service",
				Attachments: []core.Attachment{
					{FilePath: "a/design.pdf", Status: core.ExtractionCompleted},
					{FilePath: "a/notes.txt", Status: core.ExtractionFailed},
				},
			},
		},
		Embedding: core.Embedding{
			SearchableText: "Kim Backend Engineer payment gateway",
			Vector:         []float32{0.1, 0.2, 0.3},
			ContentHash:    core.HashContent("Kim Backend Engineer payment gateway"),
			UpdatedAt:      now,
		},
		Processing: core.ProcessingStatus{NeedsEmbedding: true},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	data := MarshalPortfolio(portfolio)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalPortfolio(data)
	require.NoError(t, err)
	assert.Equal(t, portfolio, decoded)
}

func TestMarshalUnmarshalPortfolio_ZeroTimes(t *testing.T) {
	portfolio := &core.Portfolio{Id: core.ID(1), UserId: "u"}

	decoded, err := UnmarshalPortfolio(MarshalPortfolio(portfolio))
	require.NoError(t, err)
	assert.True(t, decoded.Processing.LastProcessed.IsZero())
	assert.True(t, decoded.InsertedAt.IsZero())
}

func TestUnmarshalPortfolio_Truncated(t *testing.T) {
	data := MarshalPortfolio(&core.Portfolio{Id: core.ID(9), UserId: "user-9"})

	_, err := UnmarshalPortfolio(data[:len(data)-2])
	assert.Error(t, err)
}
