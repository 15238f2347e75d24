package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities, generated from database
// sequences.
type ID uint64

// HashContent computes a deterministic content hash from text using BLAKE2b.
// Identical text always produces the same hash, which lets the batch
// processor skip re-embedding unchanged portfolios.
func HashContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// ExtractionStatus tracks the lifecycle of text extraction for one attachment.
type ExtractionStatus int

const (
	// ExtractionUnset means extraction has not been attempted yet.
	ExtractionUnset ExtractionStatus = iota
	// ExtractionCompleted means extraction succeeded, even if it yielded no text.
	ExtractionCompleted
	// ExtractionFailed means the file was missing or the extractor errored.
	ExtractionFailed
)

// String returns the status name.
func (s ExtractionStatus) String() string {
	switch s {
	case ExtractionCompleted:
		return "completed"
	case ExtractionFailed:
		return "failed"
	default:
		return "unset"
	}
}

// Attachment is a file attached to a portfolio item. Status records whether
// its text has been extracted into the searchable representation.
type Attachment struct {
	FilePath string
	Status   ExtractionStatus
}

// Award is a prize or competition result listed in a portfolio.
type Award struct {
	Name        string
	Achievement string
}

// Certification is a professional certification listed in a portfolio.
type Certification struct {
	Name string
}

// LanguageSkill is a language test result listed in a portfolio.
type LanguageSkill struct {
	TestName string
	Score    string
}

// BasicInfo holds the structured identity fields of a portfolio.
type BasicInfo struct {
	Name            string
	School          string
	Major           string
	DesiredPosition string
	Awards          []Award
	Certifications  []Certification
	Languages       []LanguageSkill
}

// PortfolioItem is one project or work sample, with optional attachments.
type PortfolioItem struct {
	Title       string
	Content     string
	Attachments []Attachment
}

// Embedding holds a portfolio's searchable representation: the flattened
// text, its embedding vector, and a content hash of the text used to detect
// changes between batch runs.
type Embedding struct {
	SearchableText string
	Vector         []float32
	ContentHash    uint64
	UpdatedAt      time.Time
}

// ProcessingStatus tracks whether a portfolio needs (re)processing by the
// batch job.
type ProcessingStatus struct {
	NeedsEmbedding bool
	LastProcessed  time.Time
}

// Portfolio is the batch domain entity: a candidate's portfolio document.
// Created externally; selected into a batch run when it needs embedding or
// has failed attachments; mutated only by the item processor and persisted
// atomically as a whole.
type Portfolio struct {
	Id         ID
	UserId     string
	BasicInfo  BasicInfo
	Items      []PortfolioItem
	Embedding  Embedding
	Processing ProcessingStatus
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Attachments returns all attachments across the portfolio's items, in item
// order. The returned pointers alias the portfolio's own attachments so that
// status mutations are visible on the portfolio.
func (p *Portfolio) Attachments() []*Attachment {
	var out []*Attachment
	for i := range p.Items {
		for j := range p.Items[i].Attachments {
			out = append(out, &p.Items[i].Attachments[j])
		}
	}
	return out
}

// NeedsProcessing reports whether the batch job should pick up this
// portfolio: it either needs an embedding or has an attachment whose
// extraction previously failed.
func (p *Portfolio) NeedsProcessing() bool {
	if p.Processing.NeedsEmbedding {
		return true
	}
	for i := range p.Items {
		for j := range p.Items[i].Attachments {
			if p.Items[i].Attachments[j].Status == ExtractionFailed {
				return true
			}
		}
	}
	return false
}

// PortfolioMatch is a vector-search hit: a portfolio with its similarity
// score.
type PortfolioMatch struct {
	Portfolio *Portfolio
	Score     float32
}

// CandidateResult is one analyzed candidate in a search response.
type CandidateResult struct {
	UserId      string   `json:"userId"`
	MatchScore  float64  `json:"matchScore"`
	MatchReason string   `json:"matchReason"`
	Keywords    []string `json:"keywords"`
}

// SearchResponse is the result of one search request.
type SearchResponse struct {
	Status       string            `json:"status"`
	Candidates   []CandidateResult `json:"candidates"`
	SearchTime   string            `json:"searchTime"`
	TotalResults int               `json:"totalResults"`
}

// BatchSummary is the immutable result of one batch run.
type BatchSummary struct {
	RunId     string `json:"runId"`
	Total     int    `json:"total"`
	Success   int    `json:"success"`
	Failed    int    `json:"failed"`
	FailedIds []ID   `json:"failedIds"`
	Elapsed   string `json:"processingTime"`
}

// SuccessRate returns the fraction of items processed successfully,
// 0 when the run was empty.
func (s *BatchSummary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total)
}

// FormatElapsed renders a wall-clock duration as "<N>s" under a minute and
// "<M>m <S>s" otherwise.
func FormatElapsed(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
