package storage

import (
	"context"

	"github.com/experfolio/foliosearch/core"
)

// PortfolioRepository provides operations for managing portfolios.
// Implementations must be thread-safe and support concurrent access.
type PortfolioRepository interface {
	// AddPortfolios adds one or more portfolios to storage.
	// Generates new IDs from sequence and sets the InsertedAt timestamp.
	// New portfolios are marked as needing embedding.
	// Returns the portfolios with generated IDs and timestamps populated.
	AddPortfolios(ctx context.Context, portfolios ...*core.Portfolio) ([]*core.Portfolio, error)

	// GetPortfolio retrieves a single portfolio by ID.
	// Returns ErrNotFound if the portfolio doesn't exist.
	GetPortfolio(ctx context.Context, id core.ID) (*core.Portfolio, error)

	// GetPortfolios retrieves multiple portfolios by their IDs.
	// Returns only the portfolios that exist (no error for missing ones).
	GetPortfolios(ctx context.Context, ids ...core.ID) ([]*core.Portfolio, error)

	// GetPortfolioByUserId retrieves the portfolio owned by a user.
	// Returns ErrNotFound if the user has no portfolio.
	GetPortfolioByUserId(ctx context.Context, userId string) (*core.Portfolio, error)

	// FindNeedingProcessing returns all portfolios the batch job should pick
	// up: those marked as needing embedding plus those with a previously
	// failed attachment extraction. Order is stable across calls with
	// unchanged data (ascending ID).
	FindNeedingProcessing(ctx context.Context) ([]*core.Portfolio, error)

	// FindSimilar finds portfolios whose embedding is similar to the given
	// vector. Returns matches with similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first). Portfolios
	// without an embedding are skipped.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]core.PortfolioMatch, error)

	// UpdateEmbeddings atomically persists a processed portfolio: the new
	// searchable text, vector and content hash, the current attachment
	// extraction statuses, a cleared needs-embedding flag and a fresh
	// last-processed timestamp. Either everything is stored or nothing is.
	// Returns ErrNotFound if the portfolio doesn't exist.
	UpdateEmbeddings(ctx context.Context, portfolio *core.Portfolio, text string, vector []float32, contentHash uint64) error

	// MarkProcessedOnly records a completed run that produced no searchable
	// text: attachment statuses are persisted, the needs-embedding flag is
	// cleared and the last-processed timestamp is stamped, but any existing
	// embedding is left untouched.
	// Returns ErrNotFound if the portfolio doesn't exist.
	MarkProcessedOnly(ctx context.Context, portfolio *core.Portfolio) error

	// MarkForReprocessing flags portfolios so the next batch run picks them
	// up again. Returns ErrNotFound if any portfolio doesn't exist.
	MarkForReprocessing(ctx context.Context, ids ...core.ID) error

	// DeletePortfolios removes portfolios by their IDs.
	// Returns ErrNotFound if any portfolio doesn't exist.
	DeletePortfolios(ctx context.Context, ids ...core.ID) error

	// Close closes the repository and releases resources.
	Close() error
}
