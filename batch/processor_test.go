package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/experfolio/foliosearch/ai/mock"
	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/extract"
	"github.com/experfolio/foliosearch/storage"
	"github.com/experfolio/foliosearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFixture struct {
	repo      storage.PortfolioRepository
	embedder  *mock.MockEmbedder
	extractor *extract.MockExtractor
	files     *extract.MockStore
	processor *ItemProcessor
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	f := &processorFixture{
		repo:      repo,
		embedder:  mock.NewMockEmbedder(),
		extractor: extract.NewMockExtractor(),
		files:     extract.NewMockStore(nil),
	}
	f.processor = NewItemProcessor(repo, f.embedder, f.extractor, f.files)
	return f
}

func (f *processorFixture) addPortfolio(t *testing.T, p *core.Portfolio) *core.Portfolio {
	t.Helper()
	added, err := f.repo.AddPortfolios(context.Background(), p)
	require.NoError(t, err)
	return added[0]
}

func portfolioWithAttachment(userId, path string) *core.Portfolio {
	return &core.Portfolio{
		UserId:    userId,
		BasicInfo: core.BasicInfo{Name: "Park", DesiredPosition: "Data Engineer"},
		Items: []core.PortfolioItem{
			{
				Title:       "ETL pipeline",
				Content:     "Airflow and Spark jobs",
				Attachments: []core.Attachment{{FilePath: path}},
			},
		},
	}
}

func TestProcess_Success(t *testing.T) {
	f := newProcessorFixture(t)
	f.files.Put("u1/doc.txt", "attachment body")
	p := f.addPortfolio(t, portfolioWithAttachment("u1", "u1/doc.txt"))

	outcome := f.processor.Process(context.Background(), p)
	require.True(t, outcome.Ok())
	assert.Equal(t, p.Id, outcome.Value())

	stored, err := f.repo.GetPortfolio(context.Background(), p.Id)
	require.NoError(t, err)
	assert.Contains(t, stored.Embedding.SearchableText, "ETL pipeline")
	assert.Contains(t, stored.Embedding.SearchableText, "text from u1/doc.txt")
	assert.NotEmpty(t, stored.Embedding.Vector)
	assert.False(t, stored.Processing.NeedsEmbedding)
	assert.Equal(t, core.ExtractionCompleted, stored.Items[0].Attachments[0].Status)
}

func TestProcess_Idempotent(t *testing.T) {
	f := newProcessorFixture(t)
	p := f.addPortfolio(t, portfolioWithAttachment("u1", "u1/doc.txt"))

	// Attachment already contributed in a previous run
	p.Items[0].Attachments[0].Status = core.ExtractionCompleted

	first := f.processor.Process(context.Background(), p)
	require.True(t, first.Ok())
	assert.Equal(t, 0, f.extractor.CallCount())
	assert.Equal(t, 1, f.embedder.CallCount())

	stored, err := f.repo.GetPortfolio(context.Background(), p.Id)
	require.NoError(t, err)
	firstText := stored.Embedding.SearchableText

	second := f.processor.Process(context.Background(), stored)
	require.True(t, second.Ok())

	// No re-extraction and no re-embedding of unchanged text
	assert.Equal(t, 0, f.extractor.CallCount())
	assert.Equal(t, 1, f.embedder.CallCount())

	after, err := f.repo.GetPortfolio(context.Background(), p.Id)
	require.NoError(t, err)
	assert.Equal(t, firstText, after.Embedding.SearchableText)
}

func TestProcess_EmptyText(t *testing.T) {
	f := newProcessorFixture(t)
	p := f.addPortfolio(t, &core.Portfolio{UserId: "u1"})

	outcome := f.processor.Process(context.Background(), p)
	require.True(t, outcome.Ok())
	assert.Equal(t, 0, f.embedder.CallCount())

	stored, err := f.repo.GetPortfolio(context.Background(), p.Id)
	require.NoError(t, err)
	assert.False(t, stored.Processing.NeedsEmbedding)
	assert.Empty(t, stored.Embedding.Vector)
}

func TestProcess_MissingFile(t *testing.T) {
	f := newProcessorFixture(t)
	p := f.addPortfolio(t, portfolioWithAttachment("u1", "u1/gone.txt"))

	outcome := f.processor.Process(context.Background(), p)
	require.True(t, outcome.Ok())
	assert.Equal(t, 0, f.extractor.CallCount())

	stored, err := f.repo.GetPortfolio(context.Background(), p.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ExtractionFailed, stored.Items[0].Attachments[0].Status)
	assert.Contains(t, stored.Embedding.SearchableText, "ETL pipeline")
}

func TestProcess_ExtractorError(t *testing.T) {
	f := newProcessorFixture(t)
	f.files.Put("u1/doc.txt", "body")
	f.extractor.ExtractFunc = func(ctx context.Context, path string) (string, error) {
		return "", errors.New("corrupt file")
	}
	p := f.addPortfolio(t, portfolioWithAttachment("u1", "u1/doc.txt"))

	outcome := f.processor.Process(context.Background(), p)
	require.True(t, outcome.Ok())

	stored, err := f.repo.GetPortfolio(context.Background(), p.Id)
	require.NoError(t, err)
	assert.Equal(t, core.ExtractionFailed, stored.Items[0].Attachments[0].Status)
}

func TestProcess_EmbedFailurePropagatedUnchanged(t *testing.T) {
	f := newProcessorFixture(t)
	f.embedder.EmbedDocumentFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, core.NewFailure(core.ErrorRateLimit, errors.New("429 too many requests"))
	}
	p := f.addPortfolio(t, portfolioWithAttachment("u1", "u1/doc.txt"))

	outcome := f.processor.Process(context.Background(), p)
	require.False(t, outcome.Ok())
	assert.Equal(t, core.ErrorRateLimit, outcome.Failure().Kind)
}

type failingUpdateRepo struct {
	storage.PortfolioRepository
	err error
}

func (r *failingUpdateRepo) UpdateEmbeddings(ctx context.Context, portfolio *core.Portfolio, text string, vector []float32, contentHash uint64) error {
	return r.err
}

func TestProcess_PersistFailureIsNetwork(t *testing.T) {
	f := newProcessorFixture(t)
	p := f.addPortfolio(t, portfolioWithAttachment("u1", "u1/doc.txt"))

	repo := &failingUpdateRepo{PortfolioRepository: f.repo, err: errors.New("disk full")}
	processor := NewItemProcessor(repo, f.embedder, f.extractor, f.files)

	outcome := processor.Process(context.Background(), p)
	require.False(t, outcome.Ok())
	assert.Equal(t, core.ErrorNetwork, outcome.Failure().Kind)
	assert.True(t, outcome.Failure().Retryable())
}
