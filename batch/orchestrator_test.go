package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/experfolio/foliosearch/ai/mock"
	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/extract"
	"github.com/experfolio/foliosearch/retry"
	"github.com/experfolio/foliosearch/storage"
	"github.com/experfolio/foliosearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, InitialDelay: time.Millisecond}
}

func newOrchestratorFixture(t *testing.T, embedder *mock.MockEmbedder) (*Orchestrator, storage.PortfolioRepository) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	processor := NewItemProcessor(repo, embedder, extract.NewMockExtractor(), extract.NewMockStore(nil))
	orch, err := NewOrchestrator(repo, processor,
		WithWorkers(2),
		WithRetryPolicy(fastRetry()))
	require.NoError(t, err)
	t.Cleanup(orch.Release)
	return orch, repo
}

func simplePortfolio(userId string) *core.Portfolio {
	return &core.Portfolio{
		UserId:    userId,
		BasicInfo: core.BasicInfo{Name: "Candidate " + userId},
		Items:     []core.PortfolioItem{{Title: "Project", Content: "built with " + userId}},
	}
}

func TestRun_EmptyWorkingSet(t *testing.T) {
	orch, _ := newOrchestratorFixture(t, mock.NewMockEmbedder())

	summary := orch.Run(context.Background())

	assert.NotEmpty(t, summary.RunId)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0, summary.Success)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.FailedIds)
}

func TestRun_AllSucceed(t *testing.T) {
	orch, repo := newOrchestratorFixture(t, mock.NewMockEmbedder())
	ctx := context.Background()

	_, err := repo.AddPortfolios(ctx,
		simplePortfolio("u1"), simplePortfolio("u2"), simplePortfolio("u3"))
	require.NoError(t, err)

	summary := orch.Run(ctx)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Success)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.FailedIds)
	assert.InDelta(t, 1.0, summary.SuccessRate(), 1e-9)

	pending, err := repo.FindNeedingProcessing(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRun_PartialFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedDocumentFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "u2") {
			return nil, core.NewFailure(core.ErrorInvalidInput, errors.New("text rejected"))
		}
		return mock.DeterministicVector(text, 8), nil
	}
	orch, repo := newOrchestratorFixture(t, embedder)
	ctx := context.Background()

	added, err := repo.AddPortfolios(ctx,
		simplePortfolio("u1"), simplePortfolio("u2"), simplePortfolio("u3"))
	require.NoError(t, err)

	summary := orch.Run(ctx)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Success)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []core.ID{added[1].Id}, summary.FailedIds)
}

func TestRun_FailedIdsKeepDiscoveryOrder(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedDocumentFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, core.NewFailure(core.ErrorConfiguration, errors.New("bad model"))
	}
	orch, repo := newOrchestratorFixture(t, embedder)
	ctx := context.Background()

	added, err := repo.AddPortfolios(ctx,
		simplePortfolio("u1"), simplePortfolio("u2"), simplePortfolio("u3"), simplePortfolio("u4"))
	require.NoError(t, err)

	summary := orch.Run(ctx)

	require.Equal(t, 4, summary.Failed)
	want := []core.ID{added[0].Id, added[1].Id, added[2].Id, added[3].Id}
	assert.Equal(t, want, summary.FailedIds)
}

func TestRun_RetryableFailureEventuallySucceeds(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedDocumentFunc = func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) < 3 {
			return nil, core.NewFailure(core.ErrorNetwork, errors.New("connection reset"))
		}
		return mock.DeterministicVector(text, 8), nil
	}
	orch, repo := newOrchestratorFixture(t, embedder)
	ctx := context.Background()

	_, err := repo.AddPortfolios(ctx, simplePortfolio("u1"))
	require.NoError(t, err)

	summary := orch.Run(ctx)

	assert.Equal(t, 1, summary.Success)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, int32(3), calls.Load())
}

type panickingRepo struct {
	storage.PortfolioRepository
}

func (r *panickingRepo) FindNeedingProcessing(ctx context.Context) ([]*core.Portfolio, error) {
	panic("storage exploded")
}

func TestRun_PanicYieldsEmptySummary(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	processor := NewItemProcessor(repo, embedder, extract.NewMockExtractor(), extract.NewMockStore(nil))
	orch, err := NewOrchestrator(&panickingRepo{PortfolioRepository: repo}, processor)
	require.NoError(t, err)
	t.Cleanup(orch.Release)

	summary := orch.Run(context.Background())

	assert.NotEmpty(t, summary.RunId)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.FailedIds)
	assert.NotEmpty(t, summary.Elapsed)
}
