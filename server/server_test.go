package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/experfolio/foliosearch/core"
	"github.com/experfolio/foliosearch/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	outcome core.Outcome[core.SearchResponse]
}

func (s *stubSearcher) Search(ctx context.Context, query string) core.Outcome[core.SearchResponse] {
	return s.outcome
}

type stubBatch struct {
	triggerErr error
	status     scheduler.Status
}

func (b *stubBatch) TriggerAsync() error      { return b.triggerErr }
func (b *stubBatch) Status() scheduler.Status { return b.status }

func newTestServer(t *testing.T, searcher Searcher, batch BatchControl, opts ...Option) *Server {
	t.Helper()
	s, err := New(searcher, batch, opts...)
	require.NoError(t, err)
	return s
}

func postSearch(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, &stubBatch{})
	assert.ErrorIs(t, err, ErrSearcherRequired)

	_, err = New(&stubSearcher{}, nil)
	assert.ErrorIs(t, err, ErrSchedulerRequired)
}

func TestSearch_Success(t *testing.T) {
	searcher := &stubSearcher{outcome: core.Ok(core.SearchResponse{
		Status: "success",
		Candidates: []core.CandidateResult{
			{UserId: "u1", MatchScore: 0.8, MatchReason: "strong overlap"},
		},
		SearchTime:   "0.42s",
		TotalResults: 1,
	})}
	s := newTestServer(t, searcher, &stubBatch{})

	rec := postSearch(t, s, `{"query":"golang engineer"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp core.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "u1", resp.Candidates[0].UserId)
}

func TestSearch_InvalidInputIs400(t *testing.T) {
	searcher := &stubSearcher{outcome: core.Fail[core.SearchResponse](
		core.ErrorInvalidInput, errors.New("query must not be empty"))}
	s := newTestServer(t, searcher, &stubBatch{})

	rec := postSearch(t, s, `{"query":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_input", resp.Kind)
	assert.Empty(t, resp.Cause)
}

func TestSearch_MalformedBodyIs400(t *testing.T) {
	s := newTestServer(t, &stubSearcher{}, &stubBatch{})

	rec := postSearch(t, s, `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_RetryableIs503WithRetryAfter(t *testing.T) {
	searcher := &stubSearcher{outcome: core.Fail[core.SearchResponse](
		core.ErrorRateLimit, errors.New("429 from provider"))}
	s := newTestServer(t, searcher, &stubBatch{})

	rec := postSearch(t, s, `{"query":"golang"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestSearch_NonRetryableIs500(t *testing.T) {
	searcher := &stubSearcher{outcome: core.Fail[core.SearchResponse](
		core.ErrorSystemResource, errors.New("worker pool exhausted"))}
	s := newTestServer(t, searcher, &stubBatch{})

	rec := postSearch(t, s, `{"query":"golang"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearch_DebugModeLeaksCause(t *testing.T) {
	searcher := &stubSearcher{outcome: core.Fail[core.SearchResponse](
		core.ErrorAuthentication, errors.New("invalid api key"))}
	s := newTestServer(t, searcher, &stubBatch{}, WithDebug(true))

	rec := postSearch(t, s, `{"query":"golang"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid api key", resp.Cause)
}

func TestBatchRun_Accepted(t *testing.T) {
	s := newTestServer(t, &stubSearcher{}, &stubBatch{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/run", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestBatchRun_ConflictWhileRunning(t *testing.T) {
	batch := &stubBatch{triggerErr: scheduler.ErrRunInProgress}
	s := newTestServer(t, &stubSearcher{}, batch)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batch/run", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBatchStatus(t *testing.T) {
	batch := &stubBatch{status: scheduler.Status{
		Running:     true,
		LastSummary: &core.BatchSummary{RunId: "run-7", Total: 12},
	}}
	s := newTestServer(t, &stubSearcher{}, batch)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batch/status", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status scheduler.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Running)
	require.NotNil(t, status.LastSummary)
	assert.Equal(t, "run-7", status.LastSummary.RunId)
}

func TestHealthz(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, &stubSearcher{}, &stubBatch{}, WithVersion("1.2.3"))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "1.2.3", resp.Version)
	})

	t.Run("all components healthy", func(t *testing.T) {
		checks := map[string]func(ctx context.Context) error{
			"storage": func(ctx context.Context) error { return nil },
			"ai":      func(ctx context.Context) error { return nil },
		}
		s := newTestServer(t, &stubSearcher{}, &stubBatch{}, WithHealthChecks(checks))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, map[string]string{"storage": "ok", "ai": "ok"}, resp.Components)
	})

	t.Run("one component down", func(t *testing.T) {
		checks := map[string]func(ctx context.Context) error{
			"storage": func(ctx context.Context) error { return nil },
			"ai":      func(ctx context.Context) error { return errors.New("embedding host unreachable") },
		}
		s := newTestServer(t, &stubSearcher{}, &stubBatch{}, WithHealthChecks(checks))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "ok", resp.Components["storage"])
		assert.Equal(t, "unavailable", resp.Components["ai"])
	})
}
