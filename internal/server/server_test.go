package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secfeed/internal/model"
	"secfeed/internal/pipeline"
	"secfeed/internal/target"
)

type stubRunner struct {
	result pipeline.Result
	err    error
	got    pipeline.Request
}

func (s *stubRunner) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	s.got = req
	return s.result, s.err
}

type stubLister struct {
	records []model.Record
	err     error
}

func (s *stubLister) ListRecent(context.Context, string, int, time.Time) ([]model.Record, error) {
	return s.records, s.err
}

func newTestServer(runner Runner, lister RecordLister) *Server {
	return New(runner, lister, 180*24*time.Hour, zap.NewNop())
}

func TestExtractEndpoint(t *testing.T) {
	runner := &stubRunner{result: pipeline.Result{
		Success:          true,
		ItemsStored:      3,
		Message:          "Successfully stored 3 new items from Demo",
		ExtractionMethod: "heuristic",
	}}
	srv := newTestServer(runner, &stubLister{})

	body := `{"target_id":"demo","direct_url":"https://example.com/post"}`
	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "demo", runner.got.TargetID)
	assert.Equal(t, "https://example.com/post", runner.got.DirectURL)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.ItemsStored)
}

func TestExtractEndpoint_UnknownTargetIs404(t *testing.T) {
	runner := &stubRunner{err: target.ErrNotFound}
	srv := newTestServer(runner, &stubLister{})

	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(`{"target_id":"nope"}`))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExtractEndpoint_BadBody(t *testing.T) {
	srv := newTestServer(&stubRunner{}, &stubLister{})

	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArticlesEndpoint(t *testing.T) {
	rec := model.NewRecord("demo", model.Article{
		Title:       "Stored advisory",
		Content:     "body",
		URL:         "https://example.com/advisory/1",
		PublishedAt: time.Now(),
		ContentType: model.TypeSecurityAdvisory,
	}, time.Now())
	srv := newTestServer(&stubRunner{}, &stubLister{records: []model.Record{rec}})

	req := httptest.NewRequest(http.MethodGet, "/api/articles/demo", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool           `json:"success"`
		Count   int            `json:"count"`
		Records []model.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "Stored advisory", resp.Records[0].Title)
}

func TestArticlesEndpoint_EmptyIsNotNull(t *testing.T) {
	srv := newTestServer(&stubRunner{}, &stubLister{})

	req := httptest.NewRequest(http.MethodGet, "/api/articles/demo", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"records":[]`)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(&stubRunner{}, &stubLister{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
