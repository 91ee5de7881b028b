package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/microperf/pkg/archive"
	"github.com/matzehuels/microperf/pkg/cache"
	"github.com/matzehuels/microperf/pkg/observability"
	"github.com/matzehuels/microperf/pkg/pipeline"
	"github.com/matzehuels/microperf/pkg/sink"
)

const hexBody = `{"diameter":5,"spacing":25,"angle":60,"grid_width":0.25,"grid_height":0.25,"border":true,"tab_radius":1}`

func newTestServer(t *testing.T) (*Server, *archive.MemoryStore) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	store := archive.NewMemoryStore()
	srv := New(pipeline.NewRunner(c, nil, nil), WithArchive(store))
	return srv, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Build.Version)
}

func TestLayout(t *testing.T) {
	srv, store := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/v1/layout?summary=true", hexBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out struct {
		Name     string `json:"name"`
		Patterns []struct {
			Rows    int `json:"rows"`
			Columns int `json:"columns"`
			Holes   int `json:"holes"`
		} `json:"patterns"`
		Entities []any `json:"entities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "5-25", out.Name)
	require.Len(t, out.Patterns, 1)
	assert.Equal(t, 12, out.Patterns[0].Rows)
	assert.Equal(t, 11, out.Patterns[0].Columns)
	assert.Equal(t, 126, out.Patterns[0].Holes)
	assert.Empty(t, out.Entities)

	runs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.Header().Get("X-Run-ID"), runs[0].ID)
	assert.Equal(t, "api", runs[0].Source)
}

func TestRenderDXFAndCacheHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	first := do(t, srv, http.MethodPost, "/v1/render/dxf", hexBody)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "image/vnd.dxf", first.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	doc, err := sink.DecodeDXF(bytes.NewReader(first.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 126, doc.Count("holes"))

	second := do(t, srv, http.MethodPost, "/v1/render/dxf", hexBody)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Header().Get("X-Document-ID"), second.Header().Get("X-Document-ID"))
	assert.NotEqual(t, first.Header().Get("X-Run-ID"), second.Header().Get("X-Run-ID"))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestRenderSVG(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodPost, "/v1/render/svg", `{"diameter":5,"spacing":25,"grid_width":0.05,"grid_height":0.05,"title":"ortho"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<title>ortho</title>")
	assert.Equal(t, 9, strings.Count(rec.Body.String(), "<circle "))
}

func TestErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown format", http.MethodPost, "/v1/render/gif", hexBody, http.StatusBadRequest, "INVALID_FORMAT"},
		{"malformed body", http.MethodPost, "/v1/layout", "{", http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", http.MethodPost, "/v1/layout", `{"diameter":5,"spacing":25,"colour":"red"}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad angle", http.MethodPost, "/v1/layout", `{"diameter":5,"spacing":25,"angle":90}`, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"oversized lattice", http.MethodPost, "/v1/render/dxf", `{"diameter":5,"spacing":0.000001,"grid_width":1000,"grid_height":1000}`, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"missing run", http.MethodGet, "/v1/runs/nope", "", http.StatusNotFound, "NOT_FOUND"},
		{"bad limit", http.MethodGet, "/v1/runs?limit=x", "", http.StatusBadRequest, "INVALID_PARAMETER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, string(body.Code))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestRuns(t *testing.T) {
	srv, _ := newTestServer(t)
	for i := 0; i < 3; i++ {
		rec := do(t, srv, http.MethodPost, "/v1/render/json", hexBody)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, srv, http.MethodGet, "/v1/runs?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []archive.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 2)

	one := do(t, srv, http.MethodGet, "/v1/runs/"+runs[0].ID, "")
	require.Equal(t, http.StatusOK, one.Code)
	var got archive.Record
	require.NoError(t, json.Unmarshal(one.Body.Bytes(), &got))
	assert.Equal(t, runs[0].ID, got.ID)
	assert.Equal(t, 126, got.Holes)
	assert.Equal(t, []string{"json"}, got.Formats)
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestRequestLoggerReportsHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv, _ := newTestServer(t)
	do(t, srv, http.MethodGet, "/healthz", "")
	do(t, srv, http.MethodGet, "/v1/runs/missing", "")

	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.statuses)
}
