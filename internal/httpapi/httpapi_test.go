package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/ingest"
)

func newTestServer(t *testing.T) (*Server, *graphstore.Store) {
	t.Helper()
	g, err := graphstore.Open(filepath.Join(t.TempDir(), "ariadne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	ingestor := ingest.NewClient("http://127.0.0.1:0", time.Second, time.Second)
	srv := NewServer(g, nil, nil, nil, ingestor, 3, 2, 5*time.Second)
	return srv, g
}

func seedGraph(t *testing.T, g *graphstore.Store) {
	t.Helper()
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Repo#find", Kind: "method", Name: "find"},
		{FQN: "a.Controller#get", Kind: "method", Name: "get", Annotations: []string{"RestController"}},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.Controller#get", ToFQN: "a.Repo#find", Relation: "calls"},
	}))
	require.NoError(t, g.UpsertEntryPoint(graphstore.EntryPoint{
		SymbolFQN: "a.Controller#get", Type: "http_api", HTTPMethod: "GET", HTTPPath: "/x",
	}))
}

func TestHandleImpact_MissingTargetIsProblem(t *testing.T) {
	srv, _ := newTestServer(t)
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/knowledge/impact", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandleImpact_FindsCallers(t *testing.T) {
	srv, g := newTestServer(t)
	seedGraph(t, g)
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/knowledge/impact?target=a.Repo%23find", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body["Callers"], 1)
}

func TestHandleCallChain_ResolvesEntryDescriptor(t *testing.T) {
	srv, g := newTestServer(t)
	seedGraph(t, g)
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/knowledge/callchain?http_method=GET&http_path=/x", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "a.Controller#get", body["Root"])
}

func TestHandleCallChain_MissingEntryIsProblem(t *testing.T) {
	srv, _ := newTestServer(t)
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/knowledge/callchain", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGraphQuery_ReturnsNodesAndEdges(t *testing.T) {
	srv, g := newTestServer(t)
	seedGraph(t, g)
	router := NewRouter(srv)

	body, _ := json.Marshal(graphQueryRequest{Start: "a.Controller#get", Depth: 2})
	req := httptest.NewRequest(http.MethodPost, "/knowledge/graph/query", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp graphQueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Metadata.TotalEdges)
}

func TestHandleSearch_FallsBackToSubstringWithoutEmbedder(t *testing.T) {
	srv, g := newTestServer(t)
	tx, err := g.BeginTx()
	require.NoError(t, err)
	require.NoError(t, g.InsertSummaryWithoutVector(tx, graphstore.Summary{
		TargetFQN: "a.Repo#find", Level: "method", SummaryText: "finds a widget by id",
	}))
	require.NoError(t, tx.Commit())
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/knowledge/search?query=widget", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var results []searchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	require.Equal(t, "a.Repo#find", results[0].TargetFQN)
}

func TestHandleListRules_IncludesControllerDAO(t *testing.T) {
	srv, _ := newTestServer(t)
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/knowledge/rules", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "controller-dao")
}

func TestHandleGetJob_UnknownIsNotFoundProblem(t *testing.T) {
	srv, _ := newTestServer(t)
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/jobs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestHandleHealth_ReportsGraphStoreUp(t *testing.T) {
	srv, _ := newTestServer(t)
	router := NewRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.GraphStore)
	require.False(t, resp.RebuildRunning)
}
