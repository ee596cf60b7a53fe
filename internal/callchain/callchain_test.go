package callchain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
)

func newTestTracer(t *testing.T) (*Tracer, *graphstore.Store) {
	t.Helper()
	g, err := graphstore.Open(filepath.Join(t.TempDir(), "ariadne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return New(g), g
}

func seedChain(t *testing.T, g *graphstore.Store) {
	t.Helper()
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Controller#get", Kind: "method", Name: "get", Annotations: []string{"RestController"}},
		{FQN: "a.Service#process", Kind: "method", Name: "process", Annotations: []string{"Service"}},
		{FQN: "a.Repo#find", Kind: "method", Name: "find", Annotations: []string{"Repository"}},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.Controller#get", ToFQN: "a.Service#process", Relation: "calls"},
		{FromFQN: "a.Service#process", ToFQN: "a.Repo#find", Relation: "calls"},
	}))
	require.NoError(t, g.UpsertEntryPoint(graphstore.EntryPoint{SymbolFQN: "a.Controller#get", Type: "http_api", HTTPMethod: "GET", HTTPPath: "/x"}))
}

func TestTrace_FollowsChainAndAnnotatesLayers(t *testing.T) {
	tr, g := newTestTracer(t)
	seedChain(t, g)

	result, err := tr.Trace(Entry{FQN: "a.Controller#get"}, 10)
	require.NoError(t, err)
	require.Len(t, result.Hops, 3)

	byFQN := make(map[string]Hop)
	for _, h := range result.Hops {
		byFQN[h.FQN] = h
	}
	require.Equal(t, "controller", byFQN["a.Controller#get"].Layer)
	require.Equal(t, "service", byFQN["a.Service#process"].Layer)
	require.Equal(t, "repository", byFQN["a.Repo#find"].Layer)
	require.Equal(t, 0, byFQN["a.Controller#get"].Depth)
	require.Equal(t, 1, byFQN["a.Service#process"].Depth)
	require.Equal(t, 2, byFQN["a.Repo#find"].Depth)
}

func TestTrace_ResolvesEntryDescriptorByHTTPMethodAndPath(t *testing.T) {
	tr, g := newTestTracer(t)
	seedChain(t, g)

	result, err := tr.Trace(Entry{HTTPMethod: "GET", HTTPPath: "/x"}, 10)
	require.NoError(t, err)
	require.Equal(t, "a.Controller#get", result.Root)
}

func TestTrace_EnrichesWithDeduplicatedExternalDependencies(t *testing.T) {
	tr, g := newTestTracer(t)
	seedChain(t, g)
	require.NoError(t, g.UpsertExternalDependency(graphstore.ExternalDependency{
		CallerFQN: "a.Repo#find", Type: "mysql", Target: "orders_db", Strength: "strong",
	}))
	require.NoError(t, g.UpsertExternalDependency(graphstore.ExternalDependency{
		CallerFQN: "a.Repo#find", Type: "mysql", Target: "orders_db", Strength: "strong",
	}))

	result, err := tr.Trace(Entry{FQN: "a.Controller#get"}, 10)
	require.NoError(t, err)
	require.Len(t, result.ExternalDeps, 1)
	require.Equal(t, "orders_db", result.ExternalDeps[0].Target)
}

func TestTrace_MissingEntryDescriptorIsInvalidArgument(t *testing.T) {
	tr, _ := newTestTracer(t)
	_, err := tr.Trace(Entry{}, 10)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.InvalidArgument))
}

func TestTrace_UnknownHTTPEntryIsNotFound(t *testing.T) {
	tr, _ := newTestTracer(t)
	_, err := tr.Trace(Entry{HTTPMethod: "GET", HTTPPath: "/nope"}, 10)
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.NotFound))
}
