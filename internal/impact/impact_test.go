package impact

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
)

func newTestAnalyzer(t *testing.T) (*Analyzer, *graphstore.Store) {
	t.Helper()
	g, err := graphstore.Open(filepath.Join(t.TempDir(), "ariadne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return New(g), g
}

func TestAnalyzeImpact_FindsDirectCallersAndEntryPoints(t *testing.T) {
	a, g := newTestAnalyzer(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Repo#find", Kind: "method", Name: "find"},
		{FQN: "a.Controller#get", Kind: "method", Name: "get", Annotations: []string{"RestController"}},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.Controller#get", ToFQN: "a.Repo#find", Relation: "calls"},
	}))
	require.NoError(t, g.UpsertEntryPoint(graphstore.EntryPoint{SymbolFQN: "a.Controller#get", Type: "http_api", HTTPMethod: "GET", HTTPPath: "/x"}))

	result, err := a.AnalyzeImpact("a.Repo#find", Options{Depth: 1})
	require.NoError(t, err)
	require.Len(t, result.Callers, 1)
	require.Equal(t, "controller", result.Callers[0].Layer)
	require.Len(t, result.EntryPoints, 1)
}

func TestAnalyzeImpact_UnknownTargetIsNotFound(t *testing.T) {
	a, _ := newTestAnalyzer(t)
	_, err := a.AnalyzeImpact("a.Nope#m", Options{Depth: 1})
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.NotFound))
}

func TestRiskScore_CategoryThresholds(t *testing.T) {
	require.Equal(t, RiskLow, categorize(riskScore(0, 0, 0)))
	require.Equal(t, RiskCritical, categorize(riskScore(25, 5, 10)))
}

func TestConfidence_ClampedToOne(t *testing.T) {
	c := confidence(100, 100)
	require.Equal(t, 1.0, c)
}
