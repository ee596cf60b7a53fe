package deptrack

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/graphstore"
)

func newTestTracker(t *testing.T) (*Tracker, *graphstore.Store) {
	t.Helper()
	g, err := graphstore.Open(filepath.Join(t.TempDir(), "ariadne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return New(g), g
}

func TestGetAffectedSymbols_IncludesCallersAndParent(t *testing.T) {
	tr, g := newTestTracker(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Foo", Kind: "class", Name: "Foo"},
		{FQN: "a.Foo#leaf", Kind: "method", Name: "leaf", ParentFQN: "a.Foo"},
		{FQN: "a.Bar", Kind: "class", Name: "Bar"},
		{FQN: "a.Bar#caller", Kind: "method", Name: "caller", ParentFQN: "a.Bar"},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.Bar#caller", ToFQN: "a.Foo#leaf", Relation: "calls"},
	}))

	affected, err := tr.GetAffectedSymbols([]string{"a.Foo#leaf"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.Foo#leaf"}, affected.Changed)
	require.Contains(t, affected.TotalSet, "a.Foo#leaf")
	require.Contains(t, affected.TotalSet, "a.Bar#caller") // direct caller
	require.Contains(t, affected.TotalSet, "a.Foo")        // containing class
}

func TestGetAffectedSymbols_MarksUnionStale(t *testing.T) {
	tr, g := newTestTracker(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Foo", Kind: "class", Name: "Foo"},
		{FQN: "a.Foo#leaf", Kind: "method", Name: "leaf", ParentFQN: "a.Foo"},
	}))

	tx, err := g.BeginTx()
	require.NoError(t, err)
	require.NoError(t, g.InsertSummaryWithoutVector(tx, graphstore.Summary{TargetFQN: "a.Foo", Level: "class", SummaryText: "x"}))
	require.NoError(t, tx.Commit())

	_, err = tr.GetAffectedSymbols([]string{"a.Foo#leaf"})
	require.NoError(t, err)

	stale, err := g.GetStaleness([]string{"a.Foo"})
	require.NoError(t, err)
	require.True(t, stale["a.Foo"])
}

func TestGetAffectedSymbols_EmptyInputIsNoOp(t *testing.T) {
	tr, _ := newTestTracker(t)
	affected, err := tr.GetAffectedSymbols(nil)
	require.NoError(t, err)
	require.Empty(t, affected.TotalSet)
}
