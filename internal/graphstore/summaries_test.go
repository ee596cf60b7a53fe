package graphstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkSummariesStale_SingleStatementAffectsOnlyExisting(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertSymbols([]Symbol{
		{FQN: "a.A#m", Kind: "method", Name: "m"},
		{FQN: "a.B#m", Kind: "method", Name: "m"},
	}))

	tx, err := s.BeginTx()
	require.NoError(t, err)
	require.NoError(t, s.InsertSummaryWithoutVector(tx, Summary{TargetFQN: "a.A#m", Level: "method", SummaryText: "does a"}))
	require.NoError(t, s.InsertSummaryWithoutVector(tx, Summary{TargetFQN: "a.B#m", Level: "method", SummaryText: "does b"}))
	require.NoError(t, tx.Commit())

	n, err := s.MarkSummariesStale([]string{"a.A#m", "a.nonexistent#m"})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	a, err := s.GetSummary("a.A#m")
	require.NoError(t, err)
	require.True(t, a.IsStale)

	b, err := s.GetSummary("a.B#m")
	require.NoError(t, err)
	require.False(t, b.IsStale)
}

func TestMarkSummariesStaleByFile_IncludesParentSummary(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertSymbols([]Symbol{
		{FQN: "a.Foo", Kind: "class", Name: "Foo", FilePath: "Foo.java"},
		{FQN: "a.Foo#m", Kind: "method", Name: "m", FilePath: "Foo.java", ParentFQN: "a.Foo"},
	}))

	tx, err := s.BeginTx()
	require.NoError(t, err)
	require.NoError(t, s.InsertSummaryWithoutVector(tx, Summary{TargetFQN: "a.Foo", Level: "class", SummaryText: "class summary"}))
	require.NoError(t, s.InsertSummaryWithoutVector(tx, Summary{TargetFQN: "a.Foo#m", Level: "method", SummaryText: "method summary"}))
	require.NoError(t, tx.Commit())

	n, err := s.MarkSummariesStaleByFile("Foo.java")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestGetStaleness_BatchLookup(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertSymbols([]Symbol{{FQN: "a.A#m", Kind: "method", Name: "m"}}))

	tx, err := s.BeginTx()
	require.NoError(t, err)
	require.NoError(t, s.InsertSummaryWithoutVector(tx, Summary{TargetFQN: "a.A#m", Level: "method", SummaryText: "x"}))
	require.NoError(t, tx.Commit())

	out, err := s.GetStaleness([]string{"a.A#m", "a.missing#m"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.False(t, out["a.A#m"])
}
