package graphstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/apperr"
)

func TestInsertSymbols_UpsertRefreshesMutableFields(t *testing.T) {
	s := newTestStore(t)
	sym := Symbol{FQN: "com.acme.Foo#bar", Kind: "method", Name: "bar", Signature: "void bar()"}
	require.NoError(t, s.InsertSymbols([]Symbol{sym}))

	sym.Signature = "void bar(int x)"
	require.NoError(t, s.InsertSymbols([]Symbol{sym}))

	got, err := s.GetSymbol("com.acme.Foo#bar")
	require.NoError(t, err)
	require.Equal(t, "void bar(int x)", got.Signature)
}

func TestGetSymbol_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSymbol("com.acme.Missing")
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

// TestCleanByFile_CascadesEveryDependentRow is the spec §8 "cascade delete"
// scenario: deleting a symbol's file must remove its entry point, external
// dependencies, summary, glossary/constraint source references (set NULL),
// and every edge touching it — both outgoing and incoming.
func TestCleanByFile_CascadesEveryDependentRow(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.InsertSymbols([]Symbol{
		{FQN: "com.acme.FooController#handle", Kind: "method", Name: "handle", FilePath: "Foo.java"},
		{FQN: "com.acme.FooService#process", Kind: "method", Name: "process", FilePath: "Service.java"},
	}))
	require.NoError(t, s.InsertEdges([]Edge{
		{FromFQN: "com.acme.FooController#handle", ToFQN: "com.acme.FooService#process", Relation: "calls"},
	}))
	require.NoError(t, s.UpsertEntryPoint(EntryPoint{
		SymbolFQN: "com.acme.FooController#handle", Type: "http_api", HTTPMethod: "GET", HTTPPath: "/foo",
	}))
	require.NoError(t, s.UpsertExternalDependency(ExternalDependency{
		CallerFQN: "com.acme.FooController#handle", Type: "http", Target: "downstream-svc", Strength: "strong",
	}))
	tx, err := s.BeginTx()
	require.NoError(t, err)
	require.NoError(t, s.InsertSummaryWithoutVector(tx, Summary{TargetFQN: "com.acme.FooController#handle", Level: "method", SummaryText: "handles foo"}))
	require.NoError(t, tx.Commit())
	require.NoError(t, s.UpsertGlossaryEntry(GlossaryEntry{CodeTerm: "foo", BusinessMeaning: "a foo", SourceFQN: "com.acme.FooController#handle"}))

	n, err := s.CleanByFile("Foo.java")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = s.GetSymbol("com.acme.FooController#handle")
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))

	eps, err := s.GetEntryPoints("")
	require.NoError(t, err)
	require.Empty(t, eps)

	deps, err := s.GetExternalDependencies("")
	require.NoError(t, err)
	require.Empty(t, deps)

	_, err = s.GetSummary("com.acme.FooController#handle")
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))

	// glossary row survives with source_fqn set NULL, not deleted.
	entry, err := s.GetGlossaryEntry("foo")
	require.NoError(t, err)
	require.Empty(t, entry.SourceFQN)

	related, err := s.GetRelatedSymbols("com.acme.FooService#process", "", DirectionBoth)
	require.NoError(t, err)
	require.Empty(t, related)

	orphans, err := s.OrphanedEdgeCount()
	require.NoError(t, err)
	require.Zero(t, orphans)
}

func TestGetSymbolsByFQNs_BatchLoad(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertSymbols([]Symbol{
		{FQN: "a.A", Kind: "class", Name: "A"},
		{FQN: "a.B", Kind: "class", Name: "B"},
		{FQN: "a.C", Kind: "class", Name: "C"},
	}))

	got, err := s.GetSymbolsByFQNs([]string{"a.A", "a.C", "a.nonexistent"})
	require.NoError(t, err)
	require.Len(t, got, 2)
}
