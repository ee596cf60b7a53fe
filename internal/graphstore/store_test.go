package graphstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ariadne.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesSchemaIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ariadne.db")
	s1, err := Open(path)
	require.NoError(t, err)
	s1.Close()

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.SymbolCount()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestIntegrityCheck_PassesOnFreshDB(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.IntegrityCheck())
	require.NoError(t, s.ForeignKeyCheck())
}

func TestOrphanedEdgeCount_IgnoresOneSidedExternalReferences(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertSymbols([]Symbol{{FQN: "com.acme.Foo", Kind: "class", Name: "Foo"}}))

	// One end resolves (com.acme.Foo), the other is a third-party call —
	// permitted by I1, must not count as orphaned.
	require.NoError(t, s.InsertEdges([]Edge{
		{FromFQN: "com.acme.Foo", ToFQN: "org.apache.commons.lang3.StringUtils#isBlank", Relation: "calls"},
	}))

	n, err := s.OrphanedEdgeCount()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestOrphanedEdgeCount_CountsBothSidesMissing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InsertEdges([]Edge{
		{FromFQN: "com.acme.Ghost1", ToFQN: "com.acme.Ghost2", Relation: "calls"},
	}))

	n, err := s.OrphanedEdgeCount()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
