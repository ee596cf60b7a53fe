package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), 4)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndSearch_BruteForceRanksBySimilarity(t *testing.T) {
	s := newTestStore(t)
	require.False(t, s.ann, "test build has no sqlite_vec tag, brute force must be active")

	require.NoError(t, s.Add(CollectionSummaries, "sum-1", "parses orders", []float32{1, 0, 0, 0}, map[string]any{"fqn": "a.Order"}))
	require.NoError(t, s.Add(CollectionSummaries, "sum-2", "sends email", []float32{0, 1, 0, 0}, map[string]any{"fqn": "a.Mailer"}))

	results, err := s.Search(CollectionSummaries, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "sum-1", results[0].ID)
	require.InDelta(t, 0, results[0].Distance, 1e-9)
}

func TestAdd_UpsertReplacesContent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(CollectionGlossary, "term-1", "v1", []float32{1, 0, 0, 0}, nil))
	require.NoError(t, s.Add(CollectionGlossary, "term-1", "v2", []float32{0, 1, 0, 0}, nil))

	n, err := s.Count(CollectionGlossary)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDelete_RemovesRecord(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(CollectionConstraint, "c-1", "must be positive", []float32{1, 2, 3, 4}, nil))

	exists, err := s.Exists(CollectionConstraint, "c-1")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, s.Delete(CollectionConstraint, []string{"c-1"}))

	exists, err = s.Exists(CollectionConstraint, "c-1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestDelete_NonexistentIDIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Delete(CollectionSummaries, []string{"does-not-exist"}))
}

func TestAllIDs_ListsEveryRecordInCollection(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add(CollectionSummaries, "a", "x", nil, nil))
	require.NoError(t, s.Add(CollectionSummaries, "b", "y", nil, nil))

	ids, err := s.AllIDs(CollectionSummaries)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, ids)
}
