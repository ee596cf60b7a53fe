package dualwrite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/vectorstore"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *graphstore.Store, *vectorstore.Store) {
	t.Helper()
	g, err := graphstore.Open(filepath.Join(t.TempDir(), "ariadne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	v, err := vectorstore.Open(t.TempDir(), 4)
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })

	return New(g, v), g, v
}

func TestCreateSummaryWithVector_CommitsBothStoresTogether(t *testing.T) {
	c, g, v := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{{FQN: "a.Foo#m", Kind: "method", Name: "m"}}))

	err := c.CreateSummaryWithVector(vectorstore.CollectionSummaries, graphstore.Summary{
		TargetFQN: "a.Foo#m", Level: "method", SummaryText: "does foo",
	}, []float32{1, 0, 0, 0})
	require.NoError(t, err)

	sum, err := g.GetSummary("a.Foo#m")
	require.NoError(t, err)
	require.Equal(t, "a.Foo#m", sum.VectorID)
	require.False(t, sum.IsStale)

	exists, err := v.Exists(vectorstore.CollectionSummaries, "a.Foo#m")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCreateSummaryWithVector_NilEmbeddingSkipsVectorStore(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{{FQN: "a.Bar#m", Kind: "method", Name: "m"}}))

	err := c.CreateSummaryWithVector(vectorstore.CollectionSummaries, graphstore.Summary{
		TargetFQN: "a.Bar#m", Level: "method", SummaryText: "does bar",
	}, nil)
	require.NoError(t, err)

	sum, err := g.GetSummary("a.Bar#m")
	require.NoError(t, err)
	require.Empty(t, sum.VectorID)
}

func TestCreateGlossaryEntryWithVector_CommitsBothStores(t *testing.T) {
	c, g, v := newTestCoordinator(t)

	err := c.CreateGlossaryEntryWithVector(graphstore.GlossaryEntry{
		CodeTerm: "order total", BusinessMeaning: "the amount owed for an order", SourceFQN: "a.Order#total",
	}, []float32{1, 0, 0, 0})
	require.NoError(t, err)

	entry, err := g.GetGlossaryEntry("order total")
	require.NoError(t, err)
	require.Equal(t, "order total", entry.VectorID)

	exists, err := v.Exists(vectorstore.CollectionGlossary, "order total")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestCreateGlossaryEntryWithVector_NilEmbeddingSkipsVectorStore(t *testing.T) {
	c, g, _ := newTestCoordinator(t)

	err := c.CreateGlossaryEntryWithVector(graphstore.GlossaryEntry{
		CodeTerm: "order total", BusinessMeaning: "the amount owed for an order",
	}, nil)
	require.NoError(t, err)

	entry, err := g.GetGlossaryEntry("order total")
	require.NoError(t, err)
	require.Empty(t, entry.VectorID)
}

func TestCreateConstraintWithVector_CommitsBothStores(t *testing.T) {
	c, g, v := newTestCoordinator(t)

	err := c.CreateConstraintWithVector(graphstore.Constraint{
		Name: "save_NotNull", Description: "order must not be null", Type: "validation", SourceFQN: "a.Order#save",
	}, []float32{1, 0, 0, 0})
	require.NoError(t, err)

	constraint, err := g.GetConstraint("save_NotNull")
	require.NoError(t, err)
	require.Equal(t, "save_NotNull", constraint.VectorID)

	exists, err := v.Exists(vectorstore.CollectionConstraint, "save_NotNull")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestDeleteSummaryCascade_ProceedsEvenIfVectorMissing(t *testing.T) {
	c, g, _ := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{{FQN: "a.Baz#m", Kind: "method", Name: "m"}}))
	require.NoError(t, c.CreateSummaryWithVector(vectorstore.CollectionSummaries, graphstore.Summary{
		TargetFQN: "a.Baz#m", Level: "method", SummaryText: "does baz",
	}, []float32{0, 1, 0, 0}))

	require.NoError(t, c.DeleteSummaryCascade(vectorstore.CollectionSummaries, "a.Baz#m"))

	_, err := g.GetSummary("a.Baz#m")
	require.Error(t, err)
}

func TestDeleteSummaryCascade_NonexistentSummaryIsNotAnError(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	require.NoError(t, c.DeleteSummaryCascade(vectorstore.CollectionSummaries, "a.NeverExisted#m"))
}

func TestDetectOrphans_FindsBothDirections(t *testing.T) {
	c, g, v := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{{FQN: "a.Foo#m", Kind: "method", Name: "m"}}))
	require.NoError(t, c.CreateSummaryWithVector(vectorstore.CollectionSummaries, graphstore.Summary{
		TargetFQN: "a.Foo#m", Level: "method", SummaryText: "x",
	}, []float32{1, 0, 0, 0}))

	// Orphan the B side by deleting directly underneath the coordinator.
	require.NoError(t, v.Delete(vectorstore.CollectionSummaries, []string{"a.Foo#m"}))
	// Orphan the other direction by adding a B record with no A row.
	require.NoError(t, v.Add(vectorstore.CollectionSummaries, "ghost", "ghost text", []float32{0, 1, 0, 0}, nil))

	report, err := c.DetectOrphans(vectorstore.CollectionSummaries)
	require.NoError(t, err)
	require.Contains(t, report.DanglingVectorIDs, "a.Foo#m")
	require.Contains(t, report.OrphanedVectorIDs, "ghost")
}

func TestRecoverOrphans_DeletesOrphanedVectors(t *testing.T) {
	c, _, v := newTestCoordinator(t)
	require.NoError(t, v.Add(vectorstore.CollectionSummaries, "ghost", "ghost text", []float32{0, 1, 0, 0}, nil))

	require.NoError(t, c.RecoverOrphans(vectorstore.CollectionSummaries))

	exists, err := v.Exists(vectorstore.CollectionSummaries, "ghost")
	require.NoError(t, err)
	require.False(t, exists)
}
