package incremental

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/deptrack"
	"github.com/jersy/ariadne/internal/dualwrite"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/llm"
	"github.com/jersy/ariadne/internal/summarizer"
	"github.com/jersy/ariadne/internal/vectorstore"
)

type fakeLLM struct{}

func (fakeLLM) Summarize(ctx context.Context, code, contextHint string) (string, error) {
	return "summary of " + code, nil
}

func newTestCoordinator(t *testing.T) (*Coordinator, *graphstore.Store) {
	t.Helper()
	g, err := graphstore.Open(filepath.Join(t.TempDir(), "ariadne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	v, err := vectorstore.Open(t.TempDir(), 4)
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })

	tracker := deptrack.New(g)
	summ := summarizer.New(fakeLLM{}, 4, time.Second)
	dw := dualwrite.New(g, v)

	return New(g, tracker, summ, dw, nil), g
}

func TestRun_SummarizesAndPersistsNewSymbols(t *testing.T) {
	c, g := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Foo#m", Kind: "method", Name: "m"},
	}))

	result, err := c.Run(context.Background(), []string{"a.Foo#m"}, map[string]string{"a.Foo#m": "void m() {}"})
	require.NoError(t, err)
	require.Equal(t, 1, result.RegeneratedCount)

	sum, err := g.GetSummary("a.Foo#m")
	require.NoError(t, err)
	require.Contains(t, sum.SummaryText, "void m")
}

func TestRun_SkipsAlreadyFreshSummary(t *testing.T) {
	c, g := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Foo#m", Kind: "method", Name: "m"},
	}))

	tx, err := g.BeginTx()
	require.NoError(t, err)
	require.NoError(t, g.InsertSummaryWithoutVector(tx, graphstore.Summary{TargetFQN: "a.Foo#m", Level: "method", SummaryText: "existing"}))
	require.NoError(t, tx.Commit())
	// is_stale defaults to false on insert, so this summary is already fresh.

	result, err := c.Run(context.Background(), []string{"a.Foo#m"}, map[string]string{"a.Foo#m": "void m() {}"})
	require.NoError(t, err)
	require.Equal(t, 0, result.RegeneratedCount)
	require.Equal(t, 1, result.SkippedCached)
}

func TestRun_ExtractsGlossaryAndConstraintsFromNamedSymbol(t *testing.T) {
	c, g := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Order#validateTotal", Kind: "method", Name: "validateTotal", Annotations: []string{"javax.validation.constraints.NotNull"}},
	}))

	result, err := c.Run(context.Background(), []string{"a.Order#validateTotal"}, map[string]string{"a.Order#validateTotal": "void validateTotal() {}"})
	require.NoError(t, err)
	require.Equal(t, 1, result.GlossaryExtracted)
	require.Equal(t, 1, result.ConstraintsExtracted)

	entry, err := g.GetGlossaryEntry("validate total")
	require.NoError(t, err)
	require.Contains(t, entry.BusinessMeaning, "validateTotal")

	constraint, err := g.GetConstraint("validateTotal_NotNull")
	require.NoError(t, err)
	require.Equal(t, "validation", constraint.Type)
}

func TestRun_SkipsSymbolWithNoSourceText(t *testing.T) {
	c, g := newTestCoordinator(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.Foo#m", Kind: "method", Name: "m"},
	}))

	result, err := c.Run(context.Background(), []string{"a.Foo#m"}, map[string]string{})
	require.NoError(t, err)
	require.Equal(t, 0, result.RegeneratedCount)
	require.Equal(t, 1, result.SkippedNoSource)
}
