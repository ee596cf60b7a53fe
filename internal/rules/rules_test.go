package rules

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
)

func newTestStore(t *testing.T) *graphstore.Store {
	t.Helper()
	g, err := graphstore.Open(filepath.Join(t.TempDir(), "ariadne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestControllerDAORule_FlagsDirectMapperCall(t *testing.T) {
	g := newTestStore(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.OrderController", Kind: "class", Name: "OrderController", Annotations: []string{"RestController"}},
		{FQN: "a.OrderController#get", Kind: "method", Name: "get", ParentFQN: "a.OrderController"},
		{FQN: "a.dao.OrderMapper", Kind: "class", Name: "OrderMapper"},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.OrderController#get", ToFQN: "a.dao.OrderMapper#findById", Relation: "calls"},
	}))

	e := New(g)
	found, err := e.DetectByRule("controller-dao")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "a.OrderController#get", found[0].FromFQN)
	require.Equal(t, string(SeverityError), found[0].Severity)
}

func TestControllerDAORule_ExemptsBasePrefixedClasses(t *testing.T) {
	g := newTestStore(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.OrderController", Kind: "class", Name: "OrderController", Annotations: []string{"Controller"}},
		{FQN: "a.OrderController#get", Kind: "method", Name: "get", ParentFQN: "a.OrderController"},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.OrderController#get", ToFQN: "a.dao.BaseMapper#save", Relation: "calls"},
	}))

	e := New(g)
	found, err := e.DetectByRule("controller-dao")
	require.NoError(t, err)
	require.Empty(t, found)
}

func TestControllerDAORule_FlagsAnnotatedRepositoryCall(t *testing.T) {
	g := newTestStore(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.OrderController", Kind: "class", Name: "OrderController", Annotations: []string{"RestController"}},
		{FQN: "a.OrderController#get", Kind: "method", Name: "get", ParentFQN: "a.OrderController"},
		{FQN: "a.store.OrderStore", Kind: "class", Name: "OrderStore", Annotations: []string{"Repository"}},
		{FQN: "a.store.OrderStore#load", Kind: "method", Name: "load", ParentFQN: "a.store.OrderStore"},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.OrderController#get", ToFQN: "a.store.OrderStore#load", Relation: "calls"},
	}))

	e := New(g)
	found, err := e.DetectByRule("controller-dao")
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func TestDetectByRule_UnknownRuleIsInvalidArgument(t *testing.T) {
	g := newTestStore(t)
	e := New(g)
	_, err := e.DetectByRule("nope")
	require.Error(t, err)
	require.True(t, apperr.Is(err, apperr.InvalidArgument))
}

func TestDetectByRule_RerunReplacesPriorFindings(t *testing.T) {
	g := newTestStore(t)
	require.NoError(t, g.InsertSymbols([]graphstore.Symbol{
		{FQN: "a.OrderController", Kind: "class", Name: "OrderController", Annotations: []string{"RestController"}},
		{FQN: "a.OrderController#get", Kind: "method", Name: "get", ParentFQN: "a.OrderController"},
		{FQN: "a.dao.OrderMapper", Kind: "class", Name: "OrderMapper"},
	}))
	require.NoError(t, g.InsertEdges([]graphstore.Edge{
		{FromFQN: "a.OrderController#get", ToFQN: "a.dao.OrderMapper#findById", Relation: "calls"},
	}))

	e := New(g)
	_, err := e.DetectByRule("controller-dao")
	require.NoError(t, err)
	_, err = e.DetectByRule("controller-dao")
	require.NoError(t, err)

	all, err := g.GetAntiPatterns("controller-dao")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestListRules_IncludesControllerDAO(t *testing.T) {
	e := New(newTestStore(t))
	ids := make([]string, 0)
	for _, r := range e.ListRules() {
		ids = append(ids, r.ID())
	}
	require.Contains(t, ids, "controller-dao")
}
