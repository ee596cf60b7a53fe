// Package deptrack implements component F: 1-hop reverse reachability for
// stale-marking. Changes to a leaf method invalidate its direct callers
// and its containing class's summary, but not the whole reverse cone —
// transitively invalidating further over-regenerates and destroys cache
// value.
package deptrack

import (
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/logging"
)

// AffectedSymbols is the result of GetAffectedSymbols: the original
// changed set, the symbols discovered as dependents, and their union.
type AffectedSymbols struct {
	Changed    []string
	Dependents []string
	TotalSet   []string
}

// Tracker computes and applies 1-hop invalidation over a graph store.
type Tracker struct {
	store *graphstore.Store
}

// New builds a Tracker over store.
func New(store *graphstore.Store) *Tracker {
	return &Tracker{store: store}
}

// GetAffectedSymbols implements 4.F's algorithm: direct callers via a
// single batched query, containing classes via a second batched query,
// unioned with the changed set, then marked stale as part of the same
// logical operation so callers cannot forget to do so.
func (t *Tracker) GetAffectedSymbols(changed []string) (*AffectedSymbols, error) {
	if len(changed) == 0 {
		return &AffectedSymbols{}, nil
	}

	callers, err := t.store.GetCallersBatch(changed)
	if err != nil {
		return nil, err
	}

	parents, err := t.store.GetParentsBatch(changed)
	if err != nil {
		return nil, err
	}

	union := newStringSet()
	union.addAll(changed)

	var dependents []string
	for _, c := range callers {
		if union.add(c) {
			dependents = append(dependents, c)
		}
	}
	for _, parent := range parents {
		if parent == "" {
			continue
		}
		if union.add(parent) {
			dependents = append(dependents, parent)
		}
	}

	total := union.items()

	if _, err := t.store.MarkSummariesStale(total); err != nil {
		return nil, err
	}

	logging.Get(logging.CategoryDepTrack).Infow("computed affected symbols",
		"changed", len(changed), "dependents", len(dependents), "total", len(total))

	return &AffectedSymbols{Changed: changed, Dependents: dependents, TotalSet: total}, nil
}

type stringSet struct {
	seen  map[string]bool
	order []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]bool)}
}

// add reports whether v was newly added (false if already present).
func (s *stringSet) add(v string) bool {
	if s.seen[v] {
		return false
	}
	s.seen[v] = true
	s.order = append(s.order, v)
	return true
}

func (s *stringSet) addAll(vs []string) {
	for _, v := range vs {
		s.add(v)
	}
}

func (s *stringSet) items() []string {
	return s.order
}
