// Package callchain implements component J: the forward counterpart to
// the impact analyzer. It walks the call graph outward from a root,
// annotates every hop with its architectural layer, and enriches the
// result with any external dependency reachable from the chain.
package callchain

import (
	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/layer"
)

// Hop is one resolved step of a forward call chain.
type Hop struct {
	FQN   string
	Kind  string
	Name  string
	Layer string
	Depth int
}

// Result is the output of Trace.
type Result struct {
	Root         string
	Hops         []Hop
	ExternalDeps []graphstore.ExternalDependency
}

// Tracer drives forward traversal over a graph store.
type Tracer struct {
	store *graphstore.Store
}

// New builds a Tracer.
func New(store *graphstore.Store) *Tracer {
	return &Tracer{store: store}
}

// Entry identifies a traversal root either by raw FQN or by HTTP
// method+path, per 4.J's "entry descriptor" contract. FQN wins if set.
type Entry struct {
	FQN        string
	HTTPMethod string
	HTTPPath   string
}

// resolve turns an Entry into the FQN to start traversal from.
func (t *Tracer) resolve(e Entry) (string, error) {
	if e.FQN != "" {
		return e.FQN, nil
	}
	if e.HTTPMethod != "" && e.HTTPPath != "" {
		return t.store.ResolveEntryPointFQN(e.HTTPMethod, e.HTTPPath)
	}
	return "", apperr.New(apperr.InvalidArgument, "callchain: entry descriptor has neither fqn nor http method+path")
}

// Trace performs a depth-bounded forward traversal from the resolved
// entry, annotating each hop with its architectural layer and attaching
// any ExternalDependency whose caller_fqn appears in the chain.
func (t *Tracer) Trace(entry Entry, maxDepth int) (*Result, error) {
	root, err := t.resolve(entry)
	if err != nil {
		return nil, err
	}
	if _, err := t.store.GetSymbol(root); err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		maxDepth = 1
	}

	rows, err := t.store.GetCallChain(root, maxDepth)
	if err != nil {
		return nil, err
	}

	fqns := make([]string, 0, len(rows)+1)
	depthByFQN := make(map[string]int, len(rows)+1)
	fqns = append(fqns, root)
	depthByFQN[root] = 0
	for _, r := range rows {
		if _, ok := depthByFQN[r.ToFQN]; !ok {
			fqns = append(fqns, r.ToFQN)
		}
		if existing, ok := depthByFQN[r.ToFQN]; !ok || r.Depth+1 < existing {
			depthByFQN[r.ToFQN] = r.Depth + 1
		}
	}

	symbols, err := t.store.GetSymbolsByFQNs(fqns)
	if err != nil {
		return nil, err
	}
	symbolByFQN := make(map[string]graphstore.Symbol, len(symbols))
	for _, s := range symbols {
		symbolByFQN[s.FQN] = s
	}

	hops := make([]Hop, 0, len(fqns))
	for _, fqn := range fqns {
		sym, ok := symbolByFQN[fqn]
		if !ok {
			continue
		}
		hops = append(hops, Hop{
			FQN:   fqn,
			Kind:  sym.Kind,
			Name:  sym.Name,
			Layer: layer.Derive(sym.Kind, sym.Annotations),
			Depth: depthByFQN[fqn],
		})
	}

	deps, err := t.store.GetExternalDependenciesByFQNs(fqns)
	if err != nil {
		return nil, err
	}
	deps = dedupeByTarget(deps)

	return &Result{Root: root, Hops: hops, ExternalDeps: deps}, nil
}

func dedupeByTarget(deps []graphstore.ExternalDependency) []graphstore.ExternalDependency {
	seen := make(map[string]bool, len(deps))
	out := make([]graphstore.ExternalDependency, 0, len(deps))
	for _, d := range deps {
		key := d.Type + "|" + d.Target
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}
