// Package rules implements component K: a pluggable architectural rule
// engine. Each Rule inspects the graph store and reports AntiPattern
// findings; the Engine runs one, several, or all registered rules.
package rules

import (
	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
)

// Severity mirrors the anti_patterns.severity column.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Rule is one pluggable architectural check.
type Rule interface {
	ID() string
	Severity() Severity
	Description() string
	Detect(store *graphstore.Store) ([]graphstore.AntiPattern, error)
}

// Engine holds the registered rule set and runs detection, persisting
// findings back to the store.
type Engine struct {
	store *graphstore.Store
	rules map[string]Rule
	order []string
}

// New builds an Engine over store with the default rule set registered.
func New(store *graphstore.Store) *Engine {
	e := &Engine{store: store, rules: make(map[string]Rule)}
	e.Register(NewControllerDAORule())
	return e
}

// Register adds a rule to the engine, in registration order.
func (e *Engine) Register(r Rule) {
	if _, exists := e.rules[r.ID()]; !exists {
		e.order = append(e.order, r.ID())
	}
	e.rules[r.ID()] = r
}

// ListRules returns the registered rules in registration order.
func (e *Engine) ListRules() []Rule {
	out := make([]Rule, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rules[id])
	}
	return out
}

// DetectByRule runs a single rule by id, replacing its prior findings.
// Unknown rule ids are a fatal argument error (4.K).
func (e *Engine) DetectByRule(id string) ([]graphstore.AntiPattern, error) {
	r, ok := e.rules[id]
	if !ok {
		return nil, apperr.New(apperr.InvalidArgument, "rules: unknown rule id %q", id)
	}
	return e.runAndPersist(r)
}

// DetectAll runs every registered rule and returns the union of findings.
func (e *Engine) DetectAll() ([]graphstore.AntiPattern, error) {
	var all []graphstore.AntiPattern
	for _, id := range e.order {
		found, err := e.runAndPersist(e.rules[id])
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}

func (e *Engine) runAndPersist(r Rule) ([]graphstore.AntiPattern, error) {
	found, err := r.Detect(e.store)
	if err != nil {
		return nil, err
	}
	if _, err := e.store.DeleteAntiPatternsByRule(r.ID()); err != nil {
		return nil, err
	}
	for _, ap := range found {
		if err := e.store.InsertAntiPattern(ap); err != nil {
			return nil, err
		}
	}
	return found, nil
}
