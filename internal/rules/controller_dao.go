package rules

import (
	"strings"

	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/layer"
)

// daoSuffixes name the persistence-layer class suffixes a controller must
// never call directly.
var daoSuffixes = []string{"Mapper", "Dao", "Repository"}

// ControllerDAORule flags controller methods that call directly into a
// persistence-layer class, skipping the service layer (4.K's
// representative rule).
type ControllerDAORule struct{}

// NewControllerDAORule builds the rule.
func NewControllerDAORule() *ControllerDAORule {
	return &ControllerDAORule{}
}

func (r *ControllerDAORule) ID() string        { return "controller-dao" }
func (r *ControllerDAORule) Severity() Severity { return SeverityError }
func (r *ControllerDAORule) Description() string {
	return "controller calls a Mapper/Dao/Repository class directly, bypassing the service layer"
}

func (r *ControllerDAORule) Detect(store *graphstore.Store) ([]graphstore.AntiPattern, error) {
	classes, err := store.GetSymbolsByKind("class")
	if err != nil {
		return nil, err
	}

	var findings []graphstore.AntiPattern
	for _, class := range classes {
		if layer.Derive(class.Kind, class.Annotations) != "controller" {
			continue
		}

		methods, err := store.GetSymbolsByParent(class.FQN)
		if err != nil {
			return nil, err
		}
		for _, m := range methods {
			if m.Kind != "method" {
				continue
			}
			edges, err := store.GetEdgesFrom(m.FQN, "calls")
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if name, ok := isDAOTarget(store, e.ToFQN); ok {
					findings = append(findings, graphstore.AntiPattern{
						RuleID:   r.ID(),
						FromFQN:  m.FQN,
						ToFQN:    e.ToFQN,
						Severity: string(r.Severity()),
						Message:  "controller method " + m.FQN + " calls persistence class " + name + " directly",
					})
				}
			}
		}
	}
	return findings, nil
}

// isDAOTarget decides whether a call target resolves to a persistence
// class: its name ends in Mapper/Dao/Repository (excluding Base-prefixed
// framework bases), or its class-level annotations name Repository/Mapper.
func isDAOTarget(store *graphstore.Store, toFQN string) (string, bool) {
	className := classNameOf(toFQN)
	if strings.HasPrefix(className, "Base") {
		return "", false
	}

	if hasDAOSuffix(className) {
		return className, true
	}

	parentFQN := parentClassFQN(toFQN)
	if parentFQN == "" {
		return "", false
	}
	sym, err := store.GetSymbol(parentFQN)
	if err != nil {
		return "", false
	}
	if strings.HasPrefix(sym.Name, "Base") {
		return "", false
	}
	for _, a := range sym.Annotations {
		if strings.Contains(a, "Repository") || strings.Contains(a, "Mapper") {
			return sym.Name, true
		}
	}
	return "", false
}

func hasDAOSuffix(name string) bool {
	for _, suffix := range daoSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// classNameOf extracts the simple class name from either a class FQN or a
// method FQN of the form "some.pkg.Class#method".
func classNameOf(fqn string) string {
	classFQN := parentClassFQN(fqn)
	if classFQN == "" {
		classFQN = fqn
	}
	if i := strings.LastIndex(classFQN, "."); i >= 0 {
		return classFQN[i+1:]
	}
	return classFQN
}

// parentClassFQN returns the class portion of a method FQN, or "" if fqn
// has no "#" separator (i.e. it already names a class).
func parentClassFQN(fqn string) string {
	if i := strings.Index(fqn, "#"); i >= 0 {
		return fqn[:i]
	}
	return ""
}
