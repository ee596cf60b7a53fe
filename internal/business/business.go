// Package business implements the deterministic half of the Python
// prototype's business-vocabulary and constraint extraction
// (ariadne_analyzer/l1_business/glossary.py, constraints.py): deriving
// candidate GlossaryEntry and Constraint rows from a symbol's own name and
// annotations. The prototype's LLM call that fills in business_meaning for
// a term is not duplicated here; the incremental coordinator (4.H) already
// generates an L1 summary for the same symbol, and that summary text is
// reused as the entry's business_meaning / constraint description instead
// of issuing a second model call for the same context.
package business

import (
	"regexp"
	"strings"

	"github.com/jersy/ariadne/internal/graphstore"
)

// classSuffixes are stripped from a class name to recover its business
// term, mirroring glossary.py's COMMON_SUFFIXES.
var classSuffixes = []string{
	"Entity", "DTO", "VO", "Model", "Service", "Repository",
	"Controller", "Manager", "Handler", "Processor",
}

// businessVerbs gate method-name extraction to methods that plausibly do
// something business-meaningful, mirroring glossary.py's BUSINESS_VERBS.
var businessVerbs = []string{
	"create", "update", "delete", "save", "find", "validate", "process",
	"calculate", "generate",
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// ExtractGlossaryTerms derives candidate GlossaryEntry rows from a class,
// method, or field symbol's own name, per glossary.py's three extraction
// paths (class names, method names gated on a business verb, field names).
// BusinessMeaning is left empty; the caller fills it from the symbol's
// generated summary before persisting.
func ExtractGlossaryTerms(sym graphstore.Symbol) []graphstore.GlossaryEntry {
	switch sym.Kind {
	case "class", "interface":
		return extractFromClassName(sym)
	case "method":
		return extractFromMethodName(sym)
	case "field":
		return extractFromFieldName(sym)
	default:
		return nil
	}
}

func extractFromClassName(sym graphstore.Symbol) []graphstore.GlossaryEntry {
	name := sym.Name
	if strings.HasPrefix(name, "Test") || strings.HasPrefix(name, "Mock") {
		return nil
	}

	term := name
	for _, suffix := range classSuffixes {
		if strings.HasSuffix(term, suffix) && len(term) > len(suffix) {
			term = strings.TrimSuffix(term, suffix)
			break
		}
	}
	if term == "" {
		return nil
	}

	return []graphstore.GlossaryEntry{{
		CodeTerm:  spaceCase(term),
		SourceFQN: sym.FQN,
	}}
}

func extractFromMethodName(sym graphstore.Symbol) []graphstore.GlossaryEntry {
	name := sym.Name
	if isAccessor(name) {
		return nil
	}
	if !hasBusinessVerb(name) {
		return nil
	}

	return []graphstore.GlossaryEntry{{
		CodeTerm:  spaceCase(name),
		SourceFQN: sym.FQN,
	}}
}

func extractFromFieldName(sym graphstore.Symbol) []graphstore.GlossaryEntry {
	name := sym.Name
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "serial") {
		return nil
	}

	return []graphstore.GlossaryEntry{{
		CodeTerm:  spaceCase(name),
		SourceFQN: sym.FQN,
	}}
}

func isAccessor(name string) bool {
	return strings.HasPrefix(name, "get") || strings.HasPrefix(name, "set") || strings.HasPrefix(name, "is")
}

func hasBusinessVerb(name string) bool {
	lower := strings.ToLower(name)
	for _, verb := range businessVerbs {
		if strings.HasPrefix(lower, verb) {
			return true
		}
	}
	return false
}

// spaceCase turns a camelCase identifier into space-separated lowercase
// words, e.g. "validateOrderTotal" -> "validate order total".
func spaceCase(s string) string {
	spaced := camelBoundary.ReplaceAllString(s, "$1 $2")
	return strings.ToLower(spaced)
}

// validationAnnotations are the Bean Validation style annotations
// constraints.py recognizes as explicit, per-parameter constraints.
var validationAnnotations = []string{
	"NotNull", "NotEmpty", "NotBlank", "Min", "Max", "Size", "Pattern", "Email", "Positive", "Negative",
}

// ExtractConstraints derives Constraint rows from a method symbol's
// validation annotations, per constraints.py's
// BusinessConstraintExtractor._extract_from_annotations. Description is
// left empty; the caller fills it from the symbol's generated summary
// before persisting, same as ExtractGlossaryTerms.
func ExtractConstraints(sym graphstore.Symbol) []graphstore.Constraint {
	if sym.Kind != "method" {
		return nil
	}

	var out []graphstore.Constraint
	for _, annotation := range sym.Annotations {
		for _, valid := range validationAnnotations {
			if strings.Contains(annotation, valid) {
				out = append(out, graphstore.Constraint{
					Name:      sym.Name + "_" + valid,
					SourceFQN: sym.FQN,
					Type:      "validation",
				})
				break
			}
		}
	}
	return out
}
