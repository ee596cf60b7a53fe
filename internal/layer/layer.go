// Package layer implements the architectural-layer derivation shared by
// the impact analyzer (4.I) and the call-chain tracer (4.J).
package layer

import "strings"

// Derive inspects a symbol's annotations to classify its architectural
// layer. Controller/RestController -> controller, Service -> service,
// Repository -> repository. Otherwise class-kind symbols default to
// domain; anything else is unknown.
func Derive(kind string, annotations []string) string {
	for _, a := range annotations {
		switch {
		case containsAny(a, "Controller", "RestController"):
			return "controller"
		case containsAny(a, "Service"):
			return "service"
		case containsAny(a, "Repository"):
			return "repository"
		}
	}
	if kind == "class" {
		return "domain"
	}
	return "unknown"
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
