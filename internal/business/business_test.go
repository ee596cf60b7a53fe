package business

import (
	"testing"

	"github.com/jersy/ariadne/internal/graphstore"
)

func TestExtractGlossaryTerms_ClassStripsCommonSuffix(t *testing.T) {
	terms := ExtractGlossaryTerms(graphstore.Symbol{FQN: "a.OrderEntity", Kind: "class", Name: "OrderEntity"})
	if len(terms) != 1 || terms[0].CodeTerm != "order" {
		t.Fatalf("expected term %q, got %+v", "order", terms)
	}
}

func TestExtractGlossaryTerms_SkipsTestAndMockClasses(t *testing.T) {
	if got := ExtractGlossaryTerms(graphstore.Symbol{Kind: "class", Name: "TestOrderService"}); got != nil {
		t.Fatalf("expected no terms for Test-prefixed class, got %+v", got)
	}
	if got := ExtractGlossaryTerms(graphstore.Symbol{Kind: "class", Name: "MockOrderService"}); got != nil {
		t.Fatalf("expected no terms for Mock-prefixed class, got %+v", got)
	}
}

func TestExtractGlossaryTerms_MethodRequiresBusinessVerb(t *testing.T) {
	if got := ExtractGlossaryTerms(graphstore.Symbol{Kind: "method", Name: "getOrderId"}); got != nil {
		t.Fatalf("expected getter to be skipped, got %+v", got)
	}
	terms := ExtractGlossaryTerms(graphstore.Symbol{FQN: "a.Order#validateTotal", Kind: "method", Name: "validateTotal"})
	if len(terms) != 1 || terms[0].CodeTerm != "validate total" {
		t.Fatalf("expected %q, got %+v", "validate total", terms)
	}
}

func TestExtractGlossaryTerms_FieldSkipsUnderscoreAndSerial(t *testing.T) {
	if got := ExtractGlossaryTerms(graphstore.Symbol{Kind: "field", Name: "_internal"}); got != nil {
		t.Fatalf("expected underscore field to be skipped, got %+v", got)
	}
	if got := ExtractGlossaryTerms(graphstore.Symbol{Kind: "field", Name: "serialVersionUID"}); got != nil {
		t.Fatalf("expected serial-prefixed field to be skipped, got %+v", got)
	}
	terms := ExtractGlossaryTerms(graphstore.Symbol{FQN: "a.Order#shippingAddress", Kind: "field", Name: "shippingAddress"})
	if len(terms) != 1 || terms[0].CodeTerm != "shipping address" {
		t.Fatalf("expected %q, got %+v", "shipping address", terms)
	}
}

func TestExtractConstraints_OnlyMethodsWithValidationAnnotations(t *testing.T) {
	if got := ExtractConstraints(graphstore.Symbol{Kind: "class", Name: "Order", Annotations: []string{"NotNull"}}); got != nil {
		t.Fatalf("expected non-method symbol to be skipped, got %+v", got)
	}

	constraints := ExtractConstraints(graphstore.Symbol{
		FQN: "a.Order#save", Kind: "method", Name: "save",
		Annotations: []string{"javax.validation.constraints.NotNull", "Deprecated"},
	})
	if len(constraints) != 1 || constraints[0].Name != "save_NotNull" || constraints[0].Type != "validation" {
		t.Fatalf("expected one NotNull validation constraint, got %+v", constraints)
	}
}
