// Package impact implements component I: N-hop reverse traversal plus
// risk/confidence scoring for change-impact analysis.
package impact

import (
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/layer"
	"github.com/jersy/ariadne/internal/testmapper"
)

// RiskCategory is the bucket a risk score falls into.
type RiskCategory string

const (
	RiskCritical RiskCategory = "CRITICAL"
	RiskHigh     RiskCategory = "HIGH"
	RiskMedium   RiskCategory = "MEDIUM"
	RiskLow      RiskCategory = "LOW"
)

// Caller is a resolved caller symbol, annotated with its layer.
type Caller struct {
	FQN   string
	Kind  string
	Name  string
	Layer string
	Depth int
}

// Result is ImpactResult.
type Result struct {
	Target              string
	Callers             []Caller
	EntryPoints         []graphstore.EntryPoint
	RelatedTests        []string
	MissingTestCoverage []string
	RiskScore           int
	RiskCategory        RiskCategory
	Confidence          float64
}

// Analyzer drives analyze_impact over a graph store.
type Analyzer struct {
	store *graphstore.Store
}

// New builds an Analyzer.
func New(store *graphstore.Store) *Analyzer {
	return &Analyzer{store: store}
}

// Options configures one analyze_impact call.
type Options struct {
	Depth             int
	IncludeTests      bool
	IncludeTransitive bool
}

// AnalyzeImpact implements 4.I's protocol.
func (a *Analyzer) AnalyzeImpact(target string, opts Options) (*Result, error) {
	if _, err := a.store.GetSymbol(target); err != nil {
		return nil, err
	}

	depth := opts.Depth
	if depth <= 0 {
		depth = 1
	}
	if !opts.IncludeTransitive {
		depth = 1
	}

	rows, err := a.store.GetReverseCallers(target, depth)
	if err != nil {
		return nil, err
	}

	callerFQNs := make([]string, 0, len(rows))
	depthByFQN := make(map[string]int, len(rows))
	for _, r := range rows {
		if _, ok := depthByFQN[r.FromFQN]; !ok {
			callerFQNs = append(callerFQNs, r.FromFQN)
		}
		if existing, ok := depthByFQN[r.FromFQN]; !ok || r.Depth < existing {
			depthByFQN[r.FromFQN] = r.Depth
		}
	}

	symbols, err := a.store.GetSymbolsByFQNs(callerFQNs)
	if err != nil {
		return nil, err
	}
	symbolByFQN := make(map[string]graphstore.Symbol, len(symbols))
	for _, s := range symbols {
		symbolByFQN[s.FQN] = s
	}

	callers := make([]Caller, 0, len(callerFQNs))
	for _, fqn := range callerFQNs {
		sym, ok := symbolByFQN[fqn]
		if !ok {
			continue
		}
		callers = append(callers, Caller{
			FQN: fqn, Kind: sym.Kind, Name: sym.Name,
			Layer: layer.Derive(sym.Kind, sym.Annotations),
			Depth: depthByFQN[fqn],
		})
	}

	entryPoints, err := a.store.GetEntryPointsByFQNs(callerFQNs)
	if err != nil {
		return nil, err
	}

	result := &Result{Target: target, Callers: callers, EntryPoints: entryPoints}

	if opts.IncludeTests {
		covered := make(map[string]bool)
		for _, c := range callers {
			sym := symbolByFQN[c.FQN]
			if sym.FilePath == "" {
				continue
			}
			tests := testmapper.FindRelatedTests(sym.FilePath)
			if len(tests) > 0 {
				covered[c.FQN] = true
				result.RelatedTests = append(result.RelatedTests, tests...)
			}
		}
		for _, c := range callers {
			if !covered[c.FQN] {
				result.MissingTestCoverage = append(result.MissingTestCoverage, c.FQN)
			}
		}
	}

	result.RiskScore = riskScore(len(callers), len(entryPoints), len(result.MissingTestCoverage))
	result.RiskCategory = categorize(result.RiskScore)
	result.Confidence = confidence(len(callers), len(result.RelatedTests))

	return result, nil
}

func riskScore(callerCount, entryPointCount, missingCoverageCount int) int {
	score := 0

	switch {
	case callerCount == 0:
		score += 0
	case callerCount <= 5:
		score += 10
	case callerCount <= 10:
		score += 20
	case callerCount <= 20:
		score += 30
	default:
		score += 30
	}

	switch {
	case entryPointCount == 0:
		score += 0
	case entryPointCount == 1:
		score += 30
	case entryPointCount <= 3:
		score += 40
	default:
		score += 50
	}

	switch {
	case missingCoverageCount == 0:
		score += 0
	case missingCoverageCount <= 2:
		score += 10
	case missingCoverageCount <= 5:
		score += 15
	default:
		score += 20
	}

	return score
}

func categorize(score int) RiskCategory {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// confidence implements 4.I.6: 0.5 + min(0.05*callers, 0.3) + min(0.1*tests, 0.2), clamped to 1.0.
func confidence(callerCount, testCount int) float64 {
	c := 0.5 + min(0.05*float64(callerCount), 0.3) + min(0.1*float64(testCount), 0.2)
	if c > 1.0 {
		c = 1.0
	}
	return c
}
