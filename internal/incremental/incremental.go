// Package incremental implements component H: end-to-end orchestration of
// invalidate -> load -> summarize -> persist for one batch of changed
// symbols.
package incremental

import (
	"context"
	"time"

	"github.com/jersy/ariadne/internal/business"
	"github.com/jersy/ariadne/internal/deptrack"
	"github.com/jersy/ariadne/internal/dualwrite"
	"github.com/jersy/ariadne/internal/embedding"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/logging"
	"github.com/jersy/ariadne/internal/summarizer"
	"github.com/jersy/ariadne/internal/vectorstore"
)

// PhaseTimings records how long each protocol step took.
type PhaseTimings struct {
	DependencyAnalysis time.Duration
	SymbolLoad         time.Duration
	FreshnessFilter    time.Duration
	Summarization      time.Duration
	Persist            time.Duration
}

// Result is IncrementalResult: the outcome of one end-to-end run.
type Result struct {
	RegeneratedCount     int
	SkippedCached        int
	SkippedNoSource      int
	Timings              PhaseTimings
	Throughput           float64 // regenerated per second, over Summarization+Persist
	CostReport           summarizer.Stats
	GlossaryExtracted    int
	ConstraintsExtracted int
}

// Coordinator wires together F, G, C and an embedding engine to drive one
// incremental update.
type Coordinator struct {
	store       *graphstore.Store
	tracker     *deptrack.Tracker
	summarizer  *summarizer.Summarizer
	dualwrite   *dualwrite.Coordinator
	embedder    embedding.Engine
	collection  vectorstore.Collection
}

// New builds a Coordinator.
func New(store *graphstore.Store, tracker *deptrack.Tracker, summ *summarizer.Summarizer, dw *dualwrite.Coordinator, embedder embedding.Engine) *Coordinator {
	return &Coordinator{store: store, tracker: tracker, summarizer: summ, dualwrite: dw, embedder: embedder, collection: vectorstore.CollectionSummaries}
}

// Run executes the protocol of 4.H over changed (an FQN list) and source
// (fqn -> current source text).
func (c *Coordinator) Run(ctx context.Context, changed []string, source map[string]string) (*Result, error) {
	log := logging.Get(logging.CategoryIncremental)
	result := &Result{}

	t0 := time.Now()
	affected, err := c.tracker.GetAffectedSymbols(changed)
	if err != nil {
		return nil, err
	}
	result.Timings.DependencyAnalysis = time.Since(t0)

	t1 := time.Now()
	symbols, err := c.store.GetSymbolsByFQNs(affected.TotalSet)
	if err != nil {
		return nil, err
	}
	var loaded []graphstore.Symbol
	for _, sym := range symbols {
		if _, ok := source[sym.FQN]; !ok {
			log.Debugw("skipping symbol with no source text", "fqn", sym.FQN)
			result.SkippedNoSource++
			continue
		}
		loaded = append(loaded, sym)
	}
	result.Timings.SymbolLoad = time.Since(t1)

	t2 := time.Now()
	fqns := make([]string, len(loaded))
	for i, sym := range loaded {
		fqns[i] = sym.FQN
	}
	staleness, err := c.store.GetStaleness(fqns)
	if err != nil {
		return nil, err
	}
	var toSummarize []graphstore.Symbol
	for _, sym := range loaded {
		if stale, ok := staleness[sym.FQN]; ok && !stale {
			result.SkippedCached++
			continue
		}
		toSummarize = append(toSummarize, sym)
	}
	result.Timings.FreshnessFilter = time.Since(t2)

	if len(toSummarize) == 0 {
		return result, nil
	}

	items := make([]summarizer.Item, len(toSummarize))
	for i, sym := range toSummarize {
		items[i] = summarizer.Item{
			FQN: sym.FQN, Name: sym.Name, Kind: sym.Kind, Modifiers: sym.Modifiers,
			SourceText:  source[sym.FQN],
			ContextHint: sym.Kind + " " + sym.FQN,
		}
	}

	t3 := time.Now()
	summaries, stats := c.summarizer.SummarizeBatch(ctx, items, nil)
	result.Timings.Summarization = time.Since(t3)
	result.CostReport = stats.Snapshot()

	t4 := time.Now()
	refreshed, err := c.store.GetStaleness(fqns)
	if err != nil {
		return nil, err
	}
	for _, sym := range toSummarize {
		if stale, ok := refreshed[sym.FQN]; ok && !stale {
			// A concurrent update freshened this row between our filter
			// and now; skip to avoid clobbering newer work.
			result.SkippedCached++
			continue
		}

		text, ok := summaries[sym.FQN]
		if !ok {
			continue
		}

		var vec []float32
		if c.embedder != nil {
			v, err := c.embedder.Embed(ctx, text)
			if err != nil {
				log.Warnw("embedding failed, persisting summary without vector", "fqn", sym.FQN, "error", err)
			} else {
				vec = v
			}
		}

		if err := c.dualwrite.CreateSummaryWithVector(c.collection, graphstore.Summary{
			TargetFQN:   sym.FQN,
			Level:       summaryLevel(sym.Kind),
			SummaryText: text,
		}, vec); err != nil {
			log.Errorw("failed to persist summary", "fqn", sym.FQN, "error", err)
			continue
		}
		result.RegeneratedCount++

		// Business-vocabulary and constraint extraction (SUPPLEMENTED
		// FEATURES item 2): derived from the symbol's own name/annotations,
		// seeded with the summary just generated for it, and persisted
		// through the same dual-write path as the summary itself.
		for _, term := range business.ExtractGlossaryTerms(sym) {
			term.BusinessMeaning = text
			if err := c.dualwrite.CreateGlossaryEntryWithVector(term, vec); err != nil {
				log.Warnw("failed to persist glossary entry", "code_term", term.CodeTerm, "fqn", sym.FQN, "error", err)
				continue
			}
			result.GlossaryExtracted++
		}
		for _, constraint := range business.ExtractConstraints(sym) {
			constraint.Description = text
			if err := c.dualwrite.CreateConstraintWithVector(constraint, vec); err != nil {
				log.Warnw("failed to persist constraint", "name", constraint.Name, "fqn", sym.FQN, "error", err)
				continue
			}
			result.ConstraintsExtracted++
		}
	}
	result.Timings.Persist = time.Since(t4)

	elapsed := (result.Timings.Summarization + result.Timings.Persist).Seconds()
	if elapsed > 0 {
		result.Throughput = float64(result.RegeneratedCount) / elapsed
	}

	log.Infow("incremental run complete", "regenerated", result.RegeneratedCount, "skipped_cached", result.SkippedCached)
	return result, nil
}

// summaryLevel maps a symbol kind to a summary level per 4.H step 5.
func summaryLevel(kind string) string {
	switch kind {
	case "method":
		return "method"
	case "class", "interface":
		return "class"
	default:
		return "method"
	}
}
