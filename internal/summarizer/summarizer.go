// Package summarizer implements component G: bounded-concurrency fan-out
// of LLM calls over a batch of symbols, with error isolation and a
// deterministic fallback for any item that fails.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jersy/ariadne/internal/llm"
	"github.com/jersy/ariadne/internal/logging"
)

// Item is one unit of summarization work: a symbol identified by FQN,
// its kind, and the source text to summarize.
type Item struct {
	FQN        string
	Name       string
	Kind       string // class|interface|method|field
	Modifiers  []string
	SourceText string
	ContextHint string
}

// Stats tracks batch-level outcome counts under a lock so a snapshot is
// always internally consistent (4.G: "never compute success by
// subtraction without the lock").
type Stats struct {
	mu      sync.Mutex
	Total   int
	Success int
	Failed  int
	Skipped int
}

// Snapshot returns a copy of the current counts.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Total: s.Total, Success: s.Success, Failed: s.Failed, Skipped: s.Skipped}
}

func (s *Stats) recordSuccess() {
	s.mu.Lock()
	s.Success++
	s.mu.Unlock()
}

func (s *Stats) recordFailed() {
	s.mu.Lock()
	s.Failed++
	s.mu.Unlock()
}

func (s *Stats) recordSkipped() {
	s.mu.Lock()
	s.Skipped++
	s.mu.Unlock()
}

// Summarizer bounds concurrent LLM calls at maxWorkers and falls back to a
// deterministic heuristic summary on any per-item failure or timeout.
type Summarizer struct {
	client     llm.Client
	maxWorkers int
	timeout    time.Duration
}

// New builds a Summarizer. maxWorkers defaults to 10, timeout to 30s, per
// 4.G's stated defaults.
func New(client llm.Client, maxWorkers int, timeout time.Duration) *Summarizer {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Summarizer{client: client, maxWorkers: maxWorkers, timeout: timeout}
}

// ProgressFunc is invoked after each item completes, reporting the running
// Stats snapshot — the "show_progress" hook of summarize_batch's contract.
type ProgressFunc func(Stats)

// SummarizeBatch implements summarize_batch: runs one LLM call per item
// across a bounded pool, returning fqn -> summary_text. A failing or
// timed-out item never cancels its peers — it is replaced by
// FallbackSummary and counted as failed.
func (s *Summarizer) SummarizeBatch(ctx context.Context, items []Item, onProgress ProgressFunc) (map[string]string, *Stats) {
	stats := &Stats{Total: len(items)}
	results := make(map[string]string, len(items))
	var resultsMu sync.Mutex

	if len(items) == 0 {
		return results, stats
	}

	eg := new(errgroup.Group)
	eg.SetLimit(s.maxWorkers)

	log := logging.Get(logging.CategorySummarizer)

	for _, item := range items {
		item := item
		// Returning nil unconditionally keeps a per-item failure out of
		// eg.Wait's result; the group has no shared context, so one item's
		// failure never cancels its peers and is covered by the fallback.
		eg.Go(func() error {
			text, err := s.summarizeOne(ctx, item)
			if err != nil {
				log.Warnw("summarization failed, using fallback", "fqn", item.FQN, "error", err)
				text = FallbackSummary(item)
				stats.recordFailed()
			} else {
				stats.recordSuccess()
			}

			resultsMu.Lock()
			results[item.FQN] = text
			resultsMu.Unlock()

			if onProgress != nil {
				onProgress(stats.Snapshot())
			}
			return nil
		})
	}

	eg.Wait()
	return results, stats
}

func (s *Summarizer) summarizeOne(ctx context.Context, item Item) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Summarize(callCtx, item.SourceText, item.ContextHint)
}

// FallbackSummary derives a deterministic stock phrase from a symbol's
// own name/signature, used when the LLM call fails or times out (4.G).
func FallbackSummary(item Item) string {
	name := item.Name
	lower := strings.ToLower(name)

	isStatic := false
	for _, m := range item.Modifiers {
		if strings.EqualFold(m, "static") {
			isStatic = true
		}
	}

	switch {
	case strings.HasPrefix(lower, "get") && len(name) > 3:
		return fmt.Sprintf("Getter for %s.", strings.TrimPrefix(name, name[:3]))
	case strings.HasPrefix(lower, "set") && len(name) > 3:
		return fmt.Sprintf("Setter for %s.", strings.TrimPrefix(name, name[:3]))
	case strings.HasPrefix(lower, "is") && len(name) > 2:
		return fmt.Sprintf("Boolean check: %s.", name)
	case isStatic:
		return fmt.Sprintf("Static method: %s.", name)
	case item.Kind == "class" || item.Kind == "interface":
		return fmt.Sprintf("Type: %s.", name)
	default:
		return fmt.Sprintf("Method: %s.", name)
	}
}
