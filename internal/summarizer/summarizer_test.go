package summarizer

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	delay     time.Duration
	failFQNs  map[string]bool
	inflight  int32
	maxInFlight int32
}

func (f *fakeLLM) Summarize(ctx context.Context, code, contextHint string) (string, error) {
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		old := atomic.LoadInt32(&f.maxInFlight)
		if cur <= old || atomic.CompareAndSwapInt32(&f.maxInFlight, old, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.failFQNs[code] {
		return "", fmt.Errorf("simulated failure for %s", code)
	}
	return "summary of " + code, nil
}

func TestSummarizeBatch_AllSucceed(t *testing.T) {
	fake := &fakeLLM{}
	s := New(fake, 4, time.Second)

	items := []Item{
		{FQN: "a.Foo#m", Name: "m", SourceText: "a.Foo#m"},
		{FQN: "a.Bar#n", Name: "n", SourceText: "a.Bar#n"},
	}

	results, stats := s.SummarizeBatch(context.Background(), items, nil)
	require.Len(t, results, 2)
	require.Equal(t, "summary of a.Foo#m", results["a.Foo#m"])
	snap := stats.Snapshot()
	require.Equal(t, 2, snap.Total)
	require.Equal(t, 2, snap.Success)
	require.Equal(t, 0, snap.Failed)
}

func TestSummarizeBatch_FailedItemGetsFallbackAndDoesNotCancelPeers(t *testing.T) {
	fake := &fakeLLM{failFQNs: map[string]bool{"a.Foo#getName": true}}
	s := New(fake, 4, time.Second)

	items := []Item{
		{FQN: "a.Foo#getName", Name: "getName", SourceText: "a.Foo#getName"},
		{FQN: "a.Bar#n", Name: "n", SourceText: "a.Bar#n"},
	}

	results, stats := s.SummarizeBatch(context.Background(), items, nil)
	require.Equal(t, "summary of a.Bar#n", results["a.Bar#n"])
	require.Contains(t, results["a.Foo#getName"], "Getter")
	snap := stats.Snapshot()
	require.Equal(t, 1, snap.Success)
	require.Equal(t, 1, snap.Failed)
}

func TestSummarizeBatch_BoundsConcurrency(t *testing.T) {
	fake := &fakeLLM{delay: 20 * time.Millisecond}
	s := New(fake, 2, time.Second)

	items := make([]Item, 10)
	for i := range items {
		items[i] = Item{FQN: fmt.Sprintf("a.Foo#m%d", i), Name: "m", SourceText: fmt.Sprintf("code-%d", i)}
	}

	_, stats := s.SummarizeBatch(context.Background(), items, nil)
	require.Equal(t, 10, stats.Snapshot().Success)
	require.LessOrEqual(t, fake.maxInFlight, int32(2))
}

func TestFallbackSummary_StaticMethod(t *testing.T) {
	out := FallbackSummary(Item{Name: "computeTotal", Modifiers: []string{"static"}})
	require.Contains(t, out, "Static method")
}

func TestFallbackSummary_PlainMethod(t *testing.T) {
	out := FallbackSummary(Item{Name: "process"})
	require.Equal(t, "Method: process.", out)
}
