// Package httpapi implements the HTTP request surface fixed by §6: the
// subset of the core's contracts the specification pins down (rebuild,
// job snapshot, impact analysis, graph query, search, metrics, health).
// Everything else about the transport (CORS/rate-limit middleware, CLI
// wrappers) is explicitly out of scope per §1 and lives in cmd/ariadne.
package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/callchain"
	"github.com/jersy/ariadne/internal/deptrack"
	"github.com/jersy/ariadne/internal/dualwrite"
	"github.com/jersy/ariadne/internal/embedding"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/impact"
	"github.com/jersy/ariadne/internal/incremental"
	"github.com/jersy/ariadne/internal/ingest"
	"github.com/jersy/ariadne/internal/jobqueue"
	"github.com/jersy/ariadne/internal/llm"
	"github.com/jersy/ariadne/internal/metrics"
	"github.com/jersy/ariadne/internal/rules"
	"github.com/jersy/ariadne/internal/shadow"
	"github.com/jersy/ariadne/internal/summarizer"
	"github.com/jersy/ariadne/internal/vectorstore"
)

// Server bundles every component the HTTP surface fronts. The relational
// store is held behind an atomic pointer: a successful shadow rebuild
// swaps it for a freshly opened handle onto the just-renamed file, so an
// in-flight request either finishes against the pre-swap store or the
// next request picks up the post-swap one — never a mix (§5).
type Server struct {
	storeRef atomic.Pointer[graphstore.Store]
	dbPath   string

	vectors  *vectorstore.Store
	embedder embedding.Engine
	llm      llm.Client
	ingestor *ingest.Client
	jobs     *jobqueue.Queue
	rebuilds *shadow.Rebuilder

	maxWorkers int
	llmTimeout time.Duration
}

// NewServer wires a Server over an already-open relational store and its
// companion components.
func NewServer(store *graphstore.Store, vectors *vectorstore.Store, embedder embedding.Engine, llmClient llm.Client, ingestor *ingest.Client, backupRetention, maxWorkers int, llmTimeout time.Duration) *Server {
	s := &Server{
		dbPath:     store.Path(),
		vectors:    vectors,
		embedder:   embedder,
		llm:        llmClient,
		ingestor:   ingestor,
		maxWorkers: maxWorkers,
		llmTimeout: llmTimeout,
	}
	s.storeRef.Store(store)
	s.jobs = jobqueue.New(store)
	s.rebuilds = shadow.New(store.Path(), ingestor, backupRetention)
	return s
}

// store returns the live relational store, safe to call concurrently with
// a rebuild's swap.
func (s *Server) store() *graphstore.Store {
	return s.storeRef.Load()
}

// swapStore is called after a successful shadow rebuild: it closes the
// pre-swap handle and opens a fresh one onto the renamed file.
func (s *Server) swapStore() error {
	old := s.store()
	next, err := graphstore.Open(s.dbPath)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "httpapi: reopen store after swap")
	}
	s.storeRef.Store(next)
	return old.Close()
}

func (s *Server) impactAnalyzer() *impact.Analyzer     { return impact.New(s.store()) }
func (s *Server) callChainTracer() *callchain.Tracer   { return callchain.New(s.store()) }
func (s *Server) ruleEngine() *rules.Engine            { return rules.New(s.store()) }
func (s *Server) dependencyTracker() *deptrack.Tracker { return deptrack.New(s.store()) }

func (s *Server) incrementalCoordinator() *incremental.Coordinator {
	summ := summarizer.New(s.llm, s.maxWorkers, s.llmTimeout)
	dw := dualwrite.New(s.store(), s.vectors)
	return incremental.New(s.store(), s.dependencyTracker(), summ, dw, s.embedder)
}

// NewRouter builds the chi mux for the fixed HTTP surface.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Post("/knowledge/rebuild", timed("rebuild", s.handleRebuild))
	r.Get("/jobs/{job_id}", timed("jobs.get", s.handleGetJob))
	r.Get("/knowledge/impact", timed("impact", s.handleImpact))
	r.Get("/knowledge/callchain", timed("callchain", s.handleCallChain))
	r.Post("/knowledge/graph/query", timed("graph.query", s.handleGraphQuery))
	r.Get("/knowledge/search", timed("search", s.handleSearch))
	r.Get("/knowledge/rules", timed("rules.list", s.handleListRules))
	r.Post("/knowledge/rules/detect", timed("rules.detect", s.handleDetectRules))
	r.Handle("/knowledge/metrics", metrics.Handler())
	r.Handle("/metrics", metrics.Handler())
	r.Get("/health", timed("health", s.handleHealth))
	return r
}

// timed wraps a handler with the API-request counters/histogram every
// route reports (§9's metrics accumulator).
func timed(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		timer.ObserveDurationVec(metrics.APIRequestDuration, route)
		metrics.APIRequestsTotal.WithLabelValues(route, http.StatusText(rec.status)).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(parent, d)
}
