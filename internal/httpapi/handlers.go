package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/callchain"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/impact"
	"github.com/jersy/ariadne/internal/logging"
	"github.com/jersy/ariadne/internal/metrics"
	"github.com/jersy/ariadne/internal/vectorstore"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, err error) {
	problem := apperr.ToProblem(err)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

func jobToResponse(j *graphstore.Job) jobResponse {
	return jobResponse{
		JobID: j.JobID, Mode: j.Mode, Status: j.Status, Progress: j.Progress,
		TotalFiles: j.TotalFiles, ProcessedFiles: j.ProcessedFiles, TargetPaths: j.TargetPaths,
		StartedAt: j.StartedAt, CompletedAt: j.CompletedAt, ErrorMessage: j.ErrorMessage, CreatedAt: j.CreatedAt,
	}
}

// handleRebuild implements POST /knowledge/rebuild: create a job, then run
// it either inline (async=false, the default) or in a background
// goroutine, in both cases honoring 4.E's single-running-job invariant via
// AcquireJob.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, apperr.New(apperr.InvalidArgument, "httpapi: malformed rebuild request: %v", err))
		return
	}
	if req.Mode != "full" && req.Mode != "incremental" {
		writeProblem(w, apperr.New(apperr.InvalidArgument, "httpapi: mode must be full or incremental, got %q", req.Mode))
		return
	}

	job, err := s.jobs.CreateJob(req.Mode, req.TargetPaths)
	if err != nil {
		writeProblem(w, err)
		return
	}
	metrics.JobTransitionsTotal.WithLabelValues("pending").Inc()

	run := func() {
		if _, err := s.jobs.AcquireJob(job.JobID); err != nil {
			logging.Get(logging.CategoryAPI).Warnw("rebuild job lost acquire race", "job_id", job.JobID, "error", err)
			return
		}
		metrics.JobTransitionsTotal.WithLabelValues("running").Inc()
		s.runRebuild(r.Context(), job)
	}

	if req.Async {
		go run()
		writeJSON(w, http.StatusAccepted, rebuildResponse{JobID: job.JobID, Status: "pending", Message: "rebuild scheduled"})
		return
	}

	run()
	final, err := s.jobs.GetJob(job.JobID)
	if err != nil {
		writeProblem(w, err)
		return
	}
	resp := rebuildResponse{JobID: final.JobID, Status: final.Status}
	if final.Status == "failed" {
		resp.Message = final.ErrorMessage
	} else {
		resp.Message = "rebuild complete"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runRebuild(ctx context.Context, job *graphstore.Job) {
	log := logging.Get(logging.CategoryAPI)
	timer := metrics.NewTimer()

	if job.Mode == "full" {
		stats, err := s.rebuilds.RebuildFull(ctx)
		if err != nil {
			metrics.RebuildsTotal.WithLabelValues("full", "failed").Inc()
			_ = s.jobs.FailJob(job.JobID, err.Error())
			metrics.JobTransitionsTotal.WithLabelValues("failed").Inc()
			log.Errorw("full rebuild failed", "job_id", job.JobID, "error", err)
			return
		}
		if err := s.swapStore(); err != nil {
			log.Errorw("store reopen after swap failed", "job_id", job.JobID, "error", err)
		}
		metrics.RebuildsTotal.WithLabelValues("full", "success").Inc()
		timer.ObserveDurationVec(metrics.RebuildDuration, "full")
		_ = s.jobs.CompleteJob(job.JobID, stats.SymbolCount)
		metrics.JobTransitionsTotal.WithLabelValues("complete").Inc()
		return
	}

	changed := job.TargetPaths
	source := make(map[string]string, len(changed))
	for _, fqn := range changed {
		sym, err := s.store().GetSymbol(fqn)
		if err != nil {
			continue
		}
		if sym.FilePath == "" {
			continue
		}
		if data, err := os.ReadFile(sym.FilePath); err == nil {
			source[fqn] = string(data)
		}
	}

	result, err := s.incrementalCoordinator().Run(ctx, changed, source)
	if err != nil {
		_ = s.jobs.FailJob(job.JobID, err.Error())
		metrics.JobTransitionsTotal.WithLabelValues("failed").Inc()
		log.Errorw("incremental rebuild failed", "job_id", job.JobID, "error", err)
		return
	}
	timer.ObserveDurationVec(metrics.RebuildDuration, "incremental")
	_ = s.jobs.CompleteJob(job.JobID, result.RegeneratedCount)
	metrics.JobTransitionsTotal.WithLabelValues("complete").Inc()
}

// handleGetJob implements GET /jobs/{job_id}.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := s.jobs.GetJob(jobID)
	if err != nil {
		writeProblem(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(job))
}

// handleImpact implements GET /knowledge/impact (4.I).
func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("target")
	if target == "" {
		writeProblem(w, apperr.New(apperr.InvalidArgument, "httpapi: target is required"))
		return
	}

	opts := impact.Options{
		Depth:             atoiDefault(q.Get("depth"), 1),
		IncludeTests:      q.Get("include_tests") == "true",
		IncludeTransitive: q.Get("include_transitive") == "true",
	}

	result, err := s.impactAnalyzer().AnalyzeImpact(target, opts)
	if err != nil {
		writeProblem(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleCallChain implements GET /knowledge/callchain (4.J).
func (s *Server) handleCallChain(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entry := callchain.Entry{
		FQN:        q.Get("fqn"),
		HTTPMethod: q.Get("http_method"),
		HTTPPath:   q.Get("http_path"),
	}
	depth := atoiDefault(q.Get("depth"), 10)

	result, err := s.callChainTracer().Trace(entry, depth)
	if err != nil {
		writeProblem(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGraphQuery implements POST /knowledge/graph/query.
func (s *Server) handleGraphQuery(w http.ResponseWriter, r *http.Request) {
	var req graphQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, apperr.New(apperr.InvalidArgument, "httpapi: malformed graph query: %v", err))
		return
	}
	if req.Start == "" {
		writeProblem(w, apperr.New(apperr.InvalidArgument, "httpapi: start is required"))
		return
	}
	if req.Depth <= 0 {
		req.Depth = 1
	}
	if req.MaxResults <= 0 {
		req.MaxResults = 100
	}

	start := time.Now()
	store := s.store()

	var rows []graphstore.TraversalRow
	var err error
	switch req.Direction {
	case "incoming":
		rows, err = store.GetReverseCallers(req.Start, req.Depth)
	default:
		rows, err = store.GetCallChain(req.Start, req.Depth)
	}
	if err != nil {
		writeProblem(w, err)
		return
	}

	truncated := false
	if len(rows) > req.MaxResults {
		rows = rows[:req.MaxResults]
		truncated = true
	}

	nodeSet := map[string]bool{req.Start: true}
	edges := make([]graphEdge, 0, len(rows))
	for _, row := range rows {
		if req.Relation != "" && row.Relation != req.Relation {
			continue
		}
		nodeSet[row.FromFQN] = true
		nodeSet[row.ToFQN] = true
		edges = append(edges, graphEdge{From: row.FromFQN, To: row.ToFQN, Relation: row.Relation})
	}

	fqns := make([]string, 0, len(nodeSet))
	for fqn := range nodeSet {
		fqns = append(fqns, fqn)
	}
	symbols, err := store.GetSymbolsByFQNs(fqns)
	if err != nil {
		writeProblem(w, err)
		return
	}
	nodes := make([]graphNode, 0, len(symbols))
	for _, sym := range symbols {
		nodes = append(nodes, graphNode{FQN: sym.FQN, Kind: sym.Kind, Name: sym.Name})
	}

	writeJSON(w, http.StatusOK, graphQueryResponse{
		Nodes: nodes,
		Edges: edges,
		Metadata: graphQueryMeta{
			MaxDepth:    req.Depth,
			TotalNodes:  len(nodes),
			TotalEdges:  len(edges),
			Truncated:   truncated,
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// handleSearch implements GET /knowledge/search. Embeds the query and
// searches the vector store when an embedder is configured; otherwise
// falls back to the substring search named in §1's non-goals.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		writeProblem(w, apperr.New(apperr.InvalidArgument, "httpapi: query is required"))
		return
	}
	numResults := atoiDefault(q.Get("num_results"), 10)
	levels := q["level"]

	if s.embedder != nil && s.vectors != nil {
		ctx, cancel := withTimeout(r.Context(), s.llmTimeout)
		defer cancel()
		vec, err := s.embedder.Embed(ctx, query)
		if err == nil {
			records, err := s.vectors.Search(vectorstore.CollectionSummaries, vec, numResults)
			if err == nil {
				results := make([]searchResult, 0, len(records))
				for _, rec := range records {
					results = append(results, searchResult{TargetFQN: rec.ID, Summary: rec.Text, Distance: rec.Distance})
				}
				writeJSON(w, http.StatusOK, results)
				return
			}
			logging.Get(logging.CategoryAPI).Warnw("vector search failed, falling back to substring", "error", err)
		} else {
			logging.Get(logging.CategoryAPI).Warnw("embed failed, falling back to substring", "error", err)
		}
	}

	summaries, err := s.store().SearchSummariesByText(query, levels, numResults)
	if err != nil {
		writeProblem(w, err)
		return
	}
	results := make([]searchResult, 0, len(summaries))
	for _, sum := range summaries {
		results = append(results, searchResult{TargetFQN: sum.TargetFQN, Level: sum.Level, Summary: sum.SummaryText})
	}
	writeJSON(w, http.StatusOK, results)
}

// handleListRules implements GET /knowledge/rules (4.K).
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules := s.ruleEngine().ListRules()
	type ruleInfo struct {
		ID          string `json:"id"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	}
	out := make([]ruleInfo, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleInfo{ID: rule.ID(), Severity: string(rule.Severity()), Description: rule.Description()})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleDetectRules implements POST /knowledge/rules/detect, running one
// rule (?rule_id=) or all of them.
func (s *Server) handleDetectRules(w http.ResponseWriter, r *http.Request) {
	ruleID := r.URL.Query().Get("rule_id")
	engine := s.ruleEngine()

	var (
		found []graphstore.AntiPattern
		err   error
	)
	if ruleID != "" {
		found, err = engine.DetectByRule(ruleID)
	} else {
		found, err = engine.DetectAll()
	}
	if err != nil {
		writeProblem(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// handleHealth implements GET /health: a thin read over A/B/E.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}

	if _, err := s.store().SymbolCount(); err == nil {
		resp.GraphStore = true
	} else {
		resp.Status = "degraded"
	}

	if s.vectors != nil {
		if _, err := s.vectors.Count(vectorstore.CollectionSummaries); err == nil {
			resp.VectorStore = true
		} else {
			resp.Status = "degraded"
		}
	}

	if running, err := s.jobs.GetRunningJob(); err == nil && running != nil {
		resp.RebuildRunning = true
	}

	writeJSON(w, http.StatusOK, resp)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
