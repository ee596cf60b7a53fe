package httpapi

import "time"

type rebuildRequest struct {
	Mode        string   `json:"mode"`
	TargetPaths []string `json:"target_paths,omitempty"`
	Async       bool     `json:"async,omitempty"`
}

type rebuildResponse struct {
	JobID   string        `json:"job_id"`
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Stats   *statsPayload `json:"stats,omitempty"`
}

type statsPayload struct {
	SymbolCount int     `json:"symbol_count,omitempty"`
	EdgeCount   int     `json:"edge_count,omitempty"`
	DurationMS  int64   `json:"duration_ms,omitempty"`
	Regenerated int     `json:"regenerated,omitempty"`
	Skipped     int     `json:"skipped,omitempty"`
	Throughput  float64 `json:"throughput,omitempty"`
}

type jobResponse struct {
	JobID          string     `json:"job_id"`
	Mode           string     `json:"mode"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	TotalFiles     int        `json:"total_files"`
	ProcessedFiles int        `json:"processed_files"`
	TargetPaths    []string   `json:"target_paths,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type graphQueryRequest struct {
	Start      string              `json:"start"`
	Relation   string              `json:"relation,omitempty"`
	Direction  string              `json:"direction,omitempty"`
	Depth      int                 `json:"depth,omitempty"`
	MaxResults int                 `json:"max_results,omitempty"`
	Filters    map[string][]string `json:"filters,omitempty"`
}

type graphNode struct {
	FQN   string `json:"fqn"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Layer string `json:"layer,omitempty"`
}

type graphEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

type graphQueryResponse struct {
	Nodes    []graphNode    `json:"nodes"`
	Edges    []graphEdge    `json:"edges"`
	Metadata graphQueryMeta `json:"metadata"`
}

type graphQueryMeta struct {
	MaxDepth    int   `json:"max_depth"`
	TotalNodes  int   `json:"total_nodes"`
	TotalEdges  int   `json:"total_edges"`
	Truncated   bool  `json:"truncated"`
	QueryTimeMS int64 `json:"query_time_ms"`
}

type searchResult struct {
	TargetFQN string  `json:"target_fqn"`
	Level     string  `json:"level"`
	Summary   string  `json:"summary"`
	Distance  float64 `json:"distance,omitempty"`
}

type healthResponse struct {
	Status         string `json:"status"`
	GraphStore     bool   `json:"graph_store"`
	VectorStore    bool   `json:"vector_store"`
	RebuildRunning bool   `json:"rebuild_running"`
}
