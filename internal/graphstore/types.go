package graphstore

import "time"

// Symbol is the atom of the graph: a class, interface, method, or field.
type Symbol struct {
	FQN         string
	Kind        string // class|interface|method|field
	Name        string
	FilePath    string
	LineNumber  int
	Signature   string
	ParentFQN   string
	Modifiers   []string
	Annotations []string
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Edge is a directed labeled relation between two FQNs. ToFQN/FromFQN may
// reference symbols outside the table (third-party calls); this is
// intentional per I1.
type Edge struct {
	FromFQN  string
	ToFQN    string
	Relation string // calls|inherits|implements|instantiates|injects|member_of
	Metadata map[string]any
}

// EntryPoint marks a symbol reachable from outside the process.
type EntryPoint struct {
	SymbolFQN  string
	Type       string // http_api|scheduled|mq_consumer
	HTTPMethod string
	HTTPPath   string
	Cron       string
	MQQueue    string
}

// ExternalDependency is a call from an internal symbol to infrastructure.
type ExternalDependency struct {
	CallerFQN string
	Type      string // mysql|redis|mq|http|rpc
	Target    string
	Strength  string // strong|weak
}

// Summary is the L1 business summary for a symbol.
type Summary struct {
	TargetFQN   string
	Level       string // method|class|package|module
	SummaryText string
	VectorID    string
	IsStale     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GlossaryEntry maps a code term to its business meaning.
type GlossaryEntry struct {
	CodeTerm        string
	BusinessMeaning string
	Synonyms        []string
	SourceFQN       string
	VectorID        string
}

// Constraint is a detected validation rule, business rule, or invariant.
type Constraint struct {
	Name        string
	Description string
	SourceFQN   string
	SourceLine  int
	Type        string // validation|business_rule|invariant
	VectorID    string
}

// AntiPattern is a detected architectural violation.
type AntiPattern struct {
	RuleID     string
	FromFQN    string
	ToFQN      string
	Severity   string // error|warning|info
	Message    string
	DetectedAt time.Time
}

// Job is an async rebuild job tracked in impact_jobs.
type Job struct {
	JobID         string
	Mode          string // full|incremental
	Status        string // pending|running|complete|failed
	Progress      int
	TotalFiles    int
	ProcessedFiles int
	TargetPaths   []string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ErrorMessage  string
	CreatedAt     time.Time
}

// RelatedSymbol is a symbol joined in from an edge traversal, carrying the
// edge's direction-relative fields alongside the resolved symbol.
type RelatedSymbol struct {
	Symbol   Symbol
	Relation string
}

// TraversalRow is one row of a recursive call-chain / reverse-caller query.
type TraversalRow struct {
	Depth    int
	FromFQN  string
	ToFQN    string
	Relation string
}

// VectorSyncState tracks, per (vector_id, collection), whether B's vector
// is believed consistent with A's owning row. Internal to component C.
type VectorSyncState struct {
	VectorID      string
	Collection    string
	RecordFQN     string
	SyncStatus    string // synced|pending|stalled
	AttemptCount  int
	LastAttemptAt *time.Time
}

// PendingVectorOp is a queued vector-plane operation still awaiting
// application or retry after a partial B write. Internal to component C.
type PendingVectorOp struct {
	TempID     string
	Op         string // create|delete|update
	Collection string
	Payload    string
	RetryCount int
	CreatedAt  time.Time
}
