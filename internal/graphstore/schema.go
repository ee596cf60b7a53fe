package graphstore

// schema is applied on every open. All CREATE statements are idempotent
// (IF NOT EXISTS) so re-running against an already-initialized database,
// or against a freshly created shadow database, is always safe.
//
// Edges deliberately carry no FOREIGN KEY constraint (I1: a to_fqn/from_fqn
// may reference a symbol outside the table, e.g. a third-party call) — the
// two AFTER DELETE triggers below replace the FK's cascade behavior.
// Entry points, external dependencies, summaries and anti-patterns declare
// ON DELETE CASCADE directly; glossary and constraints declare ON DELETE
// SET NULL.
const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS symbols (
	fqn TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK(kind IN ('class','interface','method','field')),
	name TEXT NOT NULL,
	file_path TEXT,
	line_number INTEGER,
	signature TEXT,
	parent_fqn TEXT,
	modifiers TEXT NOT NULL DEFAULT '[]',
	annotations TEXT NOT NULL DEFAULT '[]',
	content_hash TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_symbols_fqn ON symbols(fqn);
CREATE INDEX IF NOT EXISTS idx_symbols_parent_fqn ON symbols(parent_fqn);
CREATE INDEX IF NOT EXISTS idx_symbols_file_path ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);

CREATE TABLE IF NOT EXISTS edges (
	from_fqn TEXT NOT NULL,
	to_fqn TEXT NOT NULL,
	relation TEXT NOT NULL CHECK(relation IN ('calls','inherits','implements','instantiates','injects','member_of')),
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_edges_from_relation ON edges(from_fqn, relation);
CREATE INDEX IF NOT EXISTS idx_edges_to_relation ON edges(to_fqn, relation);

CREATE TABLE IF NOT EXISTS entry_points (
	symbol_fqn TEXT PRIMARY KEY REFERENCES symbols(fqn) ON DELETE CASCADE,
	entry_type TEXT NOT NULL CHECK(entry_type IN ('http_api','scheduled','mq_consumer')),
	http_method TEXT,
	http_path TEXT,
	cron_expression TEXT,
	mq_queue TEXT
);

CREATE TABLE IF NOT EXISTS external_dependencies (
	caller_fqn TEXT NOT NULL REFERENCES symbols(fqn) ON DELETE CASCADE,
	dep_type TEXT NOT NULL CHECK(dep_type IN ('mysql','redis','mq','http','rpc')),
	target TEXT NOT NULL,
	strength TEXT NOT NULL DEFAULT 'weak' CHECK(strength IN ('strong','weak')),
	UNIQUE(caller_fqn, dep_type, target)
);
CREATE INDEX IF NOT EXISTS idx_ext_deps_caller ON external_dependencies(caller_fqn);

CREATE TABLE IF NOT EXISTS summaries (
	target_fqn TEXT PRIMARY KEY REFERENCES symbols(fqn) ON DELETE CASCADE,
	level TEXT NOT NULL CHECK(level IN ('method','class','package','module')),
	summary_text TEXT NOT NULL DEFAULT '',
	vector_id TEXT,
	is_stale INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_summaries_stale ON summaries(target_fqn, is_stale);

CREATE TABLE IF NOT EXISTS glossary (
	code_term TEXT PRIMARY KEY,
	business_meaning TEXT NOT NULL,
	synonyms TEXT NOT NULL DEFAULT '[]',
	source_fqn TEXT REFERENCES symbols(fqn) ON DELETE SET NULL,
	vector_id TEXT
);

CREATE TABLE IF NOT EXISTS constraints (
	name TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	source_fqn TEXT REFERENCES symbols(fqn) ON DELETE SET NULL,
	source_line INTEGER,
	constraint_type TEXT NOT NULL CHECK(constraint_type IN ('validation','business_rule','invariant')),
	vector_id TEXT
);

CREATE TABLE IF NOT EXISTS anti_patterns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_id TEXT NOT NULL,
	from_fqn TEXT NOT NULL REFERENCES symbols(fqn) ON DELETE CASCADE,
	to_fqn TEXT,
	severity TEXT NOT NULL CHECK(severity IN ('error','warning','info')),
	message TEXT NOT NULL,
	detected_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_anti_patterns_rule ON anti_patterns(rule_id);

CREATE TABLE IF NOT EXISTS impact_jobs (
	job_id TEXT PRIMARY KEY,
	mode TEXT NOT NULL CHECK(mode IN ('full','incremental')),
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','running','complete','failed')),
	progress INTEGER NOT NULL DEFAULT 0,
	total_files INTEGER NOT NULL DEFAULT 0,
	processed_files INTEGER NOT NULL DEFAULT 0,
	target_paths TEXT,
	started_at DATETIME,
	completed_at DATETIME,
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_impact_jobs_status ON impact_jobs(status);

-- Internal bookkeeping for the dual-write coordinator (component C).
CREATE TABLE IF NOT EXISTS vector_sync_state (
	vector_id TEXT NOT NULL,
	collection TEXT NOT NULL,
	record_fqn TEXT NOT NULL,
	sync_status TEXT NOT NULL DEFAULT 'synced' CHECK(sync_status IN ('synced','pending','stalled')),
	attempt_count INTEGER NOT NULL DEFAULT 0,
	last_attempt_at DATETIME,
	PRIMARY KEY (vector_id, collection)
);
CREATE INDEX IF NOT EXISTS idx_vector_sync_state_status ON vector_sync_state(sync_status);

CREATE TABLE IF NOT EXISTS pending_vector_ops (
	temp_id TEXT PRIMARY KEY,
	op TEXT NOT NULL CHECK(op IN ('create','delete','update')),
	collection TEXT NOT NULL,
	payload TEXT NOT NULL,
	retry_count INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Cascade triggers replacing edges' missing foreign keys (I1/I2).
CREATE TRIGGER IF NOT EXISTS edges_delete_outgoing_on_symbol_delete
AFTER DELETE ON symbols
FOR EACH ROW
WHEN EXISTS (SELECT 1 FROM edges WHERE from_fqn = OLD.fqn)
BEGIN
	DELETE FROM edges WHERE from_fqn = OLD.fqn;
END;

CREATE TRIGGER IF NOT EXISTS edges_delete_incoming_on_symbol_delete
AFTER DELETE ON symbols
FOR EACH ROW
WHEN EXISTS (SELECT 1 FROM edges WHERE to_fqn = OLD.fqn)
BEGIN
	DELETE FROM edges WHERE to_fqn = OLD.fqn;
END;
`
