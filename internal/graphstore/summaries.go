package graphstore

import (
	"database/sql"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/logging"
)

// InsertSummaryWithoutVector inserts (or replaces the text of) a summary
// row without a vector_id, within tx. Called by the dual-write coordinator
// (4.C) as step 2 of create_summary_with_vector, before it knows whether
// the vector-store write will succeed.
func (s *Store) InsertSummaryWithoutVector(tx *sql.Tx, summary Summary) error {
	_, err := tx.Exec(`
		INSERT INTO summaries (target_fqn, level, summary_text, is_stale, updated_at)
		VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP)
		ON CONFLICT(target_fqn) DO UPDATE SET
			level = excluded.level,
			summary_text = excluded.summary_text,
			is_stale = 0,
			vector_id = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, summary.TargetFQN, summary.Level, summary.SummaryText)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: insert summary %s", summary.TargetFQN)
	}
	return nil
}

// SetSummaryVectorID updates vector_id on an existing summary row within
// tx — step 3's success path in create_summary_with_vector.
func (s *Store) SetSummaryVectorID(tx *sql.Tx, targetFQN, vectorID string) error {
	_, err := tx.Exec(`UPDATE summaries SET vector_id = ? WHERE target_fqn = ?`, vectorID, targetFQN)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: set vector id for %s", targetFQN)
	}
	return nil
}

// BeginTx starts a transaction on the graph database, for callers (the
// dual-write coordinator) that need to span multiple statements across
// this package's tx-taking helpers.
func (s *Store) BeginTx() (*sql.Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: begin transaction")
	}
	return tx, nil
}

// GetSummary fetches one summary row.
func (s *Store) GetSummary(targetFQN string) (*Summary, error) {
	row := s.db.QueryRow(`SELECT target_fqn, level, summary_text, COALESCE(vector_id,''), is_stale, created_at, updated_at
		FROM summaries WHERE target_fqn = ?`, targetFQN)
	var sum Summary
	var isStale int
	if err := row.Scan(&sum.TargetFQN, &sum.Level, &sum.SummaryText, &sum.VectorID, &isStale, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "summary not found: %s", targetFQN)
		}
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get summary %s", targetFQN)
	}
	sum.IsStale = isStale != 0
	return &sum, nil
}

// DeleteSummary removes a summary row (used by the dual-write coordinator's
// delete_summary_cascade, step 3, after the vector-store delete attempt).
func (s *Store) DeleteSummary(targetFQN string) error {
	_, err := s.db.Exec(`DELETE FROM summaries WHERE target_fqn = ?`, targetFQN)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: delete summary %s", targetFQN)
	}
	return nil
}

// MarkSummariesStale flips is_stale=true for every target_fqn present,
// in a single UPDATE statement (4.A), and reports how many rows it
// actually touched — the testable property in §8 requires this equal
// |fqns ∩ existing_summaries|.
func (s *Store) MarkSummariesStale(fqns []string) (int64, error) {
	if len(fqns) == 0 {
		return 0, nil
	}
	query, args := inClauseQuery(`UPDATE summaries SET is_stale = 1 WHERE target_fqn IN (%s)`, fqns)
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "graphstore: mark summaries stale")
	}
	n, _ := res.RowsAffected()
	logging.Get(logging.CategoryStore).Debugw("marked summaries stale", "requested", len(fqns), "affected", n)
	return n, nil
}

// MarkSummariesStaleByFile marks stale every summary whose target_fqn is a
// symbol in path, plus every summary whose target_fqn is the parent of
// such a symbol, in one transaction (4.C file-change invalidation).
func (s *Store) MarkSummariesStaleByFile(path string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "graphstore: begin MarkSummariesStaleByFile")
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE summaries SET is_stale = 1
		WHERE target_fqn IN (SELECT fqn FROM symbols WHERE file_path = ?)
		   OR target_fqn IN (
				SELECT DISTINCT parent_fqn FROM symbols
				WHERE file_path = ? AND parent_fqn IS NOT NULL
		   )
	`, path, path)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "graphstore: mark summaries stale by file %s", path)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "graphstore: commit MarkSummariesStaleByFile")
	}
	return n, nil
}

// SearchSummariesByText runs the substring-fallback search named in §1's
// non-goals ("full-text search quality beyond substring fallback"):
// a plain LIKE match over summary_text, optionally restricted to a set of
// levels, most-recently-updated first.
func (s *Store) SearchSummariesByText(query string, levels []string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	sqlQuery := `SELECT target_fqn, level, summary_text, COALESCE(vector_id,''), is_stale, created_at, updated_at
		FROM summaries WHERE summary_text LIKE ?`
	args := []any{"%" + query + "%"}

	if len(levels) > 0 {
		placeholders, levelArgs := inClauseQuery("%s", levels)
		sqlQuery += " AND level IN (" + placeholders + ")"
		args = append(args, levelArgs...)
	}
	sqlQuery += " ORDER BY updated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: search summaries by text")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var isStale int
		if err := rows.Scan(&sum.TargetFQN, &sum.Level, &sum.SummaryText, &sum.VectorID, &isStale, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan summary search row")
		}
		sum.IsStale = isStale != 0
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetStaleness batch-fetches (target_fqn, is_stale) for the given FQNs —
// the incremental coordinator's freshness filter (4.H step 3).
func (s *Store) GetStaleness(fqns []string) (map[string]bool, error) {
	if len(fqns) == 0 {
		return nil, nil
	}
	query, args := inClauseQuery(`SELECT target_fqn, is_stale FROM summaries WHERE target_fqn IN (%s)`, fqns)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get staleness")
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var fqn string
		var isStale int
		if err := rows.Scan(&fqn, &isStale); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan staleness row")
		}
		out[fqn] = isStale != 0
	}
	return out, rows.Err()
}
