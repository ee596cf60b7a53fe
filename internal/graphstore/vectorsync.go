package graphstore

import (
	"database/sql"

	"github.com/jersy/ariadne/internal/apperr"
)

// InsertVectorSyncState records a synced vector-store write within tx, as
// the final step of create_summary_with_vector's success path (4.C).
func (s *Store) InsertVectorSyncState(tx *sql.Tx, state VectorSyncState) error {
	_, err := tx.Exec(`
		INSERT INTO vector_sync_state (vector_id, collection, record_fqn, sync_status, attempt_count, last_attempt_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(vector_id, collection) DO UPDATE SET
			sync_status = excluded.sync_status,
			record_fqn = excluded.record_fqn,
			last_attempt_at = CURRENT_TIMESTAMP
	`, state.VectorID, state.Collection, state.RecordFQN, state.SyncStatus, state.AttemptCount)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: insert vector sync state %s/%s", state.Collection, state.VectorID)
	}
	return nil
}

// DeleteVectorSyncState removes a sync-state row, used once a vector has
// been deleted from B.
func (s *Store) DeleteVectorSyncState(collection, vectorID string) error {
	_, err := s.db.Exec(`DELETE FROM vector_sync_state WHERE collection = ? AND vector_id = ?`, collection, vectorID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: delete vector sync state %s/%s", collection, vectorID)
	}
	return nil
}

// GetStalledSyncStates returns sync-state rows stuck in sync_status='pending',
// used by detect_orphans (4.C.d).
func (s *Store) GetStalledSyncStates() ([]VectorSyncState, error) {
	rows, err := s.db.Query(`SELECT vector_id, collection, record_fqn, sync_status, attempt_count, last_attempt_at
		FROM vector_sync_state WHERE sync_status = 'pending'`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get stalled sync states")
	}
	defer rows.Close()

	var out []VectorSyncState
	for rows.Next() {
		var v VectorSyncState
		if err := rows.Scan(&v.VectorID, &v.Collection, &v.RecordFQN, &v.SyncStatus, &v.AttemptCount, &v.LastAttemptAt); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan sync state")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ClearStalledSyncStates deletes every pending sync-state row, part of
// recover_orphans (4.C).
func (s *Store) ClearStalledSyncStates() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM vector_sync_state WHERE sync_status = 'pending'`)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "graphstore: clear stalled sync states")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// EnqueuePendingVectorOp records a vector-plane operation that must still
// be applied or retried after a partial/failed B write — the orphan
// tracking path of create_summary_with_vector's failure branch. It is
// recorded in a *separate* connection-scoped transaction from the caller's
// main transaction so a rollback of the latter cannot erase it (4.C step 3).
func (s *Store) EnqueuePendingVectorOp(op PendingVectorOp) error {
	_, err := s.db.Exec(`
		INSERT INTO pending_vector_ops (temp_id, op, collection, payload, retry_count)
		VALUES (?, ?, ?, ?, ?)
	`, op.TempID, op.Op, op.Collection, op.Payload, op.RetryCount)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: enqueue pending vector op %s", op.TempID)
	}
	return nil
}

// GetPendingVectorOps returns every queued retry, oldest first.
func (s *Store) GetPendingVectorOps() ([]PendingVectorOp, error) {
	rows, err := s.db.Query(`SELECT temp_id, op, collection, payload, retry_count, created_at
		FROM pending_vector_ops ORDER BY created_at ASC`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get pending vector ops")
	}
	defer rows.Close()

	var out []PendingVectorOp
	for rows.Next() {
		var p PendingVectorOp
		if err := rows.Scan(&p.TempID, &p.Op, &p.Collection, &p.Payload, &p.RetryCount, &p.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan pending vector op")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// IncrementPendingVectorOpRetry bumps retry_count for a pending op after a
// failed re-attempt.
func (s *Store) IncrementPendingVectorOpRetry(tempID string) error {
	_, err := s.db.Exec(`UPDATE pending_vector_ops SET retry_count = retry_count + 1 WHERE temp_id = ?`, tempID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: increment retry for %s", tempID)
	}
	return nil
}

// DeletePendingVectorOp removes a pending op once it has been successfully
// applied.
func (s *Store) DeletePendingVectorOp(tempID string) error {
	_, err := s.db.Exec(`DELETE FROM pending_vector_ops WHERE temp_id = ?`, tempID)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: delete pending vector op %s", tempID)
	}
	return nil
}

// GetSummariesWithVectorID returns every summary that claims a vector_id,
// used by detect_orphans to find A rows pointing at a missing B entry.
func (s *Store) GetSummariesWithVectorID() ([]Summary, error) {
	rows, err := s.db.Query(`SELECT target_fqn, level, summary_text, vector_id, is_stale, created_at, updated_at
		FROM summaries WHERE vector_id IS NOT NULL`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get summaries with vector id")
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var isStale int
		if err := rows.Scan(&sum.TargetFQN, &sum.Level, &sum.SummaryText, &sum.VectorID, &isStale, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan summary")
		}
		sum.IsStale = isStale != 0
		out = append(out, sum)
	}
	return out, rows.Err()
}
