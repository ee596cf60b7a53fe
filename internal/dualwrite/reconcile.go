package dualwrite

import (
	"encoding/json"
	"time"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/logging"
	"github.com/jersy/ariadne/internal/vectorstore"
)

// pendingOpStaleThreshold marks a PendingVectorOp as actionable once it has
// sat unretried for this long.
const pendingOpStaleThreshold = 5 * time.Minute

// maxRetryAttempts caps how many times RecoverOrphans re-attempts a pending
// op. Each pass re-attempts every queued op below the cap once, with no
// delay or backoff between attempts; an op whose retry_count has reached
// the cap stays queued and is skipped by every later pass.
const maxRetryAttempts = 5

// OrphanReport is the result of DetectOrphans (4.C.detect_orphans).
type OrphanReport struct {
	DanglingVectorIDs  []string // A rows whose vector_id has no B entry
	OrphanedVectorIDs  []string // B entries with no matching A row
	StalePendingOps    int      // PendingVectorOp rows older than the stale threshold
	StalledSyncStates  int      // VectorSyncState rows stuck in 'pending'
}

// DetectOrphans scans both stores and reports every inconsistency the
// dual-write protocol is designed to recover from.
func (c *Coordinator) DetectOrphans(collection vectorstore.Collection) (*OrphanReport, error) {
	report := &OrphanReport{}

	summaries, err := c.graph.GetSummariesWithVectorID()
	if err != nil {
		return nil, err
	}
	for _, sum := range summaries {
		exists, err := c.vector.Exists(collection, sum.VectorID)
		if err != nil {
			return nil, err
		}
		if !exists {
			report.DanglingVectorIDs = append(report.DanglingVectorIDs, sum.VectorID)
		}
	}

	vectorIDs, err := c.vector.AllIDs(collection)
	if err != nil {
		return nil, err
	}
	for _, id := range vectorIDs {
		if _, err := c.graph.GetSummary(id); err != nil {
			if apperr.Is(err, apperr.NotFound) {
				report.OrphanedVectorIDs = append(report.OrphanedVectorIDs, id)
				continue
			}
			return nil, err
		}
	}

	ops, err := c.graph.GetPendingVectorOps()
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if time.Since(op.CreatedAt) > pendingOpStaleThreshold {
			report.StalePendingOps++
		}
	}

	stalled, err := c.graph.GetStalledSyncStates()
	if err != nil {
		return nil, err
	}
	report.StalledSyncStates = len(stalled)

	return report, nil
}

// RecoverOrphans applies the fixes DetectOrphans' report implies: deletes
// B entries with no A counterpart, clears stale sync-state rows, and
// re-attempts pending ops up to maxRetryAttempts.
func (c *Coordinator) RecoverOrphans(collection vectorstore.Collection) error {
	log := logging.Get(logging.CategoryDualWrite)

	report, err := c.DetectOrphans(collection)
	if err != nil {
		return err
	}

	if len(report.OrphanedVectorIDs) > 0 {
		if err := c.vector.Delete(collection, report.OrphanedVectorIDs); err != nil {
			return err
		}
		log.Infow("deleted orphaned vectors with no graph-store counterpart", "count", len(report.OrphanedVectorIDs))
	}

	if _, err := c.graph.ClearStalledSyncStates(); err != nil {
		return err
	}

	ops, err := c.graph.GetPendingVectorOps()
	if err != nil {
		return err
	}
	for _, op := range ops {
		if op.RetryCount >= maxRetryAttempts {
			continue
		}
		if err := c.retryPendingOp(collection, op); err != nil {
			log.Warnw("retry of pending vector op failed", "temp_id", op.TempID, "attempt", op.RetryCount+1, "error", err)
			if incErr := c.graph.IncrementPendingVectorOpRetry(op.TempID); incErr != nil {
				log.Errorw("failed to record retry attempt", "temp_id", op.TempID, "error", incErr)
			}
			continue
		}
		if err := c.graph.DeletePendingVectorOp(op.TempID); err != nil {
			log.Errorw("failed to clear applied pending vector op", "temp_id", op.TempID, "error", err)
		}
	}

	return nil
}

// retryPendingOp re-attempts a queued create (the only op produced by
// CreateSummaryWithVector's failure branch today). Update/delete pending
// ops are accepted by the schema for forward compatibility with future
// callers but are not yet produced by this package.
func (c *Coordinator) retryPendingOp(collection vectorstore.Collection, op graphstore.PendingVectorOp) error {
	if op.Op != "create" {
		return apperr.New(apperr.Fatal, "dualwrite: unsupported pending op kind %q", op.Op)
	}

	var payload pendingCreatePayload
	if err := json.Unmarshal([]byte(op.Payload), &payload); err != nil {
		return apperr.Wrap(apperr.Fatal, err, "dualwrite: decode pending op payload %s", op.TempID)
	}

	// The original create rolled its whole A transaction back, so the
	// summary row doesn't exist either — redrive the full two-phase
	// commit rather than just retrying the vector-store half.
	return c.CreateSummaryWithVector(collection, graphstore.Summary{
		TargetFQN:   payload.TargetFQN,
		Level:       payload.Level,
		SummaryText: payload.SummaryText,
	}, payload.Embedding)
}
