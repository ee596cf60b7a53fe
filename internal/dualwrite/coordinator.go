// Package dualwrite implements component C: the two-phase commit protocol
// that keeps a Summary's text (in the graph store) and its embedding (in
// the vector store) consistent across crashes and partial failures.
package dualwrite

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/graphstore"
	"github.com/jersy/ariadne/internal/logging"
	"github.com/jersy/ariadne/internal/vectorstore"
)

// pendingCreatePayload is the JSON shape stashed in PendingVectorOp.Payload
// for a failed create, carrying everything retryPendingOp needs to redrive
// vector_store.add without regenerating the embedding.
type pendingCreatePayload struct {
	TargetFQN   string    `json:"target_fqn"`
	Level       string    `json:"level"`
	SummaryText string    `json:"summary_text"`
	Embedding   []float32 `json:"embedding"`
}

// Coordinator binds a graph store and a vector store and implements the
// create/delete contracts of 4.C.
type Coordinator struct {
	graph  *graphstore.Store
	vector *vectorstore.Store
}

// New builds a Coordinator over the given stores.
func New(graph *graphstore.Store, vector *vectorstore.Store) *Coordinator {
	return &Coordinator{graph: graph, vector: vector}
}

// CreateSummaryWithVector implements create_summary_with_vector (4.C):
//  1. Open a transaction on A.
//  2. Insert the summary row without vector_id.
//  3. If an embedding is supplied, attempt vector_store.add.
//     - success: set vector_id within the same transaction, record synced state.
//     - failure: roll back A; separately enqueue a PendingVectorOp for retry.
//  4. Commit A.
func (c *Coordinator) CreateSummaryWithVector(collection vectorstore.Collection, summary graphstore.Summary, vec []float32) error {
	log := logging.Get(logging.CategoryDualWrite)

	tx, err := c.graph.BeginTx()
	if err != nil {
		return err
	}

	if err := c.graph.InsertSummaryWithoutVector(tx, summary); err != nil {
		tx.Rollback()
		return err
	}

	if vec == nil {
		if err := tx.Commit(); err != nil {
			return apperr.Wrap(apperr.Unavailable, err, "dualwrite: commit summary without vector for %s", summary.TargetFQN)
		}
		return nil
	}

	vectorID := summary.TargetFQN
	metadata := map[string]any{"fqn": summary.TargetFQN, "level": summary.Level}
	if err := c.vector.Add(collection, vectorID, summary.SummaryText, vec, metadata); err != nil {
		tx.Rollback()
		log.Warnw("vector store add failed, rolling back summary and enqueuing retry",
			"fqn", summary.TargetFQN, "collection", collection, "error", err)

		payloadJSON, _ := json.Marshal(pendingCreatePayload{
			TargetFQN: summary.TargetFQN, Level: summary.Level, SummaryText: summary.SummaryText, Embedding: vec,
		})
		if enqueueErr := c.graph.EnqueuePendingVectorOp(graphstore.PendingVectorOp{
			TempID:     uuid.NewString(),
			Op:         "create",
			Collection: string(collection),
			Payload:    string(payloadJSON),
		}); enqueueErr != nil {
			log.Errorw("failed to enqueue pending vector op after failed add", "fqn", summary.TargetFQN, "error", enqueueErr)
		}
		return apperr.Wrap(apperr.Unavailable, err, "dualwrite: vector store add failed for %s", summary.TargetFQN)
	}

	if err := c.graph.SetSummaryVectorID(tx, summary.TargetFQN, vectorID); err != nil {
		tx.Rollback()
		return err
	}
	if err := c.graph.InsertVectorSyncState(tx, graphstore.VectorSyncState{
		VectorID: vectorID, Collection: string(collection), RecordFQN: summary.TargetFQN, SyncStatus: "synced",
	}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "dualwrite: commit summary with vector for %s", summary.TargetFQN)
	}
	return nil
}

// CreateGlossaryEntryWithVector persists a GlossaryEntry the same way
// CreateSummaryWithVector persists a Summary: the text row always lands in
// A, and a vector-store failure degrades to a PendingVectorOp retry
// instead of losing the entry.
func (c *Coordinator) CreateGlossaryEntryWithVector(entry graphstore.GlossaryEntry, vec []float32) error {
	log := logging.Get(logging.CategoryDualWrite)

	entry.VectorID = ""
	if err := c.graph.UpsertGlossaryEntry(entry); err != nil {
		return err
	}
	if vec == nil {
		return nil
	}

	vectorID := entry.CodeTerm
	metadata := map[string]any{"code_term": entry.CodeTerm, "source_fqn": entry.SourceFQN}
	if err := c.vector.Add(vectorstore.CollectionGlossary, vectorID, entry.BusinessMeaning, vec, metadata); err != nil {
		log.Warnw("vector store add failed for glossary entry, enqueuing retry", "code_term", entry.CodeTerm, "error", err)
		payloadJSON, _ := json.Marshal(entry)
		if enqueueErr := c.graph.EnqueuePendingVectorOp(graphstore.PendingVectorOp{
			TempID: uuid.NewString(), Op: "create", Collection: string(vectorstore.CollectionGlossary), Payload: string(payloadJSON),
		}); enqueueErr != nil {
			log.Errorw("failed to enqueue pending vector op for glossary entry", "code_term", entry.CodeTerm, "error", enqueueErr)
		}
		return apperr.Wrap(apperr.Unavailable, err, "dualwrite: vector store add failed for glossary entry %s", entry.CodeTerm)
	}

	entry.VectorID = vectorID
	if err := c.graph.UpsertGlossaryEntry(entry); err != nil {
		return err
	}
	tx, err := c.graph.BeginTx()
	if err != nil {
		return err
	}
	if err := c.graph.InsertVectorSyncState(tx, graphstore.VectorSyncState{
		VectorID: vectorID, Collection: string(vectorstore.CollectionGlossary), RecordFQN: entry.SourceFQN, SyncStatus: "synced",
	}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "dualwrite: commit glossary sync state for %s", entry.CodeTerm)
	}
	return nil
}

// CreateConstraintWithVector persists a Constraint through the same
// two-phase shape as CreateGlossaryEntryWithVector, keyed on the
// constraint's name instead of a code term.
func (c *Coordinator) CreateConstraintWithVector(constraint graphstore.Constraint, vec []float32) error {
	log := logging.Get(logging.CategoryDualWrite)

	constraint.VectorID = ""
	if err := c.graph.UpsertConstraint(constraint); err != nil {
		return err
	}
	if vec == nil {
		return nil
	}

	vectorID := constraint.Name
	metadata := map[string]any{"name": constraint.Name, "constraint_type": constraint.Type, "source_fqn": constraint.SourceFQN}
	if err := c.vector.Add(vectorstore.CollectionConstraint, vectorID, constraint.Description, vec, metadata); err != nil {
		log.Warnw("vector store add failed for constraint, enqueuing retry", "name", constraint.Name, "error", err)
		payloadJSON, _ := json.Marshal(constraint)
		if enqueueErr := c.graph.EnqueuePendingVectorOp(graphstore.PendingVectorOp{
			TempID: uuid.NewString(), Op: "create", Collection: string(vectorstore.CollectionConstraint), Payload: string(payloadJSON),
		}); enqueueErr != nil {
			log.Errorw("failed to enqueue pending vector op for constraint", "name", constraint.Name, "error", enqueueErr)
		}
		return apperr.Wrap(apperr.Unavailable, err, "dualwrite: vector store add failed for constraint %s", constraint.Name)
	}

	constraint.VectorID = vectorID
	if err := c.graph.UpsertConstraint(constraint); err != nil {
		return err
	}
	tx, err := c.graph.BeginTx()
	if err != nil {
		return err
	}
	if err := c.graph.InsertVectorSyncState(tx, graphstore.VectorSyncState{
		VectorID: vectorID, Collection: string(vectorstore.CollectionConstraint), RecordFQN: constraint.SourceFQN, SyncStatus: "synced",
	}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "dualwrite: commit constraint sync state for %s", constraint.Name)
	}
	return nil
}

// DeleteSummaryCascade implements delete_summary_cascade (4.C): B failures
// are tolerable (they only leave an orphan vector), so this path never
// aborts on a vector-store error — it logs and proceeds.
func (c *Coordinator) DeleteSummaryCascade(collection vectorstore.Collection, fqn string) error {
	log := logging.Get(logging.CategoryDualWrite)

	summary, err := c.graph.GetSummary(fqn)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			return nil
		}
		return err
	}

	if summary.VectorID != "" {
		if err := c.vector.Delete(collection, []string{summary.VectorID}); err != nil {
			log.Warnw("vector store delete failed during cascade, proceeding anyway", "fqn", fqn, "vector_id", summary.VectorID, "error", err)
		}
		if err := c.graph.DeleteVectorSyncState(string(collection), summary.VectorID); err != nil {
			log.Warnw("failed to clear sync state during cascade", "fqn", fqn, "error", err)
		}
	}

	return c.graph.DeleteSummary(fqn)
}
