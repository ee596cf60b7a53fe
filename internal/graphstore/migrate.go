package graphstore

import (
	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/logging"
)

// orphanCleanup pairs a human-readable table name with the delete
// statement that removes its rows referencing a symbol that no longer
// exists. Entry points, external dependencies, summaries, and anti
// patterns are declared with ON DELETE CASCADE in the schema, so under
// normal operation this pass finds nothing — it exists to repair databases
// created before a constraint existed, or where SQLite's FK enforcement
// was off at some point in the file's history.
var orphanCleanup = []struct {
	table string
	count string
	del   string
}{
	{
		table: "edges (from side)",
		count: `SELECT COUNT(*) FROM edges WHERE from_fqn NOT IN (SELECT fqn FROM symbols) AND from_fqn NOT IN (SELECT to_fqn FROM edges WHERE to_fqn IN (SELECT fqn FROM symbols))`,
		del:   ``, // edges are handled specially below; see runStartupMigration.
	},
	{
		table: "entry_points",
		count: `SELECT COUNT(*) FROM entry_points WHERE symbol_fqn NOT IN (SELECT fqn FROM symbols)`,
		del:   `DELETE FROM entry_points WHERE symbol_fqn NOT IN (SELECT fqn FROM symbols)`,
	},
	{
		table: "external_dependencies",
		count: `SELECT COUNT(*) FROM external_dependencies WHERE caller_fqn NOT IN (SELECT fqn FROM symbols)`,
		del:   `DELETE FROM external_dependencies WHERE caller_fqn NOT IN (SELECT fqn FROM symbols)`,
	},
	{
		table: "summaries",
		count: `SELECT COUNT(*) FROM summaries WHERE target_fqn NOT IN (SELECT fqn FROM symbols)`,
		del:   `DELETE FROM summaries WHERE target_fqn NOT IN (SELECT fqn FROM symbols)`,
	},
	{
		table: "anti_patterns",
		count: `SELECT COUNT(*) FROM anti_patterns WHERE from_fqn NOT IN (SELECT fqn FROM symbols)`,
		del:   `DELETE FROM anti_patterns WHERE from_fqn NOT IN (SELECT fqn FROM symbols)`,
	},
}

// runStartupMigration recreates missing cascade triggers idempotently
// (the CREATE TRIGGER IF NOT EXISTS statements in schema already cover
// this on every Open) and deletes orphaned rows across dependent tables,
// counting and logging every deletion — never silently (4.A).
func (s *Store) runStartupMigration() error {
	log := logging.Get(logging.CategoryStore)

	totalOrphans := 0

	// Edges: any edge whose from_fqn AND to_fqn both fail to resolve to a
	// symbol is a genuine orphan (I1 permits one side to be external, but
	// not both).
	var edgeOrphans int
	const edgeOrphanCount = `
		SELECT COUNT(*) FROM edges e
		WHERE NOT EXISTS (SELECT 1 FROM symbols s WHERE s.fqn = e.from_fqn)
		  AND NOT EXISTS (SELECT 1 FROM symbols s WHERE s.fqn = e.to_fqn)
	`
	if err := s.db.QueryRow(edgeOrphanCount).Scan(&edgeOrphans); err != nil {
		return apperr.Wrap(apperr.Fatal, err, "graphstore: migration: count orphaned edges")
	}
	if edgeOrphans > 0 {
		const delEdges = `
			DELETE FROM edges
			WHERE from_fqn NOT IN (SELECT fqn FROM symbols)
			  AND to_fqn NOT IN (SELECT fqn FROM symbols)
		`
		if _, err := s.db.Exec(delEdges); err != nil {
			return apperr.Wrap(apperr.Fatal, err, "graphstore: migration: delete orphaned edges")
		}
		log.Warnw("migration: deleted orphaned rows", "table", "edges", "count", edgeOrphans)
		totalOrphans += edgeOrphans
	}

	for _, m := range orphanCleanup {
		if m.del == "" {
			continue
		}
		var n int
		if err := s.db.QueryRow(m.count).Scan(&n); err != nil {
			return apperr.Wrap(apperr.Fatal, err, "graphstore: migration: count orphans in %s", m.table)
		}
		if n == 0 {
			continue
		}
		if _, err := s.db.Exec(m.del); err != nil {
			return apperr.Wrap(apperr.Fatal, err, "graphstore: migration: delete orphans in %s", m.table)
		}
		log.Warnw("migration: deleted orphaned rows", "table", m.table, "count", n)
		totalOrphans += n
	}

	// Glossary and constraints never cascade-delete their source_fqn (I2:
	// the column is nulled, not the row removed), so there is nothing to
	// clean there beyond what ON DELETE SET NULL already guarantees.

	if totalOrphans == 0 {
		log.Debugw("migration: no orphaned rows found")
	} else {
		log.Infow("migration complete", "orphans_deleted", totalOrphans)
	}
	return nil
}
