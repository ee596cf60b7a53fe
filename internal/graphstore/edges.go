package graphstore

import (
	"encoding/json"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/logging"
)

// InsertEdges inserts a batch of edges as a single transaction. Edges are
// not unique (§3), so this is a plain batched insert, never an upsert.
func (s *Store) InsertEdges(edges []Edge) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: begin InsertEdges")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO edges (from_fqn, to_fqn, relation, metadata) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: prepare InsertEdges")
	}
	defer stmt.Close()

	for _, e := range edges {
		metaJSON, _ := json.Marshal(e.Metadata)
		if _, err := stmt.Exec(e.FromFQN, e.ToFQN, e.Relation, string(metaJSON)); err != nil {
			return apperr.Wrap(apperr.Unavailable, err, "graphstore: insert edge %s -[%s]-> %s", e.FromFQN, e.Relation, e.ToFQN)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: commit InsertEdges")
	}
	logging.Get(logging.CategoryStore).Debugw("edges inserted", "count", len(edges))
	return nil
}

// GetCallChain performs a forward recursive traversal of relation='calls'
// edges starting at startFQN, bounded by maxDepth. Rows at depth=0 are
// direct outgoing edges; each hop adds one while depth < maxDepth.
// Distinctness is over (from_fqn, to_fqn, relation), not the full row, so
// cycles terminate naturally without explicit cycle detection (§9).
func (s *Store) GetCallChain(startFQN string, maxDepth int) ([]TraversalRow, error) {
	return s.traverse(startFQN, maxDepth, false)
}

// GetReverseCallers mirrors GetCallChain, following edges backward: it
// answers "who (transitively, up to maxDepth) calls startFQN".
func (s *Store) GetReverseCallers(targetFQN string, maxDepth int) ([]TraversalRow, error) {
	return s.traverse(targetFQN, maxDepth, true)
}

func (s *Store) traverse(start string, maxDepth int, reverse bool) ([]TraversalRow, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	var query string
	if reverse {
		query = `
			WITH RECURSIVE chain(depth, from_fqn, to_fqn, relation) AS (
				SELECT 0, e.from_fqn, e.to_fqn, e.relation
				FROM edges e
				WHERE e.to_fqn = ? AND e.relation = 'calls'

				UNION

				SELECT c.depth + 1, e.from_fqn, e.to_fqn, e.relation
				FROM edges e
				JOIN chain c ON e.to_fqn = c.from_fqn
				WHERE c.depth < ? AND e.relation = 'calls'
			)
			SELECT DISTINCT depth, from_fqn, to_fqn, relation FROM chain ORDER BY depth
		`
	} else {
		query = `
			WITH RECURSIVE chain(depth, from_fqn, to_fqn, relation) AS (
				SELECT 0, e.from_fqn, e.to_fqn, e.relation
				FROM edges e
				WHERE e.from_fqn = ? AND e.relation = 'calls'

				UNION

				SELECT c.depth + 1, e.from_fqn, e.to_fqn, e.relation
				FROM edges e
				JOIN chain c ON e.from_fqn = c.to_fqn
				WHERE c.depth < ? AND e.relation = 'calls'
			)
			SELECT DISTINCT depth, from_fqn, to_fqn, relation FROM chain ORDER BY depth
		`
	}

	rows, err := s.db.Query(query, start, maxDepth-1)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: traverse from %s", start)
	}
	defer rows.Close()

	var out []TraversalRow
	seen := make(map[[3]string]bool)
	for rows.Next() {
		var r TraversalRow
		if err := rows.Scan(&r.Depth, &r.FromFQN, &r.ToFQN, &r.Relation); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan traversal row")
		}
		key := [3]string{r.FromFQN, r.ToFQN, r.Relation}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out, rows.Err()
}

// Direction constants for GetRelatedSymbols.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
	DirectionBoth     = "both"
)

// GetRelatedSymbols joins edges with symbols to return resolved neighbours
// of fqn, optionally filtered by relation, in the given direction.
func (s *Store) GetRelatedSymbols(fqn string, relation string, direction string) ([]RelatedSymbol, error) {
	var query string
	args := []any{}

	base := `SELECT s.fqn, s.kind, s.name, COALESCE(s.file_path,''), COALESCE(s.line_number,0),
		COALESCE(s.signature,''), COALESCE(s.parent_fqn,''), s.modifiers, s.annotations,
		COALESCE(s.content_hash,''), s.created_at, s.updated_at, e.relation
		FROM edges e JOIN symbols s ON `

	switch direction {
	case DirectionOutgoing:
		query = base + "s.fqn = e.to_fqn WHERE e.from_fqn = ?"
		args = append(args, fqn)
	case DirectionIncoming:
		query = base + "s.fqn = e.from_fqn WHERE e.to_fqn = ?"
		args = append(args, fqn)
	default: // both
		query = base + `
			(CASE WHEN e.from_fqn = ? THEN s.fqn = e.to_fqn ELSE s.fqn = e.from_fqn END)
			WHERE (e.from_fqn = ? OR e.to_fqn = ?)`
		args = append(args, fqn, fqn, fqn)
	}
	if relation != "" {
		query += " AND e.relation = ?"
		args = append(args, relation)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get related symbols for %s", fqn)
	}
	defer rows.Close()

	var out []RelatedSymbol
	for rows.Next() {
		var rel RelatedSymbol
		var modsJSON, annJSON string
		if err := rows.Scan(&rel.Symbol.FQN, &rel.Symbol.Kind, &rel.Symbol.Name, &rel.Symbol.FilePath, &rel.Symbol.LineNumber,
			&rel.Symbol.Signature, &rel.Symbol.ParentFQN, &modsJSON, &annJSON, &rel.Symbol.ContentHash,
			&rel.Symbol.CreatedAt, &rel.Symbol.UpdatedAt, &rel.Relation); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan related symbol")
		}
		_ = json.Unmarshal([]byte(modsJSON), &rel.Symbol.Modifiers)
		_ = json.Unmarshal([]byte(annJSON), &rel.Symbol.Annotations)
		out = append(out, rel)
	}
	return out, rows.Err()
}

// GetEdgesFrom returns the raw outgoing edges of fqn, optionally filtered
// by relation. Used by rule detection (component K), which needs the
// to_fqn even when it doesn't resolve to an indexed symbol.
func (s *Store) GetEdgesFrom(fqn string, relation string) ([]Edge, error) {
	query := `SELECT from_fqn, to_fqn, relation, metadata FROM edges WHERE from_fqn = ?`
	args := []any{fqn}
	if relation != "" {
		query += " AND relation = ?"
		args = append(args, relation)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get edges from %s", fqn)
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		var metaJSON string
		if err := rows.Scan(&e.FromFQN, &e.ToFQN, &e.Relation, &metaJSON); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan edge")
		}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetCallersBatch returns the distinct direct callers (relation='calls')
// of any FQN in targets, in a single query — the first half of the
// dependency tracker's 1-hop closure (4.F).
func (s *Store) GetCallersBatch(targets []string) ([]string, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	query, args := inClauseQuery(`SELECT DISTINCT from_fqn FROM edges WHERE to_fqn IN (%s) AND relation = 'calls'`, targets)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: batch get callers")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var fqn string
		if err := rows.Scan(&fqn); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan caller fqn")
		}
		out = append(out, fqn)
	}
	return out, rows.Err()
}

// GetParentsBatch returns the (fqn, parent_fqn) pairs for the given FQNs in
// a single query — the second half of the dependency tracker's closure.
func (s *Store) GetParentsBatch(fqns []string) (map[string]string, error) {
	if len(fqns) == 0 {
		return nil, nil
	}
	query, args := inClauseQuery(`SELECT fqn, COALESCE(parent_fqn,'') FROM symbols WHERE fqn IN (%s)`, fqns)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: batch get parents")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var fqn, parent string
		if err := rows.Scan(&fqn, &parent); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan parent row")
		}
		out[fqn] = parent
	}
	return out, rows.Err()
}
