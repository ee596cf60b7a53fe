package graphstore

import "github.com/jersy/ariadne/internal/apperr"

// UpsertExternalDependency records an external dependency, deduplicated by
// (caller_fqn, dep_type, target) per §3.
func (s *Store) UpsertExternalDependency(ed ExternalDependency) error {
	_, err := s.db.Exec(`
		INSERT INTO external_dependencies (caller_fqn, dep_type, target, strength)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(caller_fqn, dep_type, target) DO UPDATE SET strength = excluded.strength
	`, ed.CallerFQN, ed.Type, ed.Target, ed.Strength)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: upsert external dependency %s -> %s", ed.CallerFQN, ed.Target)
	}
	return nil
}

// GetExternalDependencies returns dependencies for a caller, or all of
// them when callerFQN is empty.
func (s *Store) GetExternalDependencies(callerFQN string) ([]ExternalDependency, error) {
	query := `SELECT caller_fqn, dep_type, target, strength FROM external_dependencies`
	args := []any{}
	if callerFQN != "" {
		query += " WHERE caller_fqn = ?"
		args = append(args, callerFQN)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get external dependencies")
	}
	defer rows.Close()

	var out []ExternalDependency
	for rows.Next() {
		var ed ExternalDependency
		if err := rows.Scan(&ed.CallerFQN, &ed.Type, &ed.Target, &ed.Strength); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan external dependency")
		}
		out = append(out, ed)
	}
	return out, rows.Err()
}

// GetExternalDependenciesByFQNs batch-loads dependencies for a set of
// caller FQNs, used by the call-chain tracer's enrichment step (4.J).
func (s *Store) GetExternalDependenciesByFQNs(fqns []string) ([]ExternalDependency, error) {
	if len(fqns) == 0 {
		return nil, nil
	}
	query, args := inClauseQuery(`SELECT caller_fqn, dep_type, target, strength FROM external_dependencies WHERE caller_fqn IN (%s)`, fqns)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: batch get external dependencies")
	}
	defer rows.Close()

	var out []ExternalDependency
	for rows.Next() {
		var ed ExternalDependency
		if err := rows.Scan(&ed.CallerFQN, &ed.Type, &ed.Target, &ed.Strength); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan external dependency")
		}
		out = append(out, ed)
	}
	return out, rows.Err()
}
