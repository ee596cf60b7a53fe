package graphstore

import "github.com/jersy/ariadne/internal/apperr"

// UpsertEntryPoint records (or replaces) the single entry-point row for a
// symbol (§3: "one entry per symbol").
func (s *Store) UpsertEntryPoint(ep EntryPoint) error {
	_, err := s.db.Exec(`
		INSERT INTO entry_points (symbol_fqn, entry_type, http_method, http_path, cron_expression, mq_queue)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol_fqn) DO UPDATE SET
			entry_type = excluded.entry_type,
			http_method = excluded.http_method,
			http_path = excluded.http_path,
			cron_expression = excluded.cron_expression,
			mq_queue = excluded.mq_queue
	`, ep.SymbolFQN, ep.Type, nullableString(ep.HTTPMethod), nullableString(ep.HTTPPath), nullableString(ep.Cron), nullableString(ep.MQQueue))
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: upsert entry point %s", ep.SymbolFQN)
	}
	return nil
}

// GetEntryPoints returns all entry points, optionally filtered by type.
func (s *Store) GetEntryPoints(entryType string) ([]EntryPoint, error) {
	query := `SELECT symbol_fqn, entry_type, COALESCE(http_method,''), COALESCE(http_path,''), COALESCE(cron_expression,''), COALESCE(mq_queue,'') FROM entry_points`
	args := []any{}
	if entryType != "" {
		query += " WHERE entry_type = ?"
		args = append(args, entryType)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get entry points")
	}
	defer rows.Close()

	var out []EntryPoint
	for rows.Next() {
		var ep EntryPoint
		if err := rows.Scan(&ep.SymbolFQN, &ep.Type, &ep.HTTPMethod, &ep.HTTPPath, &ep.Cron, &ep.MQQueue); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan entry point")
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

// ResolveEntryPointFQN looks up the symbol FQN bound to an http_api entry
// point by its method and path — used by the call-chain tracer (4.J) to
// turn an HTTP descriptor into a traversal root.
func (s *Store) ResolveEntryPointFQN(httpMethod, httpPath string) (string, error) {
	var fqn string
	err := s.db.QueryRow(`
		SELECT symbol_fqn FROM entry_points
		WHERE entry_type = 'http_api' AND http_method = ? AND http_path = ?
	`, httpMethod, httpPath).Scan(&fqn)
	if err != nil {
		return "", apperr.Wrap(apperr.NotFound, err, "graphstore: no entry point for %s %s", httpMethod, httpPath)
	}
	return fqn, nil
}

// GetEntryPointsByFQNs batch-loads entry points for a set of symbol FQNs —
// used by the impact analyzer's map_to_entry_points (4.I.3).
func (s *Store) GetEntryPointsByFQNs(fqns []string) ([]EntryPoint, error) {
	if len(fqns) == 0 {
		return nil, nil
	}
	query, args := inClauseQuery(`SELECT symbol_fqn, entry_type, COALESCE(http_method,''), COALESCE(http_path,''), COALESCE(cron_expression,''), COALESCE(mq_queue,'')
		FROM entry_points WHERE symbol_fqn IN (%s)`, fqns)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: batch get entry points")
	}
	defer rows.Close()

	var out []EntryPoint
	for rows.Next() {
		var ep EntryPoint
		if err := rows.Scan(&ep.SymbolFQN, &ep.Type, &ep.HTTPMethod, &ep.HTTPPath, &ep.Cron, &ep.MQQueue); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan entry point")
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}
