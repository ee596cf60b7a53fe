package graphstore

import "github.com/jersy/ariadne/internal/apperr"

// InsertAntiPattern records one rule-engine finding. Anti-pattern rows are
// historical detections, not upserted — a rerun of the rule engine inserts
// fresh rows (callers truncate by rule_id first via DeleteAntiPatternsByRule
// if they want a clean slate).
func (s *Store) InsertAntiPattern(ap AntiPattern) error {
	_, err := s.db.Exec(`
		INSERT INTO anti_patterns (rule_id, from_fqn, to_fqn, severity, message)
		VALUES (?, ?, ?, ?, ?)
	`, ap.RuleID, ap.FromFQN, nullableString(ap.ToFQN), ap.Severity, ap.Message)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: insert anti-pattern %s on %s", ap.RuleID, ap.FromFQN)
	}
	return nil
}

// GetAntiPatterns returns all detected anti-patterns, optionally filtered
// by rule_id.
func (s *Store) GetAntiPatterns(ruleID string) ([]AntiPattern, error) {
	query := `SELECT rule_id, from_fqn, COALESCE(to_fqn,''), severity, message, detected_at FROM anti_patterns`
	args := []any{}
	if ruleID != "" {
		query += " WHERE rule_id = ?"
		args = append(args, ruleID)
	}
	query += " ORDER BY detected_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get anti-patterns")
	}
	defer rows.Close()

	var out []AntiPattern
	for rows.Next() {
		var ap AntiPattern
		if err := rows.Scan(&ap.RuleID, &ap.FromFQN, &ap.ToFQN, &ap.Severity, &ap.Message, &ap.DetectedAt); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan anti-pattern")
		}
		out = append(out, ap)
	}
	return out, rows.Err()
}

// DeleteAntiPatternsByRule removes every prior finding for a rule, used by
// the rule engine before a fresh DetectByRule run so stale findings don't
// accumulate across rebuilds.
func (s *Store) DeleteAntiPatternsByRule(ruleID string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM anti_patterns WHERE rule_id = ?`, ruleID)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "graphstore: delete anti-patterns for rule %s", ruleID)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
