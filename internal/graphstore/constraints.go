package graphstore

import (
	"database/sql"

	"github.com/jersy/ariadne/internal/apperr"
)

// UpsertConstraint records (or replaces) a detected validation rule,
// business rule, or invariant, keyed on name.
func (s *Store) UpsertConstraint(c Constraint) error {
	_, err := s.db.Exec(`
		INSERT INTO constraints (name, description, source_fqn, source_line, constraint_type, vector_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			source_fqn = excluded.source_fqn,
			source_line = excluded.source_line,
			constraint_type = excluded.constraint_type,
			vector_id = excluded.vector_id
	`, c.Name, c.Description, nullableString(c.SourceFQN), c.SourceLine, c.Type, nullableString(c.VectorID))
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: upsert constraint %s", c.Name)
	}
	return nil
}

// GetConstraint fetches one constraint by name.
func (s *Store) GetConstraint(name string) (*Constraint, error) {
	row := s.db.QueryRow(`SELECT name, description, COALESCE(source_fqn,''), COALESCE(source_line,0), constraint_type, COALESCE(vector_id,'')
		FROM constraints WHERE name = ?`, name)
	var c Constraint
	if err := row.Scan(&c.Name, &c.Description, &c.SourceFQN, &c.SourceLine, &c.Type, &c.VectorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "constraint not found: %s", name)
		}
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get constraint %s", name)
	}
	return &c, nil
}

// ListConstraints returns every constraint, optionally filtered by type.
func (s *Store) ListConstraints(constraintType string) ([]Constraint, error) {
	query := `SELECT name, description, COALESCE(source_fqn,''), COALESCE(source_line,0), constraint_type, COALESCE(vector_id,'') FROM constraints`
	args := []any{}
	if constraintType != "" {
		query += " WHERE constraint_type = ?"
		args = append(args, constraintType)
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: list constraints")
	}
	defer rows.Close()

	var out []Constraint
	for rows.Next() {
		var c Constraint
		if err := rows.Scan(&c.Name, &c.Description, &c.SourceFQN, &c.SourceLine, &c.Type, &c.VectorID); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan constraint")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConstraint removes a single constraint by name.
func (s *Store) DeleteConstraint(name string) error {
	_, err := s.db.Exec(`DELETE FROM constraints WHERE name = ?`, name)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: delete constraint %s", name)
	}
	return nil
}
