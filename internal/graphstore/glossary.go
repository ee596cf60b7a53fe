package graphstore

import (
	"database/sql"
	"encoding/json"

	"github.com/jersy/ariadne/internal/apperr"
)

// UpsertGlossaryEntry records (or replaces) the business meaning of a code
// term, keyed on code_term per §3.
func (s *Store) UpsertGlossaryEntry(g GlossaryEntry) error {
	synJSON, _ := json.Marshal(g.Synonyms)
	_, err := s.db.Exec(`
		INSERT INTO glossary (code_term, business_meaning, synonyms, source_fqn, vector_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(code_term) DO UPDATE SET
			business_meaning = excluded.business_meaning,
			synonyms = excluded.synonyms,
			source_fqn = excluded.source_fqn,
			vector_id = excluded.vector_id
	`, g.CodeTerm, g.BusinessMeaning, string(synJSON), nullableString(g.SourceFQN), nullableString(g.VectorID))
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: upsert glossary entry %s", g.CodeTerm)
	}
	return nil
}

// GetGlossaryEntry fetches one glossary entry by its code term.
func (s *Store) GetGlossaryEntry(codeTerm string) (*GlossaryEntry, error) {
	row := s.db.QueryRow(`SELECT code_term, business_meaning, synonyms, COALESCE(source_fqn,''), COALESCE(vector_id,'')
		FROM glossary WHERE code_term = ?`, codeTerm)
	var g GlossaryEntry
	var synJSON string
	if err := row.Scan(&g.CodeTerm, &g.BusinessMeaning, &synJSON, &g.SourceFQN, &g.VectorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.New(apperr.NotFound, "glossary entry not found: %s", codeTerm)
		}
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get glossary entry %s", codeTerm)
	}
	_ = json.Unmarshal([]byte(synJSON), &g.Synonyms)
	return &g, nil
}

// ListGlossary returns every glossary entry, ordered by code_term.
func (s *Store) ListGlossary() ([]GlossaryEntry, error) {
	rows, err := s.db.Query(`SELECT code_term, business_meaning, synonyms, COALESCE(source_fqn,''), COALESCE(vector_id,'')
		FROM glossary ORDER BY code_term`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: list glossary")
	}
	defer rows.Close()

	var out []GlossaryEntry
	for rows.Next() {
		var g GlossaryEntry
		var synJSON string
		if err := rows.Scan(&g.CodeTerm, &g.BusinessMeaning, &synJSON, &g.SourceFQN, &g.VectorID); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan glossary entry")
		}
		_ = json.Unmarshal([]byte(synJSON), &g.Synonyms)
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteGlossaryEntry removes a single glossary entry.
func (s *Store) DeleteGlossaryEntry(codeTerm string) error {
	_, err := s.db.Exec(`DELETE FROM glossary WHERE code_term = ?`, codeTerm)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: delete glossary entry %s", codeTerm)
	}
	return nil
}
