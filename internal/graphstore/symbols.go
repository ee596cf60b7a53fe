package graphstore

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/logging"
)

// InsertSymbols upserts a batch of symbols in a single transaction
// (ON CONFLICT(fqn) DO UPDATE refreshing mutable fields and updated_at).
// Batched inserts are one transaction; any row failure rolls the whole
// batch back (§4.A Failure semantics).
func (s *Store) InsertSymbols(symbols []Symbol) error {
	if len(symbols) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: begin InsertSymbols")
	}
	defer tx.Rollback()

	const stmt = `
		INSERT INTO symbols (fqn, kind, name, file_path, line_number, signature, parent_fqn, modifiers, annotations, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(fqn) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			file_path = excluded.file_path,
			line_number = excluded.line_number,
			signature = excluded.signature,
			parent_fqn = excluded.parent_fqn,
			modifiers = excluded.modifiers,
			annotations = excluded.annotations,
			content_hash = excluded.content_hash,
			updated_at = CURRENT_TIMESTAMP
	`
	prepared, err := tx.Prepare(stmt)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: prepare InsertSymbols")
	}
	defer prepared.Close()

	for _, sym := range symbols {
		modsJSON, _ := json.Marshal(sym.Modifiers)
		annJSON, _ := json.Marshal(sym.Annotations)
		hash := sym.ContentHash
		if hash == "" {
			hash = contentHash(sym)
		}
		if _, err := prepared.Exec(sym.FQN, sym.Kind, sym.Name, nullableString(sym.FilePath), sym.LineNumber,
			nullableString(sym.Signature), nullableString(sym.ParentFQN), string(modsJSON), string(annJSON), hash); err != nil {
			return apperr.Wrap(apperr.Unavailable, err, "graphstore: upsert symbol %s", sym.FQN)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: commit InsertSymbols")
	}
	logging.Get(logging.CategoryStore).Debugw("symbols upserted", "count", len(symbols))
	return nil
}

// contentHash derives a stable hash over a symbol's semantically
// meaningful fields, used for change detection by incremental ingestion.
func contentHash(sym Symbol) string {
	h := sha256.New()
	h.Write([]byte(sym.FQN))
	h.Write([]byte(sym.Signature))
	for _, m := range sym.Modifiers {
		h.Write([]byte(m))
	}
	for _, a := range sym.Annotations {
		h.Write([]byte(a))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetSymbol fetches one symbol by FQN.
func (s *Store) GetSymbol(fqn string) (*Symbol, error) {
	row := s.db.QueryRow(`SELECT fqn, kind, name, COALESCE(file_path,''), COALESCE(line_number,0),
		COALESCE(signature,''), COALESCE(parent_fqn,''), modifiers, annotations, COALESCE(content_hash,''), created_at, updated_at
		FROM symbols WHERE fqn = ?`, fqn)
	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, apperr.New(apperr.NotFound, "symbol not found: %s", fqn)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get symbol %s", fqn)
	}
	return sym, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSymbol(r rowScanner) (*Symbol, error) {
	var sym Symbol
	var modsJSON, annJSON string
	if err := r.Scan(&sym.FQN, &sym.Kind, &sym.Name, &sym.FilePath, &sym.LineNumber,
		&sym.Signature, &sym.ParentFQN, &modsJSON, &annJSON, &sym.ContentHash, &sym.CreatedAt, &sym.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(modsJSON), &sym.Modifiers)
	_ = json.Unmarshal([]byte(annJSON), &sym.Annotations)
	return &sym, nil
}

// GetSymbolsByFQNs batch-loads symbols for the given FQNs in one query,
// avoiding N+1 lookups (used by the incremental coordinator's batch load).
func (s *Store) GetSymbolsByFQNs(fqns []string) ([]Symbol, error) {
	if len(fqns) == 0 {
		return nil, nil
	}
	query, args := inClauseQuery(`SELECT fqn, kind, name, COALESCE(file_path,''), COALESCE(line_number,0),
		COALESCE(signature,''), COALESCE(parent_fqn,''), modifiers, annotations, COALESCE(content_hash,''), created_at, updated_at
		FROM symbols WHERE fqn IN (%s)`, fqns)
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: batch get symbols")
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan symbol row")
		}
		out = append(out, *sym)
	}
	return out, rows.Err()
}

// GetSymbolsByParent returns all direct children of a parent FQN.
func (s *Store) GetSymbolsByParent(parentFQN string) ([]Symbol, error) {
	rows, err := s.db.Query(`SELECT fqn, kind, name, COALESCE(file_path,''), COALESCE(line_number,0),
		COALESCE(signature,''), COALESCE(parent_fqn,''), modifiers, annotations, COALESCE(content_hash,''), created_at, updated_at
		FROM symbols WHERE parent_fqn = ?`, parentFQN)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get symbols by parent")
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan symbol row")
		}
		out = append(out, *sym)
	}
	return out, rows.Err()
}

// GetSymbolsByKind returns all symbols of a given kind (class, interface, ...).
func (s *Store) GetSymbolsByKind(kind string) ([]Symbol, error) {
	rows, err := s.db.Query(`SELECT fqn, kind, name, COALESCE(file_path,''), COALESCE(line_number,0),
		COALESCE(signature,''), COALESCE(parent_fqn,''), modifiers, annotations, COALESCE(content_hash,''), created_at, updated_at
		FROM symbols WHERE kind = ?`, kind)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: get symbols by kind")
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "graphstore: scan symbol row")
		}
		out = append(out, *sym)
	}
	return out, rows.Err()
}

// CleanByFile deletes all symbols with the given file_path; the cascade
// triggers and ON DELETE CASCADE constraints handle every dependent row.
func (s *Store) CleanByFile(path string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM symbols WHERE file_path = ?`, path)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "graphstore: clean by file %s", path)
	}
	n, _ := res.RowsAffected()
	logging.Get(logging.CategoryStore).Infow("cleaned symbols by file", "file", path, "deleted", n)
	return n, nil
}

// DeleteSymbol removes a single symbol by FQN, triggering the same
// cascades as CleanByFile.
func (s *Store) DeleteSymbol(fqn string) error {
	_, err := s.db.Exec(`DELETE FROM symbols WHERE fqn = ?`, fqn)
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "graphstore: delete symbol %s", fqn)
	}
	return nil
}

// inClauseQuery builds a query with a placeholder list sized to values,
// returning the query and the []any argument slice. Shared by every
// batched IN-clause lookup in this package to avoid N+1 queries.
func inClauseQuery(format string, values []string) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return fmt.Sprintf(format, placeholders), args
}
