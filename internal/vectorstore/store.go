// Package vectorstore implements component B: a thin similarity-search
// wrapper around a companion sqlite database, exposing three logical
// collections (summaries, glossary, constraints) behind one contract.
//
// When built with the sqlite_vec and cgo build tags, each collection gets
// a vec0 virtual-table ANN index (internal/vectorstore/ann_vec.go);
// otherwise every search falls back to brute-force cosine similarity over
// a plain table (internal/vectorstore/bruteforce.go) — mirroring the
// teacher's vectorExt-gated dual path exactly.
package vectorstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jersy/ariadne/internal/apperr"
	"github.com/jersy/ariadne/internal/embedding"
	"github.com/jersy/ariadne/internal/logging"
)

// Store is the vector-store adapter. IDs are strings equal to the owning
// row's stable identifier in the graph store, so a single join key binds
// both stores (§4.B).
type Store struct {
	db   *sql.DB
	path string
	dims int
	ann  bool
}

var allCollections = []Collection{CollectionSummaries, CollectionGlossary, CollectionConstraint}

// Open creates (if needed) the vector database directory and plain record
// tables for every collection. dims is the embedding width of the engine
// in use; it determines the ANN index's fixed vector width when compiled
// with sqlite_vec.
func Open(path string, dims int) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "vectorstore: create directory %s", path)
	}

	dbPath := filepath.Join(path, "vectors.db")
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, apperr.Wrap(apperr.Fatal, err, "vectorstore: open %s", dbPath)
	}

	for _, p := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 30000"} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, apperr.Wrap(apperr.Fatal, err, "vectorstore: pragma %q", p)
		}
	}

	s := &Store{db: db, path: path, dims: dims}
	for _, c := range allCollections {
		if _, err := db.Exec(recordTableSchema(c)); err != nil {
			db.Close()
			return nil, apperr.Wrap(apperr.Fatal, err, "vectorstore: create table for %s", c)
		}
	}

	s.ann = s.initANN(dims)
	logging.Get(logging.CategoryVector).Infow("vector store opened", "path", dbPath, "ann_enabled", s.ann, "dims", dims)
	return s, nil
}

func recordTableSchema(c Collection) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS records_%s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding TEXT,
			metadata TEXT NOT NULL DEFAULT '{}'
		)`, c)
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Add inserts (or replaces) a record in collection, keyed by id. embedding
// may be nil for keyword-only records; when present it is stored both in
// the plain table (for brute-force fallback) and, if ann is enabled, in
// the collection's ANN index.
func (s *Store) Add(collection Collection, id, text string, vec []float32, metadata map[string]any) error {
	metaJSON, _ := json.Marshal(metadata)
	var embJSON []byte
	if vec != nil {
		embJSON, _ = json.Marshal(vec)
	}

	_, err := s.db.Exec(fmt.Sprintf(`
		INSERT INTO records_%s (id, content, embedding, metadata) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET content = excluded.content, embedding = excluded.embedding, metadata = excluded.metadata
	`, collection), id, text, nullableBytes(embJSON), string(metaJSON))
	if err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "vectorstore: add %s/%s", collection, id)
	}

	if s.ann && vec != nil {
		if err := s.annUpsert(collection, id, text, string(metaJSON), vec); err != nil {
			return apperr.Wrap(apperr.Unavailable, err, "vectorstore: ann upsert %s/%s", collection, id)
		}
	}
	return nil
}

// Update is an alias for Add: both are upserts keyed on id.
func (s *Store) Update(collection Collection, id, text string, vec []float32, metadata map[string]any) error {
	return s.Add(collection, id, text, vec, metadata)
}

// Delete removes records by id from collection, in both the plain table
// and (if enabled) the ANN index. Deleting a nonexistent id is not an
// error — the dual-write coordinator's delete path is best-effort.
func (s *Store) Delete(collection Collection, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]any, len(ids))
	q := fmt.Sprintf(`DELETE FROM records_%s WHERE id IN (%s)`, collection, placeholderList(len(ids)))
	for i, id := range ids {
		placeholders[i] = id
	}
	if _, err := s.db.Exec(q, placeholders...); err != nil {
		return apperr.Wrap(apperr.Unavailable, err, "vectorstore: delete from %s", collection)
	}
	if s.ann {
		if err := s.annDelete(collection, ids); err != nil {
			return apperr.Wrap(apperr.Unavailable, err, "vectorstore: ann delete from %s", collection)
		}
	}
	return nil
}

// Count returns the number of records stored in collection.
func (s *Store) Count(collection Collection) (int, error) {
	var n int
	err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM records_%s`, collection)).Scan(&n)
	if err != nil {
		return 0, apperr.Wrap(apperr.Unavailable, err, "vectorstore: count %s", collection)
	}
	return n, nil
}

// Search returns the k nearest records to queryEmbedding in collection,
// ranked by ascending distance (0 = identical). Uses the ANN index when
// compiled in, otherwise brute-force cosine similarity (bruteforce.go).
func (s *Store) Search(collection Collection, queryEmbedding []float32, k int) ([]Record, error) {
	if k <= 0 {
		k = 10
	}
	if s.ann {
		return s.annSearch(collection, queryEmbedding, k)
	}
	return s.bruteForceSearch(collection, queryEmbedding, k)
}

// Exists reports whether id is present in collection — used by the
// dual-write coordinator's orphan detection (4.C).
func (s *Store) Exists(collection Collection, id string) (bool, error) {
	var n int
	err := s.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM records_%s WHERE id = ?`, collection), id).Scan(&n)
	if err != nil {
		return false, apperr.Wrap(apperr.Unavailable, err, "vectorstore: exists check %s/%s", collection, id)
	}
	return n > 0, nil
}

// AllIDs returns every id currently stored in collection — used by
// detect_orphans to find B entries with no A counterpart.
func (s *Store) AllIDs(collection Collection) ([]string, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT id FROM records_%s`, collection))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "vectorstore: list ids %s", collection)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "vectorstore: scan id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func placeholderList(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "?"
	}
	return out
}

// cosineOf is a thin indirection to the embedding package's similarity
// function, kept here so bruteforce.go, its caller, doesn't need its own
// import line.
func cosineOf(a, b []float32) (float64, error) {
	return embedding.CosineSimilarity(a, b)
}
