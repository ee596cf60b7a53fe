//go:build sqlite_vec && cgo

package vectorstore

import (
	"encoding/json"
	"fmt"
	"math"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/jersy/ariadne/internal/logging"
)

func init() {
	vec.Auto()
}

// initANN creates a vec0 virtual table per collection, sized to dims.
// Returns true if every table was created successfully.
func (s *Store) initANN(dims int) bool {
	if dims <= 0 {
		return false
	}
	for _, c := range allCollections {
		stmt := fmt.Sprintf(
			"CREATE VIRTUAL TABLE IF NOT EXISTS vec_%s USING vec0(embedding float[%d], record_id TEXT, content TEXT, metadata TEXT)",
			c, dims)
		if _, err := s.db.Exec(stmt); err != nil {
			logging.Get(logging.CategoryVector).Warnw("failed to create vec0 table, falling back to brute force", "collection", c, "error", err)
			return false
		}
	}
	return true
}

func (s *Store) annUpsert(collection Collection, id, content, metaJSON string, v []float32) error {
	blob := encodeFloat32(v)
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM vec_%s WHERE record_id = ?`, collection), id)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(`INSERT INTO vec_%s (embedding, record_id, content, metadata) VALUES (?, ?, ?, ?)`, collection),
		blob, id, content, metaJSON)
	return err
}

func (s *Store) annDelete(collection Collection, ids []string) error {
	placeholders := placeholderList(len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM vec_%s WHERE record_id IN (%s)`, collection, placeholders), args...)
	return err
}

func (s *Store) annSearch(collection Collection, queryEmbedding []float32, k int) ([]Record, error) {
	blob := encodeFloat32(queryEmbedding)
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT record_id, content, metadata, vec_distance_cosine(embedding, ?) AS dist FROM vec_%s ORDER BY dist ASC LIMIT ?`,
		collection), blob, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var metaJSON string
		if err := rows.Scan(&r.ID, &r.Text, &metaJSON, &r.Distance); err != nil {
			return nil, err
		}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &r.Metadata)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func encodeFloat32(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		bits := math.Float32bits(f)
		buf[i*4] = byte(bits)
		buf[i*4+1] = byte(bits >> 8)
		buf[i*4+2] = byte(bits >> 16)
		buf[i*4+3] = byte(bits >> 24)
	}
	return buf
}
