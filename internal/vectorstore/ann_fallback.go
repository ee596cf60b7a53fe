//go:build !(sqlite_vec && cgo)

package vectorstore

import "fmt"

// initANN is a no-op when the sqlite_vec/cgo build tags are absent: every
// search falls back to brute-force cosine similarity (bruteForceSearch in
// bruteforce.go), matching the teacher's vectorExt=false path exactly.
func (s *Store) initANN(dims int) bool { return false }

func (s *Store) annUpsert(collection Collection, id, content, metaJSON string, v []float32) error {
	return fmt.Errorf("vectorstore: ann index not compiled in (build with -tags sqlite_vec)")
}

func (s *Store) annDelete(collection Collection, ids []string) error {
	return fmt.Errorf("vectorstore: ann index not compiled in (build with -tags sqlite_vec)")
}

func (s *Store) annSearch(collection Collection, queryEmbedding []float32, k int) ([]Record, error) {
	return nil, fmt.Errorf("vectorstore: ann index not compiled in (build with -tags sqlite_vec)")
}
