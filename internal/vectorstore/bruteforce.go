package vectorstore

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jersy/ariadne/internal/apperr"
)

// bruteForceSearch scans every record with a stored embedding in
// collection and ranks by cosine distance, used whenever the ANN index
// isn't compiled in (or initANN failed to create its virtual tables).
func (s *Store) bruteForceSearch(collection Collection, queryEmbedding []float32, k int) ([]Record, error) {
	rows, err := s.db.Query(fmt.Sprintf(`SELECT id, content, embedding, metadata FROM records_%s WHERE embedding IS NOT NULL`, collection))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "vectorstore: brute force scan %s", collection)
	}
	defer rows.Close()

	var candidates []Record
	for rows.Next() {
		var id, content, embJSON, metaJSON string
		if err := rows.Scan(&id, &content, &embJSON, &metaJSON); err != nil {
			return nil, apperr.Wrap(apperr.Unavailable, err, "vectorstore: scan record")
		}
		var vec []float32
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			continue
		}
		similarity, err := cosineOf(queryEmbedding, vec)
		if err != nil {
			continue
		}
		r := Record{ID: id, Text: content, Distance: 1 - similarity}
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &r.Metadata)
		}
		candidates = append(candidates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "vectorstore: iterate brute force rows")
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Distance < candidates[j].Distance })
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}
