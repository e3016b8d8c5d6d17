package vecindex

import (
	"fmt"
	"math"
	"sort"

	"estateqa/internal/domain"
)

// Entry is one document's embedding destined for an index.
type Entry struct {
	ID     int64
	Vector []float32
}

// Index is an exact brute-force cosine similarity index. It is built once
// from a finite set of vectors and read-only afterwards, so concurrent
// searches need no locking. For corpora in the low thousands a linear scan
// is both simplest and fast enough.
type Index struct {
	model string
	dim   int
	ids   []int64
	vecs  [][]float32
	mags  []float64
}

// Build constructs an index over entries, tagged with the identity of the
// embedding model that produced the vectors. Similarity arithmetic runs in
// float64; magnitudes are precomputed at build time.
func Build(model string, entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", domain.ErrIndexBuild)
	}
	if model == "" {
		return nil, fmt.Errorf("%w: empty model identity", domain.ErrIndexBuild)
	}

	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimension vector for id %d", domain.ErrIndexBuild, entries[0].ID)
	}

	idx := &Index{
		model: model,
		dim:   dim,
		ids:   make([]int64, len(entries)),
		vecs:  make([][]float32, len(entries)),
		mags:  make([]float64, len(entries)),
	}
	seen := make(map[int64]struct{}, len(entries))
	for i, e := range entries {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("%w: vector for id %d has dimension %d, expected %d", domain.ErrIndexBuild, e.ID, len(e.Vector), dim)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", domain.ErrIndexBuild, e.ID)
		}
		seen[e.ID] = struct{}{}
		idx.ids[i] = e.ID
		idx.vecs[i] = append([]float32(nil), e.Vector...)
		idx.mags[i] = magnitude(e.Vector)
	}
	return idx, nil
}

// Model returns the embedding model identity the index was built under.
func (idx *Index) Model() string { return idx.model }

// Dimension returns the build-time vector dimension.
func (idx *Index) Dimension() int { return idx.dim }

// Len returns the number of indexed vectors.
func (idx *Index) Len() int { return len(idx.ids) }

// Search returns the k most similar entries to query, ranked by descending
// cosine similarity with ties broken by ascending id. k must be at least 1
// and is clipped to the index size.
func (idx *Index) Search(query []float32, k int) ([]domain.Hit, error) {
	if len(query) != idx.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", domain.ErrDimensionMismatch, len(query), idx.dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}
	if k > len(idx.ids) {
		k = len(idx.ids)
	}

	qm := magnitude(query)
	hits := make([]domain.Hit, len(idx.ids))
	for i := range idx.vecs {
		var score float64
		if qm != 0 && idx.mags[i] != 0 {
			score = dot(query, idx.vecs[i]) / (qm * idx.mags[i])
		}
		hits[i] = domain.Hit{ID: idx.ids[i], Score: score}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ID < hits[b].ID
	})
	return hits[:k], nil
}

// entries returns a copy of the indexed vectors in index order, for
// persistence.
func (idx *Index) entries() []Entry {
	out := make([]Entry, len(idx.ids))
	for i := range idx.ids {
		out[i] = Entry{ID: idx.ids[i], Vector: idx.vecs[i]}
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
