package retriever

import (
	"context"
	"fmt"
	"strings"

	"estateqa/internal/domain"
)

// Retriever maps a natural-language question to ranked documents: embed the
// question, search the index, resolve the returned ids through the corpus
// store. All three collaborators are read-only shared state.
type Retriever struct {
	embedder domain.Embedder
	index    domain.Searcher
	store    domain.DocumentStore
	topK     int
}

// New creates a retriever with a default retrieval width used when a query
// does not specify one.
func New(embedder domain.Embedder, index domain.Searcher, store domain.DocumentStore, topK int) *Retriever {
	if topK < 1 {
		topK = 5
	}
	return &Retriever{embedder: embedder, index: index, store: store, topK: topK}
}

// Retrieve returns up to k documents ranked by similarity to question,
// most relevant first. k = 0 means the configured default; a negative k is
// invalid. An index hit with no document in the store means the index and
// corpus are out of sync, which is a deployment fault, not a query fault.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredDocument, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("empty question")
	}
	if k == 0 {
		k = r.topK
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := r.index.Search(vec, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	out := make([]domain.ScoredDocument, 0, len(hits))
	for _, h := range hits {
		doc, ok := r.store.Get(h.ID)
		if !ok {
			return nil, fmt.Errorf("%w: index returned id %d", domain.ErrUnknownDocument, h.ID)
		}
		out = append(out, domain.ScoredDocument{Document: doc, Score: h.Score})
	}
	return out, nil
}
