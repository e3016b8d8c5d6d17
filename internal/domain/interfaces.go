package domain

import "context"

// Embedder converts text into a fixed-dimension vector. Implementations are
// deterministic for a fixed model configuration and safe for concurrent use.
// The corpus and every query must be embedded by the same Embedder identity;
// Name reports that identity so indexes can guard against a mismatch.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Hit is a single nearest-neighbor match: a document id and its similarity
// score, higher meaning more similar.
type Hit struct {
	ID    int64
	Score float64
}

// Searcher answers "k nearest to this query vector", ranked by descending
// score with ties broken by ascending id.
type Searcher interface {
	Search(query []float32, k int) ([]Hit, error)
	Len() int
	Dimension() int
}

// DocumentStore maps document ids back to the documents the index was
// built from. Read-only during serving.
type DocumentStore interface {
	Get(id int64) (Document, bool)
	Len() int
}

// Retriever turns a natural-language question into ranked documents.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]ScoredDocument, error)
}

// Synthesizer composes a grounded prompt from the question and retrieved
// context and asks the generation backend for an answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, docs []ScoredDocument) (string, error)
}

// Orchestrator is the public entry point of the pipeline.
type Orchestrator interface {
	Answer(ctx context.Context, question string) Answer
}
