package retriever

import (
	"context"
	"errors"
	"testing"

	"estateqa/internal/corpus"
	"estateqa/internal/domain"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Name() string   { return "stub-embed" }
func (s *stubEmbedder) Dimension() int { return len(s.vec) }
func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, s.err
}
func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = s.vec
	}
	return vecs, s.err
}

type stubSearcher struct {
	hits  []domain.Hit
	gotK  int
	count int
}

func (s *stubSearcher) Search(query []float32, k int) ([]domain.Hit, error) {
	s.gotK = k
	if k > len(s.hits) {
		k = len(s.hits)
	}
	return s.hits[:k], nil
}
func (s *stubSearcher) Len() int       { return s.count }
func (s *stubSearcher) Dimension() int { return 3 }

func testStore(t *testing.T) *corpus.Store {
	t.Helper()
	return corpus.NewStore([]domain.Document{
		{ID: 1, Text: "Listing 1"},
		{ID: 2, Text: "Listing 2"},
		{ID: 3, Text: "Listing 3"},
	})
}

func TestRetrieveMapsHitsToDocuments(t *testing.T) {
	idx := &stubSearcher{hits: []domain.Hit{{ID: 2, Score: 0.9}, {ID: 1, Score: 0.5}}, count: 3}
	r := New(&stubEmbedder{vec: []float32{1, 0, 0}}, idx, testStore(t), 5)

	docs, err := r.Retrieve(context.Background(), "studio?", 2)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(docs) != 2 || docs[0].Document.ID != 2 || docs[1].Document.ID != 1 {
		t.Errorf("docs = %+v, want index order [2 1]", docs)
	}
	if docs[0].Score != 0.9 {
		t.Errorf("score = %v, want 0.9", docs[0].Score)
	}
}

func TestRetrieveDefaultsAndValidatesK(t *testing.T) {
	idx := &stubSearcher{hits: []domain.Hit{{ID: 1, Score: 1}}, count: 3}
	r := New(&stubEmbedder{vec: []float32{1, 0, 0}}, idx, testStore(t), 4)

	if _, err := r.Retrieve(context.Background(), "flats?", 0); err != nil {
		t.Fatalf("Retrieve(k=0) failed: %v", err)
	}
	if idx.gotK != 4 {
		t.Errorf("k passed to index = %d, want configured default 4", idx.gotK)
	}
	if _, err := r.Retrieve(context.Background(), "flats?", -1); err == nil {
		t.Error("Retrieve(k=-1) succeeded, want error")
	}
	if _, err := r.Retrieve(context.Background(), "  ", 1); err == nil {
		t.Error("Retrieve(blank question) succeeded, want error")
	}
}

func TestRetrieveUnknownDocumentID(t *testing.T) {
	idx := &stubSearcher{hits: []domain.Hit{{ID: 99, Score: 1}}, count: 3}
	r := New(&stubEmbedder{vec: []float32{1, 0, 0}}, idx, testStore(t), 5)

	_, err := r.Retrieve(context.Background(), "anything?", 1)
	if !errors.Is(err, domain.ErrUnknownDocument) {
		t.Errorf("Retrieve = %v, want ErrUnknownDocument", err)
	}
}

func TestRetrievePropagatesEmbedderFailure(t *testing.T) {
	emb := &stubEmbedder{err: domain.ErrEmbeddingBackend}
	r := New(emb, &stubSearcher{}, testStore(t), 5)

	_, err := r.Retrieve(context.Background(), "anything?", 1)
	if !errors.Is(err, domain.ErrEmbeddingBackend) {
		t.Errorf("Retrieve = %v, want ErrEmbeddingBackend", err)
	}
}
