package service

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"testing"
	"time"

	"estateqa/internal/corpus"
	"estateqa/internal/domain"
	"estateqa/internal/retriever"
	"estateqa/internal/vecindex"
)

// wordEmbedder is a deterministic bag-of-words embedder for pipeline tests:
// texts sharing words land close in cosine space.
type wordEmbedder struct{}

const wordDim = 64

func (wordEmbedder) Name() string   { return "word-embed" }
func (wordEmbedder) Dimension() int { return wordDim }

func (wordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, wordDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!:€")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%wordDim]++
	}
	return vec, nil
}

func (e wordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// echoSynthesizer answers with the top retrieved listing verbatim.
type echoSynthesizer struct{}

func (echoSynthesizer) Synthesize(ctx context.Context, question string, docs []domain.ScoredDocument) (string, error) {
	if len(docs) == 0 {
		return "no context", nil
	}
	return docs[0].Document.Text, nil
}

type failingSynthesizer struct {
	errs  []error
	calls int
}

func (s *failingSynthesizer) Synthesize(ctx context.Context, question string, docs []domain.ScoredDocument) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return "recovered answer", nil
}

func testPipeline(t *testing.T, synth domain.Synthesizer) *Orchestrator {
	t.Helper()
	docs := []domain.Document{
		{ID: 1, Text: "Listing 1: 2BR flat in Salamanca, price €500000"},
		{ID: 2, Text: "Listing 2: studio in Retiro, price €180000"},
		{ID: 3, Text: "Listing 3: 3BR house in Chamberí, price €650000"},
	}
	emb := wordEmbedder{}
	vecs, err := emb.EmbedBatch(context.Background(), []string{docs[0].Text, docs[1].Text, docs[2].Text})
	if err != nil {
		t.Fatalf("embed corpus: %v", err)
	}
	entries := make([]vecindex.Entry, len(docs))
	for i := range docs {
		entries[i] = vecindex.Entry{ID: docs[i].ID, Vector: vecs[i]}
	}
	idx, err := vecindex.Build(emb.Name(), entries)
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	ret := retriever.New(emb, idx, corpus.NewStore(docs), 3)
	o := New(ret, synth)
	o.backoff = time.Millisecond
	return o
}

func TestAnswerEndToEnd(t *testing.T) {
	o := testPipeline(t, echoSynthesizer{})

	ans := o.Answer(context.Background(), "What is the price of the Salamanca flat?")
	if ans.Status != domain.StatusOK {
		t.Fatalf("status = %v, text = %q", ans.Status, ans.Text)
	}
	if !strings.Contains(ans.Text, "500000") {
		t.Errorf("answer = %q, want the Salamanca price in it", ans.Text)
	}
	if len(ans.Sources) == 0 || ans.Sources[0].ID != 1 {
		t.Errorf("sources = %+v, want document 1 first", ans.Sources)
	}
}

func TestAnswerSelfRetrieval(t *testing.T) {
	o := testPipeline(t, echoSynthesizer{})

	for _, text := range []string{
		"Listing 1: 2BR flat in Salamanca, price €500000",
		"Listing 2: studio in Retiro, price €180000",
		"Listing 3: 3BR house in Chamberí, price €650000",
	} {
		ans := o.Answer(context.Background(), text)
		if ans.Status != domain.StatusOK {
			t.Fatalf("status = %v for %q", ans.Status, text)
		}
		if ans.Sources[0].Text != text {
			t.Errorf("querying with a document's own text returned %q first, want itself", ans.Sources[0].Text)
		}
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	o := testPipeline(t, echoSynthesizer{})
	ans := o.Answer(context.Background(), "   ")
	if ans.Status != domain.StatusFailed || ans.Text == "" || len(ans.Sources) != 0 {
		t.Errorf("Answer(blank) = %+v, want failed with message and no sources", ans)
	}
}

func TestAnswerFailureIsolation(t *testing.T) {
	unavailable := &domain.GenerationError{Kind: domain.GenerationUnavailable, Err: errors.New("connection refused")}
	o := testPipeline(t, &failingSynthesizer{errs: []error{unavailable, unavailable, unavailable, unavailable}})

	ans := o.Answer(context.Background(), "What is the price of the Salamanca flat?")
	if ans.Status != domain.StatusFailed {
		t.Fatalf("status = %v, want failed", ans.Status)
	}
	if ans.Text == "" {
		t.Error("failed answer has empty text, want human-readable summary")
	}
	if len(ans.Sources) != 0 {
		t.Errorf("failed answer has sources %+v, want none", ans.Sources)
	}
}

func TestAnswerRetriesRetryableFailures(t *testing.T) {
	rateLimited := &domain.GenerationError{Kind: domain.GenerationRateLimited, Err: errors.New("429")}
	synth := &failingSynthesizer{errs: []error{rateLimited, rateLimited}}
	o := testPipeline(t, synth)

	ans := o.Answer(context.Background(), "How much is the Retiro studio?")
	if ans.Status != domain.StatusOK || ans.Text != "recovered answer" {
		t.Fatalf("answer = %+v, want recovery after retries", ans)
	}
	if synth.calls != 3 {
		t.Errorf("synthesizer called %d times, want 3", synth.calls)
	}
}

func TestAnswerNeverRetriesUnauthorized(t *testing.T) {
	unauthorized := &domain.GenerationError{Kind: domain.GenerationUnauthorized, Err: errors.New("401")}
	synth := &failingSynthesizer{errs: []error{unauthorized, unauthorized}}
	o := testPipeline(t, synth)

	ans := o.Answer(context.Background(), "How much is the Retiro studio?")
	if ans.Status != domain.StatusFailed {
		t.Fatalf("status = %v, want failed", ans.Status)
	}
	if synth.calls != 1 {
		t.Errorf("synthesizer called %d times, want 1 (unauthorized must not retry)", synth.calls)
	}
}
