package service

import (
	"context"
	"log"
	"strings"
	"time"

	"estateqa/internal/domain"
)

// Orchestrator drives the query pipeline: validate, retrieve, synthesize,
// assemble. It is the single boundary where stage failures are downgraded
// into a user-facing Answer; nothing below it swallows an error silently.
// Each Answer call is stateless, so concurrent calls share only the
// read-only pipeline components.
type Orchestrator struct {
	retriever   domain.Retriever
	synthesizer domain.Synthesizer

	// bounded retry for retryable generation failures only
	maxRetries int
	backoff    time.Duration
}

// New creates an orchestrator over an assembled pipeline.
func New(retriever domain.Retriever, synthesizer domain.Synthesizer) *Orchestrator {
	return &Orchestrator{
		retriever:   retriever,
		synthesizer: synthesizer,
		maxRetries:  2,
		backoff:     300 * time.Millisecond,
	}
}

// Answer runs the pipeline for one question. It never returns an error:
// any stage failure is logged once and collapsed into a failed Answer with
// empty sources and a human-readable summary.
func (o *Orchestrator) Answer(ctx context.Context, question string) domain.Answer {
	if strings.TrimSpace(question) == "" {
		return failed("Please enter a question.")
	}

	docs, err := o.retriever.Retrieve(ctx, question, 0)
	if err != nil {
		log.Printf("retrieval failed: %v", err)
		return failed("Could not search the listings. Please try again.")
	}

	text, err := o.synthesizeWithRetry(ctx, question, docs)
	if err != nil {
		log.Printf("generation failed: %v", err)
		return failed(generationSummary(err))
	}

	sources := make([]domain.Document, len(docs))
	for i, d := range docs {
		sources[i] = d.Document
	}
	return domain.Answer{Text: text, Sources: sources, Status: domain.StatusOK}
}

// synthesizeWithRetry retries rate-limited and timed-out backend calls a
// bounded number of times with doubling backoff. Unauthorized is never
// retried.
func (o *Orchestrator) synthesizeWithRetry(ctx context.Context, question string, docs []domain.ScoredDocument) (string, error) {
	delay := o.backoff
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("retrying generation (attempt %d/%d): %v", attempt, o.maxRetries, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", lastErr
			}
			delay *= 2
		}
		text, err := o.synthesizer.Synthesize(ctx, question, docs)
		if err == nil {
			return text, nil
		}
		lastErr = err
		ge, ok := domain.AsGenerationError(err)
		if !ok || !ge.Kind.Retryable() {
			return "", err
		}
	}
	return "", lastErr
}

func failed(text string) domain.Answer {
	return domain.Answer{Text: text, Status: domain.StatusFailed}
}

// generationSummary turns a classified backend failure into a short
// user-facing message without leaking backend detail.
func generationSummary(err error) string {
	ge, ok := domain.AsGenerationError(err)
	if !ok {
		return "The assistant could not produce an answer."
	}
	switch ge.Kind {
	case domain.GenerationUnauthorized:
		return "The assistant is not authorized with the generation backend. Check the configured credential."
	case domain.GenerationRateLimited:
		return "The generation backend is rate limiting requests. Please try again shortly."
	case domain.GenerationTimeout:
		return "The generation backend took too long to answer. Please try again."
	default:
		return "The generation backend is unavailable. Please try again later."
	}
}
