package synthesizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"estateqa/internal/domain"
)

// systemPrompt instructs the model to stay grounded in the retrieved
// listings instead of inventing market knowledge.
const systemPrompt = `You are a real-estate assistant answering questions about a fixed set of ` +
	`Madrid property listings. Answer using only the listings provided in the prompt. ` +
	`Quote prices and sizes exactly as they appear. If the listings do not contain the ` +
	`answer, say so plainly.`

// Synthesizer builds a grounded prompt from retrieved listings and invokes
// the generation backend with deterministic decoding.
type Synthesizer struct {
	llm     llms.Model
	model   string
	timeout time.Duration
}

// New creates a synthesizer. timeout bounds every backend call so a slow
// request cannot starve a worker; zero means 60s.
func New(llm llms.Model, model string, timeout time.Duration) *Synthesizer {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Synthesizer{llm: llm, model: model, timeout: timeout}
}

// Synthesize answers question from the retrieved listings, most relevant
// first. Failures are classified into the GenerationError taxonomy; the
// credential never appears in prompts or errors.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, docs []domain.ScoredDocument) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := []llms.CallOption{llms.WithTemperature(0)}
	if s.model != "" {
		opts = append(opts, llms.WithModel(s.model))
	}
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, Prompt(question, docs)),
	}

	resp, err := s.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", &domain.GenerationError{Kind: domain.GenerationUnavailable, Err: errors.New("backend returned no content")}
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// Prompt renders the grounded prompt: the retrieved listing texts in
// retrieval order, then the question.
func Prompt(question string, docs []domain.ScoredDocument) string {
	var b strings.Builder
	b.WriteString("Listings, most relevant first:\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Document.Text)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}

// classify maps a backend failure onto the generation error taxonomy so
// the orchestrator can decide what is retryable.
func classify(err error) error {
	kind := domain.GenerationUnavailable
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout"):
		kind = domain.GenerationTimeout
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key") ||
		strings.Contains(msg, "incorrect api key"):
		kind = domain.GenerationUnauthorized
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		kind = domain.GenerationRateLimited
	}
	return &domain.GenerationError{Kind: kind, Err: err}
}
