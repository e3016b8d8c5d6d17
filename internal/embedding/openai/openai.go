package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"estateqa/internal/domain"
)

// Client is an OpenAI-compatible embeddings client. It is stateless after
// the first successful call fixes the vector dimension, and safe for
// concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	client     *http.Client
	maxRetries int
	batchSize  int

	mu        sync.Mutex
	dimension int
}

// Config configures the embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	BatchSize int
}

// NewClient creates a new embeddings client using the provided configuration.
// The credential is read from the environment and never logged.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	b := cfg.BatchSize
	if b <= 0 {
		b = 32
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 5,
		batchSize:  b,
	}, nil
}

// Name returns the embedding model identity used to tag built indexes.
func (c *Client) Name() string { return c.model }

// Dimension returns the vector dimension, or 0 before the first embed.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed returns an embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in request-size batches, preserving input order.
// Blank text is rejected rather than embedded: a degenerate vector has no
// meaningful cosine ranking and must not enter an index.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrEmbeddingBackend)
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: text %d is empty", domain.ErrEmbeddingBackend, i)
		}
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := c.embedRequest(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}

	if err := c.checkDimensions(out); err != nil {
		return nil, err
	}
	return out, nil
}

// embedRequest performs one embeddings API call with bounded retries.
// 429 and 5xx responses back off (honoring Retry-After when present);
// other client errors fail immediately.
func (c *Client) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	type reqBody struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	url := c.baseURL + "/embeddings"
	data, err := json.Marshal(reqBody{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingBackend, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingBackend, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingBackend, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries {
				time.Sleep(retryDelay(attempt))
				continue
			}
			break
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			delay := retryDelay(attempt)
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					delay = time.Duration(secs) * time.Second
				}
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("status %s", resp.Status)
			if attempt < c.maxRetries {
				time.Sleep(delay)
				continue
			}
			break
		}

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: status %s: %s", domain.ErrEmbeddingBackend, resp.Status, strings.TrimSpace(string(body)))
		}

		vecs, err := decodeEmbeddings(resp.Body, len(texts))
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingBackend, err)
		}
		return vecs, nil
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingBackend, lastErr)
}

func decodeEmbeddings(r io.Reader, want int) ([][]float32, error) {
	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) != want {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(out.Data), want)
	}
	// The API may return entries out of order; the index field is
	// authoritative.
	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })
	vecs := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", d.Index)
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// checkDimensions fixes the model dimension on first use and rejects any
// later drift, which would mean the backend changed models underneath us.
func (c *Client) checkDimensions(vecs [][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range vecs {
		if c.dimension == 0 {
			c.dimension = len(v)
		}
		if len(v) != c.dimension {
			return fmt.Errorf("%w: backend returned dimension %d, expected %d", domain.ErrEmbeddingBackend, len(v), c.dimension)
		}
	}
	return nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
