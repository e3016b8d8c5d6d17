package vecindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"estateqa/internal/domain"
)

// Remote is a minimal REST adapter for a Qdrant collection serving the
// same search contract as the in-process index. Persistence and rebuild
// coordination are the server's concern; the in-process index remains the
// default backend.
type Remote struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	dim   int
	count int
}

// RemoteConfig contains connection details for a Qdrant collection.
type RemoteConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewRemote creates a Qdrant-backed search adapter.
func NewRemote(cfg RemoteConfig) *Remote {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Remote{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection for the given dimension if it is missing.
// Qdrant answers 200 for an existing collection with the same schema.
func (r *Remote) Init(dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrIndexBuild, dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := r.putJSON(fmt.Sprintf("%s/collections/%s", r.url, r.collection), body); err != nil {
		return err
	}
	r.dim = dimension
	return nil
}

// Upsert writes entries and their listing payloads into the collection.
func (r *Remote) Upsert(entries []Entry, docs []domain.Document) error {
	if len(entries) != len(docs) {
		return fmt.Errorf("%w: %d entries for %d documents", domain.ErrIndexBuild, len(entries), len(docs))
	}
	points := make([]map[string]any, len(entries))
	for i := range entries {
		points[i] = map[string]any{
			"id":     entries[i].ID,
			"vector": entries[i].Vector,
			"payload": map[string]any{
				"text":     docs[i].Text,
				"metadata": docs[i].Metadata,
			},
		}
	}
	body := map[string]any{"points": points}
	if err := r.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", r.url, r.collection), body); err != nil {
		return err
	}
	r.count += len(entries)
	return nil
}

// Describe refreshes the cached dimension and point count from the server.
// Serving binaries call it once at startup so Len and Dimension are cheap
// afterwards.
func (r *Remote) Describe() error {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := r.getJSON(fmt.Sprintf("%s/collections/%s", r.url, r.collection), &resp); err != nil {
		return err
	}
	r.dim = resp.Result.Config.Params.Vectors.Size
	r.count = resp.Result.PointsCount
	return nil
}

// Dimension returns the collection vector size known from Init or Describe.
func (r *Remote) Dimension() int { return r.dim }

// Len returns the point count known from Upsert or Describe.
func (r *Remote) Len() int { return r.count }

// Search returns the k nearest points by cosine similarity.
func (r *Remote) Search(query []float32, k int) ([]domain.Hit, error) {
	if r.dim != 0 && len(query) != r.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, collection has %d", domain.ErrDimensionMismatch, len(query), r.dim)
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d", k)
	}
	req := map[string]any{
		"vector": query,
		"limit":  k,
	}
	var resp struct {
		Result []struct {
			ID    int64   `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	if err := r.postJSON(fmt.Sprintf("%s/collections/%s/points/search", r.url, r.collection), req, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.Hit, 0, len(resp.Result))
	for _, h := range resp.Result {
		hits = append(hits, domain.Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

func (r *Remote) putJSON(url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (r *Remote) postJSON(url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (r *Remote) getJSON(url string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if r.apiKey != "" {
		req.Header.Set("api-key", r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
