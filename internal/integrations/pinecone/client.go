package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

const (
	apiKeySecretKey    = "PINECONE_API_KEY"
	indexHostSecretKey = "PINECONE_INDEX_HOST"
)

// queryRequest is the request shape for the index query endpoint.
type queryRequest struct {
	Vector          []float64      `json:"vector"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata"`
}

// queryResponse is the minimal response shape for the index query endpoint.
type queryResponse struct {
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

type upsertRequest struct {
	Vectors []domain.Vector `json:"vectors"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// SecretsGetter resolves one key from a JSON-object secret.
type SecretsGetter interface {
	GetSecretKey(ctx context.Context, secretName, key string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("pinecone: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused client for one Pinecone index. The API key and index
// host are fetched from the secrets store on first use and reused for the
// lifetime of the process.
type Client struct {
	httpClient *http.Client
	secrets    SecretsGetter
	secretName string
	indexHost  string

	credsOnce sync.Once
	apiKey    string
	credsErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithIndexHost pins the index host, skipping the secrets lookup for it.
func WithIndexHost(host string) Option {
	return func(c *Client) {
		c.indexHost = strings.TrimSpace(host)
	}
}

func NewClient(sg SecretsGetter, secretName string, opts ...Option) (*Client, error) {
	if sg == nil {
		return nil, errors.New("pinecone: secrets getter must not be nil")
	}
	secretName = strings.TrimSpace(secretName)
	if secretName == "" {
		return nil, errors.New("pinecone: secret name must not be empty")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		secrets:    sg,
		secretName: secretName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Query runs a similarity search, optionally scoped to the given resource
// ids via a metadata filter.
func (c *Client) Query(ctx context.Context, vector []float64, resourceIDs []string, topK int) ([]domain.SearchMatch, error) {
	if len(vector) == 0 {
		return nil, errors.New("pinecone: query vector must not be empty")
	}
	if topK <= 0 {
		topK = 1
	}

	reqBody := queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}
	if len(resourceIDs) > 0 {
		reqBody.Filter = map[string]any{
			"resource_id": map[string]any{"$in": resourceIDs},
		}
	}

	raw, err := c.postJSON(ctx, "/query", reqBody)
	if err != nil {
		return nil, err
	}

	var payload queryResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("pinecone: decode query response: %w", err)
	}

	matches := make([]domain.SearchMatch, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		match := domain.SearchMatch{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: make(map[string]string, len(m.Metadata)),
		}
		for k, v := range m.Metadata {
			if s, ok := v.(string); ok {
				match.Metadata[k] = s
			}
		}
		match.Text = match.Metadata["text"]
		matches = append(matches, match)
	}
	return matches, nil
}

func (c *Client) Upsert(ctx context.Context, vectors []domain.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	_, err := c.postJSON(ctx, "/vectors/upsert", upsertRequest{Vectors: vectors})
	return err
}

func (c *Client) DeleteVectors(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := c.postJSON(ctx, "/vectors/delete", deleteRequest{IDs: ids})
	return err
}

// resolveCreds fetches the API key, and the index host when not pinned, on
// the first call and returns the cached result afterwards.
func (c *Client) resolveCreds(ctx context.Context) error {
	c.credsOnce.Do(func() {
		c.apiKey, c.credsErr = c.secrets.GetSecretKey(ctx, c.secretName, apiKeySecretKey)
		if c.credsErr != nil || c.indexHost != "" {
			return
		}
		c.indexHost, c.credsErr = c.secrets.GetSecretKey(ctx, c.secretName, indexHostSecretKey)
	})
	return c.credsErr
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	if err := c.resolveCreds(ctx); err != nil {
		return nil, fmt.Errorf("pinecone: resolve credentials: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pinecone: marshal request: %w", err)
	}

	url := indexURL(c.indexHost) + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pinecone: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("pinecone: read response body: %w", err)
	}
	return buf, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func indexURL(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}
