package pinecone

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MR34Z1r0/cdk-agents-resources/internal/domain"
)

type fakeSecrets struct {
	vals  map[string]string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecretKey(_ context.Context, _, key string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.vals[key]
	if !ok {
		return "", errors.New("missing key " + key)
	}
	return v, nil
}

type capturedRequest struct {
	path   string
	apiKey string
	body   []byte
}

func newTestClient(t *testing.T, status int, responseBody string, captured *capturedRequest) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.apiKey = r.Header.Get("Api-Key")
		captured.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(responseBody))
	}))
	t.Cleanup(server.Close)

	sg := &fakeSecrets{vals: map[string]string{apiKeySecretKey: "pc-key-123"}}
	c, err := NewClient(sg, "pinecone-secret", WithIndexHost(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return c
}

func TestQuery_RequestShape(t *testing.T) {
	var captured capturedRequest
	c := newTestClient(t, http.StatusOK, `{"matches":[
		{"id":"res-1_chunk_1","score":0.91,"metadata":{"resource_id":"res-1","text":"las plantas"}},
		{"id":"res-2_chunk_4","score":0.83,"metadata":{"resource_id":"res-2","text":"la clorofila"}}
	]}`, &captured)

	matches, err := c.Query(context.Background(), []float64{0.1, 0.2}, []string{"res-1", "res-2"}, 5)
	require.NoError(t, err)
	require.Equal(t, "/query", captured.path)
	require.Equal(t, "pc-key-123", captured.apiKey)

	var req map[string]any
	require.NoError(t, json.Unmarshal(captured.body, &req))
	require.Equal(t, float64(5), req["topK"])
	require.Equal(t, true, req["includeMetadata"])
	filter := req["filter"].(map[string]any)["resource_id"].(map[string]any)
	require.ElementsMatch(t, []any{"res-1", "res-2"}, filter["$in"])

	require.Len(t, matches, 2)
	require.Equal(t, "res-1_chunk_1", matches[0].ID)
	require.InDelta(t, 0.91, matches[0].Score, 1e-9)
	require.Equal(t, "las plantas", matches[0].Text)
	require.Equal(t, "res-1", matches[0].Metadata["resource_id"])
}

func TestQuery_NoFilterWhenUnscoped(t *testing.T) {
	var captured capturedRequest
	c := newTestClient(t, http.StatusOK, `{"matches":[]}`, &captured)

	_, err := c.Query(context.Background(), []float64{0.1}, nil, 3)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(captured.body, &req))
	require.NotContains(t, req, "filter")
}

func TestQuery_HTTPStatusError(t *testing.T) {
	var captured capturedRequest
	c := newTestClient(t, http.StatusUnauthorized, `{"message":"bad key"}`, &captured)

	_, err := c.Query(context.Background(), []float64{0.1}, nil, 3)
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestUpsert_RequestShape(t *testing.T) {
	var captured capturedRequest
	c := newTestClient(t, http.StatusOK, `{"upsertedCount":1}`, &captured)

	err := c.Upsert(context.Background(), []domain.Vector{{
		ID:       "res-1_chunk_1",
		Values:   []float64{0.1, 0.2},
		Metadata: map[string]string{"resource_id": "res-1", "text": "contenido"},
	}})
	require.NoError(t, err)
	require.Equal(t, "/vectors/upsert", captured.path)

	var req upsertRequest
	require.NoError(t, json.Unmarshal(captured.body, &req))
	require.Len(t, req.Vectors, 1)
	require.Equal(t, "res-1_chunk_1", req.Vectors[0].ID)
}

func TestUpsert_EmptyIsNoop(t *testing.T) {
	var captured capturedRequest
	c := newTestClient(t, http.StatusOK, `{}`, &captured)

	require.NoError(t, c.Upsert(context.Background(), nil))
	require.Empty(t, captured.path)
}

func TestDeleteVectors_RequestShape(t *testing.T) {
	var captured capturedRequest
	c := newTestClient(t, http.StatusOK, `{}`, &captured)

	err := c.DeleteVectors(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "/vectors/delete", captured.path)

	var req deleteRequest
	require.NoError(t, json.Unmarshal(captured.body, &req))
	require.Equal(t, []string{"a", "b"}, req.IDs)
}

func TestCredentials_FetchedOnceAndCached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}))
	t.Cleanup(server.Close)

	sg := &fakeSecrets{vals: map[string]string{apiKeySecretKey: "pc-key"}}
	c, err := NewClient(sg, "pinecone-secret", WithIndexHost(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = c.Query(context.Background(), []float64{0.1}, nil, 1)
	require.NoError(t, err)
	_, err = c.Query(context.Background(), []float64{0.1}, nil, 1)
	require.NoError(t, err)
	require.Equal(t, 1, sg.calls)
}

func TestCredentials_FailurePropagates(t *testing.T) {
	sg := &fakeSecrets{err: errors.New("denied")}
	c, err := NewClient(sg, "pinecone-secret", WithIndexHost("https://example.invalid"))
	require.NoError(t, err)

	_, err = c.Query(context.Background(), []float64{0.1}, nil, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolve credentials")
}

func TestIndexURL_SchemePrefix(t *testing.T) {
	require.Equal(t, "https://idx.pinecone.io", indexURL("idx.pinecone.io"))
	require.Equal(t, "https://idx.pinecone.io", indexURL("https://idx.pinecone.io/"))
	require.Equal(t, "http://localhost:8080", indexURL("http://localhost:8080"))
}

type fixedEmbedder struct {
	vector []float64
	err    error
	last   string
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.last = text
	return f.vector, f.err
}

type fixedIndex struct {
	matches []domain.SearchMatch
	lastVec []float64
}

func (f *fixedIndex) Query(_ context.Context, vector []float64, _ []string, _ int) ([]domain.SearchMatch, error) {
	f.lastVec = vector
	return f.matches, nil
}

func TestSearcher_EmbedsThenQueries(t *testing.T) {
	embed := &fixedEmbedder{vector: []float64{0.5, 0.6}}
	idx := &fixedIndex{matches: []domain.SearchMatch{{ID: "m1"}}}
	s, err := NewSearcher(embed, idx)
	require.NoError(t, err)

	matches, err := s.Search(context.Background(), "fotosíntesis", nil, 3)
	require.NoError(t, err)
	require.Equal(t, "fotosíntesis", embed.last)
	require.Equal(t, []float64{0.5, 0.6}, idx.lastVec)
	require.Len(t, matches, 1)
}

func TestSearcher_EmbedFailure(t *testing.T) {
	embed := &fixedEmbedder{err: errors.New("throttled")}
	s, err := NewSearcher(embed, &fixedIndex{})
	require.NoError(t, err)

	_, err = s.Search(context.Background(), "tema", nil, 3)
	require.Error(t, err)
}
