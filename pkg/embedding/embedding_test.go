package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"medichain-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls atomic.Int32
	fn    func(ctx context.Context, text string) ([]float32, error)
}

func (s *stubProvider) Generate(ctx context.Context, text string, _ string) (*EmbeddingResponse, error) {
	s.calls.Add(1)
	v, err := s.fn(ctx, text)
	if err != nil {
		return nil, err
	}
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: v}}, nil
}

func TestOllamaProviderNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		_, _ = w.Write([]byte(`{"embedding":[3,4]}`))
	}))
	defer srv.Close()

	vec, err := Embed(context.Background(), NewOllamaProvider(srv.URL, ""), "headache", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestOllamaProviderEmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "m").Generate(context.Background(), "x", "")
	assert.Error(t, err)
}

func TestGeminiProviderSendsTaskType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "text-embedding-004:embedContent"))
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskClassification, req.TaskType)
		_, _ = w.Write([]byte(`{"embedding":{"values":[0.5,0.5]}}`))
	}))
	defer srv.Close()

	p := &GeminiProvider{ApiKey: "g-key", BaseURL: srv.URL, Model: "text-embedding-004", client: srv.Client()}
	vec, err := Embed(context.Background(), p, "rash", TaskClassification)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
}

func TestGenerateBatchKeepsOrder(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text))}, nil
	}}

	out, err := GenerateBatch(context.Background(), p, []string{"a", "bbb", "cc"}, "", 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {3}, {2}}, out)
}

func TestGenerateBatchFails(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, errors.New("boom")
		}
		return []float32{1}, nil
	}}

	_, err := GenerateBatch(context.Background(), p, []string{"ok", "bad"}, "", 1)
	assert.ErrorContains(t, err, "boom")
}

func TestCachedProvider(t *testing.T) {
	p := &stubProvider{fn: func(_ context.Context, text string) ([]float32, error) {
		return []float32{1, 2}, nil
	}}
	c, err := NewCachedProvider(p, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Generate(context.Background(), "cough", TaskRetrievalQuery)
		require.NoError(t, err)
	}
	_, err = c.Generate(context.Background(), "cough", TaskRetrievalDocument)
	require.NoError(t, err)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(2), misses)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	p := &stubProvider{fn: func(context.Context, string) ([]float32, error) {
		return nil, errors.New("down")
	}}
	c, err := NewCachedProvider(p, 8)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "x", "")
	require.Error(t, err)
	_, err = c.Generate(context.Background(), "x", "")
	require.Error(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestWithTimeout(t *testing.T) {
	slow := &stubProvider{fn: func(ctx context.Context, _ string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	_, err := WithTimeout(slow, 5*time.Millisecond).Generate(context.Background(), "x", "")
	assert.ErrorIs(t, err, apperror.ErrTimeout)

	broken := &stubProvider{fn: func(context.Context, string) ([]float32, error) {
		return nil, errors.New("dial tcp: refused")
	}}
	_, err = WithTimeout(broken, time.Second).Generate(context.Background(), "x", "")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.True(t, apperror.IsRetryable(err))
}
