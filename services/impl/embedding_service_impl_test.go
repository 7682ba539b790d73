package impl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/config"
)

type embeddingRequestBody struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingDatum struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingResponseBody struct {
	Object string           `json:"object"`
	Data   []embeddingDatum `json:"data"`
	Model  string           `json:"model"`
}

func newEmbeddingTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *embeddingServiceImpl) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc := NewEmbeddingService(&config.EmbeddingConfig{
		APIURL:  server.URL,
		APIKey:  "test-key",
		Model:   "text-embedding-3-small",
		Timeout: 5,
	}).(*embeddingServiceImpl)
	return server, svc
}

func TestEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("returns vectors in input order", func(t *testing.T) {
		var calls int
		_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			var req embeddingRequestBody
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, []string{"alpha", "beta"}, req.Input)

			// Report items out of order; the client must sort by index.
			resp := embeddingResponseBody{
				Object: "list",
				Model:  req.Model,
				Data: []embeddingDatum{
					{Object: "embedding", Index: 1, Embedding: []float32{2, 2}},
					{Object: "embedding", Index: 0, Embedding: []float32{1, 1}},
				},
			}
			w.Header().Set("Content-Type", "application/json")
			require.NoError(t, json.NewEncoder(w).Encode(resp))
		})

		vectors, err := svc.Embed(ctx, []string{"alpha", "beta"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{1, 1}, vectors[0])
		assert.Equal(t, []float32{2, 2}, vectors[1])
		assert.Equal(t, 1, calls)
	})

	t.Run("empty input skips the remote call", func(t *testing.T) {
		var calls int
		_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
		})

		vectors, err := svc.Embed(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vectors)
		assert.Zero(t, calls)
	})

	t.Run("cardinality mismatch is an upstream failure", func(t *testing.T) {
		_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			resp := embeddingResponseBody{
				Object: "list",
				Data:   []embeddingDatum{{Object: "embedding", Index: 0, Embedding: []float32{1}}},
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		})

		_, err := svc.Embed(ctx, []string{"a", "b"})
		assert.True(t, apperr.IsKind(err, apperr.KindUpstreamFailure))
	})

	t.Run("remote errors are upstream failures", func(t *testing.T) {
		_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
		})

		_, err := svc.Embed(ctx, []string{"a"})
		assert.True(t, apperr.IsKind(err, apperr.KindUpstreamFailure))
	})
}

func TestListModels(t *testing.T) {
	_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	items, err := svc.ListModels(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].ID, items[i].ID)
	}
	for _, item := range items {
		if item.ID == "text-embedding-3-small" {
			assert.Equal(t, 1536, item.Dimensions)
		}
	}
}

func TestValidateDimensions(t *testing.T) {
	ctx := context.Background()

	t.Run("catalog models validate locally", func(t *testing.T) {
		var calls int
		_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
		})

		require.NoError(t, svc.ValidateDimensions(ctx, "text-embedding-3-small", 1536))
		assert.Zero(t, calls)

		err := svc.ValidateDimensions(ctx, "text-embedding-3-small", 999)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("unknown models are probed", func(t *testing.T) {
		_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			resp := embeddingResponseBody{
				Object: "list",
				Data:   []embeddingDatum{{Object: "embedding", Index: 0, Embedding: make([]float32, 768)}},
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		})

		require.NoError(t, svc.ValidateDimensions(ctx, "my-local-model", 768))

		err := svc.ValidateDimensions(ctx, "my-local-model", 1024)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("non-positive dimensions are rejected", func(t *testing.T) {
		_, svc := newEmbeddingTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
		err := svc.ValidateDimensions(ctx, "text-embedding-3-small", 0)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})
}
