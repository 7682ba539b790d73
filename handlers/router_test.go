package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relrag-api/config"
	"github.com/relrag-api/models"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (stubEmbedder) ListModels(ctx context.Context) ([]models.EmbeddingModelInfo, error) {
	return []models.EmbeddingModelInfo{{ID: "text-embedding-3-small", Dimensions: 1536}}, nil
}

func (stubEmbedder) ValidateDimensions(ctx context.Context, model string, dimensions int) error {
	return nil
}

func TestRouterWiring(t *testing.T) {
	cfg := &config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}}
	router := SetupRouter(cfg, &stubValidator{subject: "user-1"}, Handlers{
		System:        NewSystemHandlers(nil, stubEmbedder{}),
		Configuration: NewConfigurationHandlers(nil),
		Collection:    NewCollectionHandlers(nil),
		Permission:    NewPermissionHandlers(nil),
		Document:      NewDocumentHandlers(nil),
		Search:        NewSearchHandlers(nil),
	})

	t.Run("health is open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("api requires a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("models lists the catalog", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp models.EmbeddingModelListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 1536, resp.Items[0].Dimensions)
	})
}
