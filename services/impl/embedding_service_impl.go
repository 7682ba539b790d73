package impl

import (
	"context"
	"net/http"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/config"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

// modelCatalog maps known embedding models to their output dimensions.
// Models outside the catalog are probed with a single request.
var modelCatalog = map[string]int{
	"text-embedding-3-small":  1536,
	"text-embedding-3-large":  3072,
	"text-embedding-ada-002":  1536,
	"nomic-embed-text":        768,
	"mxbai-embed-large":       1024,
}

type embeddingServiceImpl struct {
	client *openai.Client
	model  string
}

// NewEmbeddingService builds a client for the configured OpenAI-compatible
// endpoint. The configured model is used for all ingest and query embeddings.
func NewEmbeddingService(cfg *config.EmbeddingConfig) services.EmbeddingService {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.APIURL
	clientConfig.HTTPClient = &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
	return &embeddingServiceImpl{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
	}
}

func (s *embeddingServiceImpl) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return s.embedWithModel(ctx, s.model, texts)
}

func (s *embeddingServiceImpl) embedWithModel(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, apperr.Upstream("embedding request failed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, apperr.Upstream("embedding response cardinality mismatch", nil)
	}
	// The API reports an index per item; order by it rather than trusting
	// response order.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, apperr.Upstream("embedding response index out of range", nil)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (s *embeddingServiceImpl) ListModels(ctx context.Context) ([]models.EmbeddingModelInfo, error) {
	items := make([]models.EmbeddingModelInfo, 0, len(modelCatalog))
	for id, dims := range modelCatalog {
		items = append(items, models.EmbeddingModelInfo{ID: id, Dimensions: dims})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// ValidateDimensions checks declared dimensions against the model's actual
// output. Catalog models are checked locally; unknown models cost one probe
// request against the remote.
func (s *embeddingServiceImpl) ValidateDimensions(ctx context.Context, model string, dimensions int) error {
	if dimensions <= 0 {
		return apperr.Validation("embedding_dimensions must be positive")
	}
	if known, ok := modelCatalog[model]; ok {
		if known != dimensions {
			return apperr.Validationf("model %s produces %d dimensions, configuration declares %d", model, known, dimensions)
		}
		return nil
	}
	vectors, err := s.embedWithModel(ctx, model, []string{"dimension probe"})
	if err != nil {
		return err
	}
	if len(vectors) != 1 {
		return apperr.Upstream("dimension probe returned no embedding", nil)
	}
	if len(vectors[0]) != dimensions {
		return apperr.Validationf("model %s produces %d dimensions, configuration declares %d", model, len(vectors[0]), dimensions)
	}
	return nil
}
