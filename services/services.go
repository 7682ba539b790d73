package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/relrag-api/models"
)

// Chunker splits document text deterministically according to a collection's
// configuration. Chunking is pure CPU and never blocks.
type Chunker interface {
	Chunk(text string, cfg models.ChunkingConfig) ([]string, error)
}

// EmbeddingService wraps the external OpenAI-compatible endpoint. Embed
// preserves order and cardinality; an empty input returns an empty output
// without contacting the remote.
type EmbeddingService interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ListModels(ctx context.Context) ([]models.EmbeddingModelInfo, error)
	// ValidateDimensions checks the declared dimensions against the model's
	// actual output, probing the remote for models outside the catalog.
	ValidateDimensions(ctx context.Context, model string, dimensions int) error
}

// PermissionChecker resolves (subject, collection, action) against the
// permission table. Check reports false for missing permissions; it does not
// error on denial.
type PermissionChecker interface {
	Check(ctx context.Context, subject string, collectionID uuid.UUID, action models.PermissionAction) (bool, error)
}

type DocumentService interface {
	// LoadDocument runs the ingestion pipeline: dedup probe, chunk, embed,
	// persist, attach to collection. Re-ingesting identical content returns
	// the existing document without new chunks or embedding calls.
	LoadDocument(ctx context.Context, subject string, req models.CreateDocumentRequest) (*models.DocumentResponse, error)
	GetDocument(ctx context.Context, subject string, documentID, collectionID uuid.UUID) (*models.DocumentResponse, error)
}

type SearchService interface {
	Search(ctx context.Context, subject string, collectionID uuid.UUID, req models.SearchRequest) ([]models.SearchResult, error)
}

type CollectionService interface {
	Create(ctx context.Context, subject string, req models.CreateCollectionRequest) (*models.Collection, error)
	Get(ctx context.Context, subject string, id uuid.UUID) (*models.Collection, error)
	ListBySubject(ctx context.Context, subject string, cursor *string, limit int) ([]models.Collection, *string, error)
	// Migrate re-chunks and re-embeds every pack of the collection under the
	// new configuration, atomically. Returns the number of migrated packs.
	Migrate(ctx context.Context, subject string, collectionID, newConfigurationID uuid.UUID) (int, error)
	PropertySchema(ctx context.Context, subject string, collectionID uuid.UUID) ([]models.PropertySchemaItem, error)
}

type ConfigurationService interface {
	Create(ctx context.Context, req models.CreateConfigurationRequest) (*models.Configuration, error)
	List(ctx context.Context, cursor *string, limit int) ([]models.Configuration, *string, error)
}

type PermissionService interface {
	Assign(ctx context.Context, actor string, collectionID uuid.UUID, req models.AssignPermissionRequest) (*models.Permission, error)
	Revoke(ctx context.Context, actor string, collectionID uuid.UUID, subject string) error
	ListByCollection(ctx context.Context, actor string, collectionID uuid.UUID) ([]models.Permission, error)
}

// CacheService is a best-effort cache; misses and backend failures both
// surface as (nil, false).
type CacheService interface {
	GetPropertySchema(ctx context.Context, collectionID uuid.UUID) ([]models.PropertySchemaItem, bool)
	SetPropertySchema(ctx context.Context, collectionID uuid.UUID, items []models.PropertySchemaItem)
	InvalidatePropertySchema(ctx context.Context, collectionID uuid.UUID)
}
