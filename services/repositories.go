package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/relrag-api/models"
)

// Repository interfaces are the persistence ports of the application. All
// listings paginate with an opaque cursor (the last returned id, ascending);
// implementations fetch limit+1 rows and return the next cursor iff a
// (limit+1)-th row exists.

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Document, error)
	// GetBySourceHash returns the unique non-deleted document with the hash,
	// or nil when absent.
	GetBySourceHash(ctx context.Context, hash []byte) (*models.Document, error)
	List(ctx context.Context, cursor *string, limit int, includeDeleted bool) ([]models.Document, *string, error)
	Update(ctx context.Context, doc *models.Document) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// PackFilter narrows a pack listing by owning document and/or collection
// membership.
type PackFilter struct {
	DocumentID     *uuid.UUID
	CollectionID   *uuid.UUID
	Cursor         *string
	Limit          int
	IncludeDeleted bool
}

type PackRepository interface {
	Create(ctx context.Context, pack *models.Pack) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Pack, error)
	List(ctx context.Context, filter PackFilter) ([]models.Pack, *string, error)
	// AddToCollection upserts the M:N membership edge; it is idempotent.
	AddToCollection(ctx context.Context, packID, collectionID uuid.UUID) error
	RemoveFromCollection(ctx context.Context, packID, collectionID uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// ChunkSearchParams drives the single hybrid-rank SQL statement.
type ChunkSearchParams struct {
	CollectionID    uuid.UUID
	QueryEmbedding  []float32
	QueryFTS        string
	VectorWeight    float64
	FTSWeight       float64
	Limit           int
	PropertyFilters map[string]models.PropertyFilter
}

type ChunkRepository interface {
	// CreateBatch inserts all chunks preserving their positions.
	CreateBatch(ctx context.Context, chunks []models.Chunk) error
	GetByPackID(ctx context.Context, packID uuid.UUID) ([]models.Chunk, error)
	DeleteByPackID(ctx context.Context, packID uuid.UUID) error
	Search(ctx context.Context, params ChunkSearchParams) ([]models.SearchResult, error)
}

type CollectionRepository interface {
	Create(ctx context.Context, coll *models.Collection) error
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Collection, error)
	List(ctx context.Context, cursor *string, limit int, includeDeleted bool) ([]models.Collection, *string, error)
	// ListBySubject returns collections on which the subject holds any
	// permission row; this doubles as the "my collections" listing.
	ListBySubject(ctx context.Context, subject string, cursor *string, limit int) ([]models.Collection, *string, error)
	Update(ctx context.Context, coll *models.Collection) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type ConfigurationRepository interface {
	Create(ctx context.Context, cfg *models.Configuration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Configuration, error)
	// GetByCollectionID follows Collection.configuration_id.
	GetByCollectionID(ctx context.Context, collectionID uuid.UUID) (*models.Configuration, error)
	List(ctx context.Context, cursor *string, limit int) ([]models.Configuration, *string, error)
}

type PropertyRepository interface {
	CreateBatch(ctx context.Context, properties []models.Property) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Property, error)
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
	ListSchemaByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.PropertySchemaItem, error)
}

type PermissionRepository interface {
	Create(ctx context.Context, perm *models.Permission) error
	Update(ctx context.Context, perm *models.Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetForCollection(ctx context.Context, collectionID uuid.UUID, subject string) (*models.Permission, error)
	ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.Permission, error)
	ListBySubject(ctx context.Context, subject string) ([]models.Permission, error)
}

type RoleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	ListAll(ctx context.Context) ([]models.Role, error)
	GetActionsForRole(ctx context.Context, roleID uuid.UUID) (models.ActionList, error)
}
