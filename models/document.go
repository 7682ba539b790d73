package models

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// PropertyType declares how a stored property value is interpreted when
// building filter casts.
type PropertyType string

const (
	PropertyTypeString PropertyType = "string"
	PropertyTypeInt    PropertyType = "int"
	PropertyTypeFloat  PropertyType = "float"
	PropertyTypeBool   PropertyType = "bool"
	PropertyTypeDate   PropertyType = "date"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeString, PropertyTypeInt, PropertyTypeFloat, PropertyTypeBool, PropertyTypeDate:
		return true
	}
	return false
}

// Document is the original ingested text plus the content hash used for
// deduplication. source_hash is the 16-byte MD5 of the content; a partial
// unique index keeps it unique among non-deleted rows.
type Document struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	SourceHash []byte     `json:"-" gorm:"type:bytea;not null"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }

// SourceHashHex is the hash as it appears in API payloads.
func (d *Document) SourceHashHex() string { return hex.EncodeToString(d.SourceHash) }

// HashContent computes the dedup hash for raw document content.
func HashContent(content string) []byte {
	sum := md5.Sum([]byte(content))
	return sum[:]
}

// Pack is one realization of a document under one chunking strategy. It owns
// the chunks and may be attached to many collections.
type Pack struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DocumentID uuid.UUID  `json:"document_id" gorm:"type:uuid;not null"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func (Pack) TableName() string { return "pack" }

// PackCollection is the M:N membership edge between packs and collections.
type PackCollection struct {
	PackID       uuid.UUID `json:"pack_id" gorm:"type:uuid;primary_key"`
	CollectionID uuid.UUID `json:"collection_id" gorm:"type:uuid;primary_key"`
}

func (PackCollection) TableName() string { return "pack_collection" }

// Chunk is a contiguous fragment of a pack with its embedding and 0-based
// position. Positions within a pack are dense; the pipeline enforces it.
type Chunk struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	PackID    uuid.UUID       `json:"pack_id" gorm:"type:uuid;not null"`
	Content   string          `json:"content" gorm:"type:text;not null"`
	Embedding pgvector.Vector `json:"-" gorm:"type:vector(1536);not null"`
	Position  int             `json:"position" gorm:"not null"`
}

func (Chunk) TableName() string { return "chunk" }

// Property is a typed key/value metadatum attached to a document.
type Property struct {
	DocumentID   uuid.UUID    `json:"document_id" gorm:"type:uuid;primary_key"`
	Key          string       `json:"key" gorm:"type:varchar(255);primary_key"`
	Value        string       `json:"value" gorm:"type:text;not null"`
	PropertyType PropertyType `json:"property_type" gorm:"type:varchar(50);not null"`
}

func (Property) TableName() string { return "property" }

// PropertyInput is a single property in an ingest request body.
type PropertyInput struct {
	Value string       `json:"value"`
	Type  PropertyType `json:"type"`
}

type CreateDocumentRequest struct {
	CollectionID uuid.UUID                `json:"collection_id" binding:"required"`
	Content      string                   `json:"content" binding:"required"`
	Properties   map[string]PropertyInput `json:"properties"`
}

// DocumentResponse is the DTO returned from ingest and get.
type DocumentResponse struct {
	ID         uuid.UUID  `json:"id"`
	Content    string     `json:"content"`
	SourceHash string     `json:"source_hash"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func NewDocumentResponse(d *Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		Content:    d.Content,
		SourceHash: d.SourceHashHex(),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		DeletedAt:  d.DeletedAt,
	}
}

// BatchIngestError records a per-file failure during multipart ingest.
type BatchIngestError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchIngestResponse is the result of a multipart ingest: the documents that
// made it plus the per-file errors that did not abort the batch.
type BatchIngestResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Errors    []BatchIngestError `json:"errors"`
}

// IngestProgressEvent is one SSE progress frame during streaming ingest.
type IngestProgressEvent struct {
	Total    int    `json:"total"`
	Current  int    `json:"current"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}
