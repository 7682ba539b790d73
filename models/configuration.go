package models

import (
	"time"

	"github.com/google/uuid"
)

// ChunkingStrategy selects how document text is split into chunks.
type ChunkingStrategy string

const (
	ChunkingStrategyRecursive ChunkingStrategy = "recursive"
	ChunkingStrategyFixed     ChunkingStrategy = "fixed"
	ChunkingStrategySemantic  ChunkingStrategy = "semantic"
)

// Valid reports whether s is one of the declared strategies.
func (s ChunkingStrategy) Valid() bool {
	switch s {
	case ChunkingStrategyRecursive, ChunkingStrategyFixed, ChunkingStrategySemantic:
		return true
	}
	return false
}

// Configuration is an immutable bundle of chunking and embedding parameters.
// Collections reference it; it is never updated in place.
type Configuration struct {
	ID                  uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ChunkingStrategy    ChunkingStrategy `json:"chunking_strategy" gorm:"type:varchar(50);not null"`
	EmbeddingModel      string           `json:"embedding_model" gorm:"type:varchar(255);not null"`
	EmbeddingDimensions int              `json:"embedding_dimensions" gorm:"not null"`
	ChunkSize           int              `json:"chunk_size" gorm:"not null"`
	ChunkOverlap        int              `json:"chunk_overlap" gorm:"not null"`
	Name                *string          `json:"name,omitempty" gorm:"type:varchar(255)"`
	CreatedAt           time.Time        `json:"created_at"`
}

func (Configuration) TableName() string { return "configuration" }

// ChunkingConfig is the subset of a Configuration the chunker needs.
type ChunkingConfig struct {
	Strategy     ChunkingStrategy
	ChunkSize    int
	ChunkOverlap int
}

func (c *Configuration) ChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		Strategy:     c.ChunkingStrategy,
		ChunkSize:    c.ChunkSize,
		ChunkOverlap: c.ChunkOverlap,
	}
}

type CreateConfigurationRequest struct {
	ChunkingStrategy    ChunkingStrategy `json:"chunking_strategy"`
	EmbeddingModel      string           `json:"embedding_model" binding:"required"`
	EmbeddingDimensions int              `json:"embedding_dimensions"`
	ChunkSize           int              `json:"chunk_size" binding:"required"`
	ChunkOverlap        int              `json:"chunk_overlap"`
	Name                *string          `json:"name,omitempty"`
}

type ConfigurationListResponse struct {
	Items      []Configuration `json:"items"`
	NextCursor *string         `json:"next_cursor,omitempty"`
}
