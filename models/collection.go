package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection groups packs under a single configuration with its own ACL.
type Collection struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ConfigurationID uuid.UUID  `json:"configuration_id" gorm:"type:uuid;not null"`
	Name            *string    `json:"name,omitempty" gorm:"type:varchar(255)"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

func (Collection) TableName() string { return "collection" }

type CreateCollectionRequest struct {
	ConfigurationID uuid.UUID `json:"configuration_id" binding:"required"`
	Name            *string   `json:"name,omitempty"`
}

type CollectionListResponse struct {
	Items      []Collection `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

type MigrateCollectionRequest struct {
	NewConfigurationID uuid.UUID `json:"new_configuration_id" binding:"required"`
}

type MigrateCollectionResponse struct {
	Migrated int `json:"migrated"`
}
