package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/relrag-api/models"
)

// seededRoles are created at bootstrap. viewer can read, editor can also
// write, admin holds the full action set including migrate.
var seededRoles = []struct {
	Name        string
	Description string
	Actions     []models.PermissionAction
}{
	{"viewer", "Read-only access", []models.PermissionAction{models.ActionRead}},
	{"editor", "Read and write access", []models.PermissionAction{models.ActionRead, models.ActionWrite}},
	{"admin", "Full access including migrate", []models.PermissionAction{
		models.ActionRead, models.ActionWrite, models.ActionDelete, models.ActionAdmin, models.ActionMigrate,
	}},
}

// Migrate creates the vector extension, the tables, the indexes the engine
// relies on, and seeds the built-in roles. It is idempotent.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Role{},
		&models.RolePermission{},
		&models.Configuration{},
		&models.Collection{},
		&models.Document{},
		&models.Pack{},
		&models.Chunk{},
		&models.PackCollection{},
		&models.Property{},
		&models.Permission{},
	); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}

	// Dedup is enforced here, not only by the probe: ingestion retries on a
	// unique violation and takes the fast path.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS ix_document_source_hash_live
			ON document (source_hash) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS ix_chunk_pack_id ON chunk (pack_id)`,
		`CREATE INDEX IF NOT EXISTS ix_chunk_content_fts
			ON chunk USING GIN (to_tsvector('simple', content))`,
		`CREATE INDEX IF NOT EXISTS ix_pack_document_id ON pack (document_id)`,
		`CREATE INDEX IF NOT EXISTS ix_property_document_id ON property (document_id)`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	constraints := []struct{ name, ddl string }{
		{"fk_pack_document", "ALTER TABLE pack ADD CONSTRAINT fk_pack_document FOREIGN KEY (document_id) REFERENCES document (id) ON DELETE CASCADE"},
		{"fk_chunk_pack", "ALTER TABLE chunk ADD CONSTRAINT fk_chunk_pack FOREIGN KEY (pack_id) REFERENCES pack (id) ON DELETE CASCADE"},
		{"fk_property_document", "ALTER TABLE property ADD CONSTRAINT fk_property_document FOREIGN KEY (document_id) REFERENCES document (id) ON DELETE CASCADE"},
		{"fk_pack_collection_pack", "ALTER TABLE pack_collection ADD CONSTRAINT fk_pack_collection_pack FOREIGN KEY (pack_id) REFERENCES pack (id) ON DELETE CASCADE"},
		{"fk_pack_collection_collection", "ALTER TABLE pack_collection ADD CONSTRAINT fk_pack_collection_collection FOREIGN KEY (collection_id) REFERENCES collection (id) ON DELETE CASCADE"},
		{"fk_permission_collection", "ALTER TABLE permission ADD CONSTRAINT fk_permission_collection FOREIGN KEY (collection_id) REFERENCES collection (id) ON DELETE CASCADE"},
		{"fk_permission_role", "ALTER TABLE permission ADD CONSTRAINT fk_permission_role FOREIGN KEY (role_id) REFERENCES role (id)"},
		{"fk_collection_configuration", "ALTER TABLE collection ADD CONSTRAINT fk_collection_configuration FOREIGN KEY (configuration_id) REFERENCES configuration (id)"},
		{"fk_role_permission_role", "ALTER TABLE role_permission ADD CONSTRAINT fk_role_permission_role FOREIGN KEY (role_id) REFERENCES role (id) ON DELETE CASCADE"},
	}
	for _, c := range constraints {
		stmt := fmt.Sprintf(`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
				%s;
			END IF;
		END $$`, c.name, c.ddl)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add constraint %s: %w", c.name, err)
		}
	}

	return seedRoles(db)
}

func seedRoles(db *gorm.DB) error {
	for _, seed := range seededRoles {
		var role models.Role
		err := db.Where("name = ?", seed.Name).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = models.Role{Name: seed.Name, Description: seed.Description}
			if err := db.Create(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", seed.Name, err)
			}
		} else if err != nil {
			return fmt.Errorf("lookup role %s: %w", seed.Name, err)
		}

		for _, action := range seed.Actions {
			stmt := `INSERT INTO role_permission (role_id, action) VALUES (?, ?) ON CONFLICT DO NOTHING`
			if err := db.Exec(stmt, role.ID, action).Error; err != nil {
				return fmt.Errorf("seed role action %s/%s: %w", seed.Name, action, err)
			}
		}
	}
	return nil
}
