package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/relrag-api/services"
)

// gormUnitOfWork binds all repositories to one *gorm.DB transaction handle.
type gormUnitOfWork struct {
	tx *gorm.DB
}

func (u *gormUnitOfWork) Documents() services.DocumentRepository {
	return &documentRepository{db: u.tx}
}

func (u *gormUnitOfWork) Packs() services.PackRepository {
	return &packRepository{db: u.tx}
}

func (u *gormUnitOfWork) Chunks() services.ChunkRepository {
	return &chunkRepository{db: u.tx}
}

func (u *gormUnitOfWork) Collections() services.CollectionRepository {
	return &collectionRepository{db: u.tx}
}

func (u *gormUnitOfWork) Configurations() services.ConfigurationRepository {
	return &configurationRepository{db: u.tx}
}

func (u *gormUnitOfWork) Properties() services.PropertyRepository {
	return &propertyRepository{db: u.tx}
}

func (u *gormUnitOfWork) Permissions() services.PermissionRepository {
	return &permissionRepository{db: u.tx}
}

func (u *gormUnitOfWork) Roles() services.RoleRepository {
	return &roleRepository{db: u.tx}
}

type unitOfWorkFactory struct {
	db *gorm.DB
}

// NewUnitOfWorkFactory returns a factory whose WithinTx scopes one database
// transaction around fn. Commit happens iff fn returns nil; any error or
// panic rolls back.
func NewUnitOfWorkFactory(db *gorm.DB) services.UnitOfWorkFactory {
	return &unitOfWorkFactory{db: db}
}

func (f *unitOfWorkFactory) WithinTx(ctx context.Context, fn func(uow services.UnitOfWork) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormUnitOfWork{tx: tx})
	})
}
