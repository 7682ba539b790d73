package services

import "context"

// UnitOfWork exposes all repositories bound to one database connection and
// one transaction. Repositories obtained from the same unit of work share the
// transaction; they must not outlive it. Nested units of work are not
// supported.
type UnitOfWork interface {
	Documents() DocumentRepository
	Packs() PackRepository
	Chunks() ChunkRepository
	Collections() CollectionRepository
	Configurations() ConfigurationRepository
	Properties() PropertyRepository
	Permissions() PermissionRepository
	Roles() RoleRepository
}

// UnitOfWorkFactory opens a transaction, runs fn with repositories bound to
// it, commits when fn returns nil and rolls back otherwise. Context
// cancellation rolls back too.
type UnitOfWorkFactory interface {
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
