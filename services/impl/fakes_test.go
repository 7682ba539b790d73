package impl

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

// fakeStore is an in-memory stand-in for the persistence layer so service
// tests run without a database.
type fakeStore struct {
	documents       map[uuid.UUID]*models.Document
	packs           map[uuid.UUID]*models.Pack
	chunks          map[uuid.UUID][]models.Chunk
	collections     map[uuid.UUID]*models.Collection
	configurations  map[uuid.UUID]*models.Configuration
	properties      map[uuid.UUID][]models.Property
	permissions     map[uuid.UUID]*models.Permission
	roles           map[uuid.UUID]*models.Role
	roleActions     map[uuid.UUID]models.ActionList
	packCollections map[uuid.UUID]map[uuid.UUID]bool

	searchResults []models.SearchResult
	createDocErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents:       map[uuid.UUID]*models.Document{},
		packs:           map[uuid.UUID]*models.Pack{},
		chunks:          map[uuid.UUID][]models.Chunk{},
		collections:     map[uuid.UUID]*models.Collection{},
		configurations:  map[uuid.UUID]*models.Configuration{},
		properties:      map[uuid.UUID][]models.Property{},
		permissions:     map[uuid.UUID]*models.Permission{},
		roles:           map[uuid.UUID]*models.Role{},
		roleActions:     map[uuid.UUID]models.ActionList{},
		packCollections: map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

// seedRole registers a role with its action set and returns its id.
func (s *fakeStore) seedRole(name string, actions ...models.PermissionAction) uuid.UUID {
	id := uuid.New()
	s.roles[id] = &models.Role{ID: id, Name: name}
	s.roleActions[id] = models.ActionList(actions)
	return id
}

// grant gives subject the role on the collection.
func (s *fakeStore) grant(collectionID uuid.UUID, subject string, roleID uuid.UUID) *models.Permission {
	perm := &models.Permission{
		ID:           uuid.New(),
		CollectionID: collectionID,
		Subject:      subject,
		RoleID:       roleID,
	}
	s.permissions[perm.ID] = perm
	return perm
}

func (s *fakeStore) seedCollection(configurationID uuid.UUID) *models.Collection {
	coll := &models.Collection{ID: uuid.New(), ConfigurationID: configurationID}
	s.collections[coll.ID] = coll
	return coll
}

func (s *fakeStore) seedConfiguration(size, overlap int) *models.Configuration {
	cfg := &models.Configuration{
		ID:                  uuid.New(),
		ChunkingStrategy:    models.ChunkingStrategyRecursive,
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 1536,
		ChunkSize:           size,
		ChunkOverlap:        overlap,
	}
	s.configurations[cfg.ID] = cfg
	return cfg
}

type fakeUowFactory struct{ store *fakeStore }

func (f *fakeUowFactory) WithinTx(ctx context.Context, fn func(services.UnitOfWork) error) error {
	return fn(&fakeUow{store: f.store})
}

type fakeUow struct{ store *fakeStore }

func (u *fakeUow) Documents() services.DocumentRepository         { return &fakeDocumentRepo{u.store} }
func (u *fakeUow) Packs() services.PackRepository                 { return &fakePackRepo{u.store} }
func (u *fakeUow) Chunks() services.ChunkRepository               { return &fakeChunkRepo{u.store} }
func (u *fakeUow) Collections() services.CollectionRepository     { return &fakeCollectionRepo{u.store} }
func (u *fakeUow) Configurations() services.ConfigurationRepository {
	return &fakeConfigurationRepo{u.store}
}
func (u *fakeUow) Properties() services.PropertyRepository   { return &fakePropertyRepo{u.store} }
func (u *fakeUow) Permissions() services.PermissionRepository { return &fakePermissionRepo{u.store} }
func (u *fakeUow) Roles() services.RoleRepository             { return &fakeRoleRepo{u.store} }

type fakeDocumentRepo struct{ s *fakeStore }

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if r.s.createDocErr != nil {
		err := r.s.createDocErr
		r.s.createDocErr = nil
		return err
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	r.s.documents[doc.ID] = doc
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Document, error) {
	doc, ok := r.s.documents[id]
	if !ok || (!includeDeleted && doc.DeletedAt != nil) {
		return nil, nil
	}
	return doc, nil
}

func (r *fakeDocumentRepo) GetBySourceHash(ctx context.Context, hash []byte) (*models.Document, error) {
	for _, doc := range r.s.documents {
		if doc.DeletedAt == nil && string(doc.SourceHash) == string(hash) {
			return doc, nil
		}
	}
	return nil, nil
}

func (r *fakeDocumentRepo) List(ctx context.Context, cursor *string, limit int, includeDeleted bool) ([]models.Document, *string, error) {
	var out []models.Document
	for _, doc := range r.s.documents {
		if includeDeleted || doc.DeletedAt == nil {
			out = append(out, *doc)
		}
	}
	return out, nil, nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, doc *models.Document) error {
	r.s.documents[doc.ID] = doc
	return nil
}

func (r *fakeDocumentRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if doc, ok := r.s.documents[id]; ok {
		now := doc.CreatedAt
		doc.DeletedAt = &now
	}
	return nil
}

func (r *fakeDocumentRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.documents, id)
	return nil
}

type fakePackRepo struct{ s *fakeStore }

func (r *fakePackRepo) Create(ctx context.Context, pack *models.Pack) error {
	if pack.ID == uuid.Nil {
		pack.ID = uuid.New()
	}
	r.s.packs[pack.ID] = pack
	return nil
}

func (r *fakePackRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Pack, error) {
	pack, ok := r.s.packs[id]
	if !ok || (!includeDeleted && pack.DeletedAt != nil) {
		return nil, nil
	}
	return pack, nil
}

func (r *fakePackRepo) List(ctx context.Context, filter services.PackFilter) ([]models.Pack, *string, error) {
	var out []models.Pack
	for _, pack := range r.s.packs {
		if !filter.IncludeDeleted && pack.DeletedAt != nil {
			continue
		}
		if filter.DocumentID != nil && pack.DocumentID != *filter.DocumentID {
			continue
		}
		if filter.CollectionID != nil && !r.s.packCollections[pack.ID][*filter.CollectionID] {
			continue
		}
		out = append(out, *pack)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.Compare(out[i].ID.String(), out[j].ID.String()) < 0
	})
	return out, nil, nil
}

func (r *fakePackRepo) AddToCollection(ctx context.Context, packID, collectionID uuid.UUID) error {
	if r.s.packCollections[packID] == nil {
		r.s.packCollections[packID] = map[uuid.UUID]bool{}
	}
	r.s.packCollections[packID][collectionID] = true
	return nil
}

func (r *fakePackRepo) RemoveFromCollection(ctx context.Context, packID, collectionID uuid.UUID) error {
	delete(r.s.packCollections[packID], collectionID)
	return nil
}

func (r *fakePackRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if pack, ok := r.s.packs[id]; ok {
		now := pack.CreatedAt
		pack.DeletedAt = &now
	}
	return nil
}

type fakeChunkRepo struct{ s *fakeStore }

func (r *fakeChunkRepo) CreateBatch(ctx context.Context, chunks []models.Chunk) error {
	for _, c := range chunks {
		r.s.chunks[c.PackID] = append(r.s.chunks[c.PackID], c)
	}
	return nil
}

func (r *fakeChunkRepo) GetByPackID(ctx context.Context, packID uuid.UUID) ([]models.Chunk, error) {
	out := append([]models.Chunk(nil), r.s.chunks[packID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeChunkRepo) DeleteByPackID(ctx context.Context, packID uuid.UUID) error {
	delete(r.s.chunks, packID)
	return nil
}

func (r *fakeChunkRepo) Search(ctx context.Context, params services.ChunkSearchParams) ([]models.SearchResult, error) {
	return r.s.searchResults, nil
}

type fakeCollectionRepo struct{ s *fakeStore }

func (r *fakeCollectionRepo) Create(ctx context.Context, coll *models.Collection) error {
	if coll.ID == uuid.Nil {
		coll.ID = uuid.New()
	}
	r.s.collections[coll.ID] = coll
	return nil
}

func (r *fakeCollectionRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Collection, error) {
	coll, ok := r.s.collections[id]
	if !ok || (!includeDeleted && coll.DeletedAt != nil) {
		return nil, nil
	}
	return coll, nil
}

func (r *fakeCollectionRepo) List(ctx context.Context, cursor *string, limit int, includeDeleted bool) ([]models.Collection, *string, error) {
	var out []models.Collection
	for _, coll := range r.s.collections {
		if includeDeleted || coll.DeletedAt == nil {
			out = append(out, *coll)
		}
	}
	return out, nil, nil
}

func (r *fakeCollectionRepo) ListBySubject(ctx context.Context, subject string, cursor *string, limit int) ([]models.Collection, *string, error) {
	seen := map[uuid.UUID]bool{}
	var out []models.Collection
	for _, perm := range r.s.permissions {
		if perm.Subject != subject || seen[perm.CollectionID] {
			continue
		}
		if coll, ok := r.s.collections[perm.CollectionID]; ok && coll.DeletedAt == nil {
			out = append(out, *coll)
			seen[perm.CollectionID] = true
		}
	}
	return out, nil, nil
}

func (r *fakeCollectionRepo) Update(ctx context.Context, coll *models.Collection) error {
	r.s.collections[coll.ID] = coll
	return nil
}

func (r *fakeCollectionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if coll, ok := r.s.collections[id]; ok {
		now := coll.CreatedAt
		coll.DeletedAt = &now
	}
	return nil
}

type fakeConfigurationRepo struct{ s *fakeStore }

func (r *fakeConfigurationRepo) Create(ctx context.Context, cfg *models.Configuration) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	r.s.configurations[cfg.ID] = cfg
	return nil
}

func (r *fakeConfigurationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Configuration, error) {
	return r.s.configurations[id], nil
}

func (r *fakeConfigurationRepo) GetByCollectionID(ctx context.Context, collectionID uuid.UUID) (*models.Configuration, error) {
	coll, ok := r.s.collections[collectionID]
	if !ok {
		return nil, nil
	}
	return r.s.configurations[coll.ConfigurationID], nil
}

func (r *fakeConfigurationRepo) List(ctx context.Context, cursor *string, limit int) ([]models.Configuration, *string, error) {
	var out []models.Configuration
	for _, cfg := range r.s.configurations {
		out = append(out, *cfg)
	}
	return out, nil, nil
}

type fakePropertyRepo struct{ s *fakeStore }

func (r *fakePropertyRepo) CreateBatch(ctx context.Context, properties []models.Property) error {
	for _, p := range properties {
		r.s.properties[p.DocumentID] = append(r.s.properties[p.DocumentID], p)
	}
	return nil
}

func (r *fakePropertyRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]models.Property, error) {
	return r.s.properties[documentID], nil
}

func (r *fakePropertyRepo) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	delete(r.s.properties, documentID)
	return nil
}

func (r *fakePropertyRepo) ListSchemaByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.PropertySchemaItem, error) {
	keys := map[string]models.PropertyType{}
	for _, props := range r.s.properties {
		for _, p := range props {
			keys[p.Key] = p.PropertyType
		}
	}
	var out []models.PropertySchemaItem
	for key, typ := range keys {
		out = append(out, models.PropertySchemaItem{Key: key, Label: key, Type: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type fakePermissionRepo struct{ s *fakeStore }

func (r *fakePermissionRepo) Create(ctx context.Context, perm *models.Permission) error {
	if perm.ID == uuid.Nil {
		perm.ID = uuid.New()
	}
	r.s.permissions[perm.ID] = perm
	return nil
}

func (r *fakePermissionRepo) Update(ctx context.Context, perm *models.Permission) error {
	r.s.permissions[perm.ID] = perm
	return nil
}

func (r *fakePermissionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.permissions, id)
	return nil
}

func (r *fakePermissionRepo) GetForCollection(ctx context.Context, collectionID uuid.UUID, subject string) (*models.Permission, error) {
	for _, perm := range r.s.permissions {
		if perm.CollectionID == collectionID && perm.Subject == subject {
			return perm, nil
		}
	}
	return nil, nil
}

func (r *fakePermissionRepo) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.Permission, error) {
	var out []models.Permission
	for _, perm := range r.s.permissions {
		if perm.CollectionID == collectionID {
			out = append(out, *perm)
		}
	}
	return out, nil
}

func (r *fakePermissionRepo) ListBySubject(ctx context.Context, subject string) ([]models.Permission, error) {
	var out []models.Permission
	for _, perm := range r.s.permissions {
		if perm.Subject == subject {
			out = append(out, *perm)
		}
	}
	return out, nil
}

type fakeRoleRepo struct{ s *fakeStore }

func (r *fakeRoleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	return r.s.roles[id], nil
}

func (r *fakeRoleRepo) GetByName(ctx context.Context, name string) (*models.Role, error) {
	for _, role := range r.s.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, nil
}

func (r *fakeRoleRepo) ListAll(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	for _, role := range r.s.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *fakeRoleRepo) GetActionsForRole(ctx context.Context, roleID uuid.UUID) (models.ActionList, error) {
	return r.s.roleActions[roleID], nil
}

// fakeEmbedder returns deterministic vectors and counts calls so tests can
// assert the remote is contacted exactly as often as expected.
type fakeEmbedder struct {
	calls      int
	embedded   [][]string
	dimensions int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dimensions: 4}
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.embedded = append(e.embedded, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, e.dimensions)
		vec[0] = float32(len(texts[i]))
		out[i] = vec
	}
	return out, nil
}

func (e *fakeEmbedder) ListModels(ctx context.Context) ([]models.EmbeddingModelInfo, error) {
	return []models.EmbeddingModelInfo{{ID: "text-embedding-3-small", Dimensions: 1536}}, nil
}

func (e *fakeEmbedder) ValidateDimensions(ctx context.Context, model string, dimensions int) error {
	return nil
}
