package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/relrag-api/models"
)

type permissionRepository struct {
	db *gorm.DB
}

func (r *permissionRepository) Create(ctx context.Context, perm *models.Permission) error {
	if err := r.db.WithContext(ctx).Create(perm).Error; err != nil {
		return translate("create permission", err)
	}
	return nil
}

func (r *permissionRepository) Update(ctx context.Context, perm *models.Permission) error {
	// Save would skip nil override under struct updates; use explicit columns
	// so clearing an override persists.
	err := r.db.WithContext(ctx).Model(&models.Permission{}).
		Where("id = ?", perm.ID).
		Updates(map[string]any{
			"role_id":          perm.RoleID,
			"actions_override": perm.ActionsOverride,
		}).Error
	if err != nil {
		return translate("update permission", err)
	}
	return nil
}

func (r *permissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Permission{}, "id = ?", id).Error; err != nil {
		return translate("delete permission", err)
	}
	return nil
}

func (r *permissionRepository) GetForCollection(ctx context.Context, collectionID uuid.UUID, subject string) (*models.Permission, error) {
	var perm models.Permission
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND subject = ?", collectionID, subject).
		First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get permission", err)
	}
	return &perm, nil
}

func (r *permissionRepository) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]models.Permission, error) {
	var perms []models.Permission
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("subject").
		Find(&perms).Error
	if err != nil {
		return nil, translate("list permissions by collection", err)
	}
	return perms, nil
}

func (r *permissionRepository) ListBySubject(ctx context.Context, subject string) ([]models.Permission, error) {
	var perms []models.Permission
	err := r.db.WithContext(ctx).
		Where("subject = ?", subject).
		Find(&perms).Error
	if err != nil {
		return nil, translate("list permissions by subject", err)
	}
	return perms, nil
}

type roleRepository struct {
	db *gorm.DB
}

func (r *roleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get role", err)
	}
	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translate("get role by name", err)
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.WithContext(ctx).Order("name").Find(&roles).Error; err != nil {
		return nil, translate("list roles", err)
	}
	return roles, nil
}

func (r *roleRepository) GetActionsForRole(ctx context.Context, roleID uuid.UUID) (models.ActionList, error) {
	var actions []models.PermissionAction
	err := r.db.WithContext(ctx).Model(&models.RolePermission{}).
		Where("role_id = ?", roleID).
		Pluck("action", &actions).Error
	if err != nil {
		return nil, translate("get role actions", err)
	}
	return models.ActionList(actions), nil
}
