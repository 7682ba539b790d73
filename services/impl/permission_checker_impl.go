package impl

import (
	"context"

	"github.com/google/uuid"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type permissionCheckerImpl struct {
	uowFactory services.UnitOfWorkFactory
}

// NewPermissionChecker resolves (subject, collection, action) against the
// permission table; the override action set wins over the role's default set
// when present.
func NewPermissionChecker(uowFactory services.UnitOfWorkFactory) services.PermissionChecker {
	return &permissionCheckerImpl{uowFactory: uowFactory}
}

func (c *permissionCheckerImpl) Check(ctx context.Context, subject string, collectionID uuid.UUID, action models.PermissionAction) (bool, error) {
	var allowed bool
	err := c.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		perm, err := uow.Permissions().GetForCollection(ctx, collectionID, subject)
		if err != nil {
			return err
		}
		if perm == nil {
			return nil
		}
		actions := perm.ActionsOverride
		if actions == nil {
			actions, err = uow.Roles().GetActionsForRole(ctx, perm.RoleID)
			if err != nil {
				return err
			}
		}
		allowed = actions.Contains(action)
		return nil
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// effectiveActions resolves a permission's action set inside an existing unit
// of work. Shared by the permission admin service for the last-admin guard.
func effectiveActions(ctx context.Context, uow services.UnitOfWork, perm *models.Permission) (models.ActionList, error) {
	if perm.ActionsOverride != nil {
		return perm.ActionsOverride, nil
	}
	return uow.Roles().GetActionsForRole(ctx, perm.RoleID)
}
