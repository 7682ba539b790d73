package impl

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/relrag-api/apperr"
	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type permissionServiceImpl struct {
	uowFactory services.UnitOfWorkFactory
	checker    services.PermissionChecker
}

func NewPermissionService(uowFactory services.UnitOfWorkFactory, checker services.PermissionChecker) services.PermissionService {
	return &permissionServiceImpl{uowFactory: uowFactory, checker: checker}
}

// Assign grants or replaces a subject's permission on a collection. Only
// holders of the admin action may manage permissions.
func (s *permissionServiceImpl) Assign(ctx context.Context, actor string, collectionID uuid.UUID, req models.AssignPermissionRequest) (*models.Permission, error) {
	allowed, err := s.checker.Check(ctx, actor, collectionID, models.ActionAdmin)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied(string(models.ActionAdmin))
	}

	var perm *models.Permission
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		coll, err := uow.Collections().GetByID(ctx, collectionID, false)
		if err != nil {
			return err
		}
		if coll == nil {
			return apperr.NotFound("collection", collectionID.String())
		}

		role, err := uow.Roles().GetByName(ctx, req.Role)
		if err != nil {
			return err
		}
		if role == nil {
			return apperr.NotFound("role", req.Role)
		}

		existing, err := uow.Permissions().GetForCollection(ctx, collectionID, req.Subject)
		if err != nil {
			return err
		}
		if existing != nil {
			// Downgrading the last admin would lock everyone out.
			if err := s.guardLastAdmin(ctx, uow, existing, role, req.ActionsOverride); err != nil {
				return err
			}
			existing.RoleID = role.ID
			existing.ActionsOverride = req.ActionsOverride
			if err := uow.Permissions().Update(ctx, existing); err != nil {
				return err
			}
			perm = existing
			return nil
		}

		perm = &models.Permission{
			CollectionID:    collectionID,
			Subject:         req.Subject,
			RoleID:          role.ID,
			ActionsOverride: req.ActionsOverride,
		}
		return uow.Permissions().Create(ctx, perm)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("collection_id", collectionID.String()).
		Str("subject", req.Subject).
		Str("role", req.Role).
		Str("actor", actor).
		Msg("permission assigned")
	return perm, nil
}

// Revoke removes a subject's permission. Revoking the only permission that
// still carries the admin action is refused.
func (s *permissionServiceImpl) Revoke(ctx context.Context, actor string, collectionID uuid.UUID, subject string) error {
	allowed, err := s.checker.Check(ctx, actor, collectionID, models.ActionAdmin)
	if err != nil {
		return err
	}
	if !allowed {
		return apperr.PermissionDenied(string(models.ActionAdmin))
	}

	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		perm, err := uow.Permissions().GetForCollection(ctx, collectionID, subject)
		if err != nil {
			return err
		}
		if perm == nil {
			return apperr.NotFound("permission", subject)
		}

		actions, err := effectiveActions(ctx, uow, perm)
		if err != nil {
			return err
		}
		if actions.Contains(models.ActionAdmin) {
			others, err := s.countOtherAdmins(ctx, uow, collectionID, perm.ID)
			if err != nil {
				return err
			}
			if others == 0 {
				return apperr.Validation("cannot revoke the last admin of a collection")
			}
		}
		return uow.Permissions().Delete(ctx, perm.ID)
	})
	if err != nil {
		return err
	}

	log.Info().Str("collection_id", collectionID.String()).
		Str("subject", subject).
		Str("actor", actor).
		Msg("permission revoked")
	return nil
}

func (s *permissionServiceImpl) ListByCollection(ctx context.Context, actor string, collectionID uuid.UUID) ([]models.Permission, error) {
	allowed, err := s.checker.Check(ctx, actor, collectionID, models.ActionAdmin)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.PermissionDenied(string(models.ActionAdmin))
	}

	var perms []models.Permission
	err = s.uowFactory.WithinTx(ctx, func(uow services.UnitOfWork) error {
		coll, err := uow.Collections().GetByID(ctx, collectionID, false)
		if err != nil {
			return err
		}
		if coll == nil {
			return apperr.NotFound("collection", collectionID.String())
		}
		perms, err = uow.Permissions().ListByCollection(ctx, collectionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// guardLastAdmin refuses an update that would strip the admin action from the
// only permission still carrying it.
func (s *permissionServiceImpl) guardLastAdmin(ctx context.Context, uow services.UnitOfWork, existing *models.Permission, newRole *models.Role, newOverride models.ActionList) error {
	current, err := effectiveActions(ctx, uow, existing)
	if err != nil {
		return err
	}
	if !current.Contains(models.ActionAdmin) {
		return nil
	}

	var after models.ActionList
	if newOverride != nil {
		after = newOverride
	} else {
		after, err = uow.Roles().GetActionsForRole(ctx, newRole.ID)
		if err != nil {
			return err
		}
	}
	if after.Contains(models.ActionAdmin) {
		return nil
	}

	others, err := s.countOtherAdmins(ctx, uow, existing.CollectionID, existing.ID)
	if err != nil {
		return err
	}
	if others == 0 {
		return apperr.Validation("cannot remove the admin action from the last admin of a collection")
	}
	return nil
}

func (s *permissionServiceImpl) countOtherAdmins(ctx context.Context, uow services.UnitOfWork, collectionID, excludeID uuid.UUID) (int, error) {
	perms, err := uow.Permissions().ListByCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range perms {
		if perms[i].ID == excludeID {
			continue
		}
		actions, err := effectiveActions(ctx, uow, &perms[i])
		if err != nil {
			return 0, err
		}
		if actions.Contains(models.ActionAdmin) {
			count++
		}
	}
	return count, nil
}
