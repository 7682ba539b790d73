package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type PermissionHandlers struct {
	permissionService services.PermissionService
}

func NewPermissionHandlers(permissionService services.PermissionService) *PermissionHandlers {
	return &PermissionHandlers{permissionService: permissionService}
}

func (h *PermissionHandlers) List(c *gin.Context) {
	actor, ok := subjectFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	perms, err := h.permissionService.ListByCollection(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	c.JSON(http.StatusOK, models.PermissionListResponse{Items: perms})
}

func (h *PermissionHandlers) Assign(c *gin.Context) {
	actor, ok := subjectFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.AssignPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	perm, err := h.permissionService.Assign(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, perm)
}

func (h *PermissionHandlers) Revoke(c *gin.Context) {
	actor, ok := subjectFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	subject := c.Param("subject")
	if subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "subject is required"})
		return
	}
	if err := h.permissionService.Revoke(c.Request.Context(), actor, id, subject); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
