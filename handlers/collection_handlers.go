package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type CollectionHandlers struct {
	collectionService services.CollectionService
}

func NewCollectionHandlers(collectionService services.CollectionService) *CollectionHandlers {
	return &CollectionHandlers{collectionService: collectionService}
}

// Create makes a collection and grants the caller admin on it.
func (h *CollectionHandlers) Create(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	var req models.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	coll, err := h.collectionService.Create(c.Request.Context(), subject, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coll)
}

// List returns the collections the caller holds any permission on.
func (h *CollectionHandlers) List(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	cursor, limit := paginationParams(c, defaultPageLimit, maxPageLimit)
	items, next, err := h.collectionService.ListBySubject(c.Request.Context(), subject, cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CollectionListResponse{Items: items, NextCursor: next})
}

func (h *CollectionHandlers) Get(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	coll, err := h.collectionService.Get(c.Request.Context(), subject, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coll)
}

func (h *CollectionHandlers) Migrate(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.MigrateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	migrated, err := h.collectionService.Migrate(c.Request.Context(), subject, id, req.NewConfigurationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MigrateCollectionResponse{Migrated: migrated})
}

func (h *CollectionHandlers) PropertySchema(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	items, err := h.collectionService.PropertySchema(c.Request.Context(), subject, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.PropertySchemaItem{}
	}
	c.JSON(http.StatusOK, models.PropertySchemaResponse{Properties: items})
}
