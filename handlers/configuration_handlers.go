package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type ConfigurationHandlers struct {
	configurationService services.ConfigurationService
}

func NewConfigurationHandlers(configurationService services.ConfigurationService) *ConfigurationHandlers {
	return &ConfigurationHandlers{configurationService: configurationService}
}

func (h *ConfigurationHandlers) Create(c *gin.Context) {
	var req models.CreateConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	cfg, err := h.configurationService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *ConfigurationHandlers) List(c *gin.Context) {
	cursor, limit := paginationParams(c, defaultPageLimit, maxPageLimit)
	items, next, err := h.configurationService.List(c.Request.Context(), cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ConfigurationListResponse{Items: items, NextCursor: next})
}
