package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type SystemHandlers struct {
	db       *gorm.DB
	embedder services.EmbeddingService
}

func NewSystemHandlers(db *gorm.DB, embedder services.EmbeddingService) *SystemHandlers {
	return &SystemHandlers{db: db, embedder: embedder}
}

func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready answers 200 only when the database accepts connections.
func (h *SystemHandlers) Ready(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *SystemHandlers) ListModels(c *gin.Context) {
	items, err := h.embedder.ListModels(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.EmbeddingModelListResponse{Items: items})
}
