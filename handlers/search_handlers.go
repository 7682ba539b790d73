package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/relrag-api/models"
	"github.com/relrag-api/services"
)

type SearchHandlers struct {
	searchService services.SearchService
}

func NewSearchHandlers(searchService services.SearchService) *SearchHandlers {
	return &SearchHandlers{searchService: searchService}
}

func (h *SearchHandlers) Search(c *gin.Context) {
	subject, ok := subjectFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	results, err := h.searchService.Search(c.Request.Context(), subject, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	c.JSON(http.StatusOK, models.SearchResponse{Results: results})
}
