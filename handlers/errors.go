package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/relrag-api/apperr"
)

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are logged and answered with a minimal 500 payload.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("request failed")
		c.JSON(status, gin.H{"error": kind.String()})
		return
	}
	c.JSON(status, gin.H{"error": kind.String(), "message": err.Error()})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindDuplicateDocument:
		return http.StatusConflict
	case apperr.KindUpstreamFailure:
		return http.StatusBadGateway
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseUUIDParam reads a path parameter as a UUID or answers 400.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// paginationParams reads ?cursor and ?limit with the listing cap applied.
func paginationParams(c *gin.Context, defaultLimit, maxLimit int) (*string, int) {
	var cursor *string
	if v := c.Query("cursor"); v != "" {
		cursor = &v
	}
	limit := defaultLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return cursor, limit
}
