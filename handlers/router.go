package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/relrag-api/auth"
	"github.com/relrag-api/config"
)

// Handlers groups the handler sets the router mounts.
type Handlers struct {
	System        *SystemHandlers
	Configuration *ConfigurationHandlers
	Collection    *CollectionHandlers
	Permission    *PermissionHandlers
	Document      *DocumentHandlers
	Search        *SearchHandlers
}

// SetupRouter mounts the API under /v1. Health endpoints are open; everything
// else requires a valid bearer token.
func SetupRouter(cfg *config.ServerConfig, validator auth.TokenValidator, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", h.System.Health)
	router.GET("/health/ready", h.System.Ready)

	v1 := router.Group("/v1")
	v1.Use(auth.Middleware(validator))
	{
		v1.GET("/models", h.System.ListModels)

		v1.POST("/configurations", h.Configuration.Create)
		v1.GET("/configurations", h.Configuration.List)

		v1.POST("/collections", h.Collection.Create)
		v1.GET("/collections", h.Collection.List)
		v1.GET("/collections/:id", h.Collection.Get)
		v1.POST("/collections/:id/migrate", h.Collection.Migrate)
		v1.GET("/collections/:id/property-schema", h.Collection.PropertySchema)
		v1.POST("/collections/:id/search", h.Search.Search)

		v1.GET("/collections/:id/permissions", h.Permission.List)
		v1.POST("/collections/:id/permissions", h.Permission.Assign)
		v1.DELETE("/collections/:id/permissions/:subject", h.Permission.Revoke)

		v1.POST("/documents", h.Document.Ingest)
		v1.POST("/documents/stream", h.Document.IngestStream)
		v1.GET("/documents/:id", h.Document.Get)
	}

	return router
}
