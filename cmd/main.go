package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/relrag-api/auth"
	"github.com/relrag-api/config"
	"github.com/relrag-api/handlers"
	"github.com/relrag-api/repository"
	"github.com/relrag-api/services/impl"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg.Logging.Level)

	db, err := initDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	uowFactory := repository.NewUnitOfWorkFactory(db)

	cacheService := impl.NewCacheService(&cfg.Redis)
	embeddingService := impl.NewEmbeddingService(&cfg.Embedding)
	chunker := impl.NewChunker()
	checker := impl.NewPermissionChecker(uowFactory)

	documentService := impl.NewDocumentService(uowFactory, checker, chunker, embeddingService, cacheService)
	searchService := impl.NewSearchService(uowFactory, checker, embeddingService)
	collectionService := impl.NewCollectionService(uowFactory, checker, chunker, embeddingService, cacheService)
	configurationService := impl.NewConfigurationService(uowFactory, embeddingService)
	permissionService := impl.NewPermissionService(uowFactory, checker)

	validator := auth.NewValidator(&cfg.Keycloak)
	router := handlers.SetupRouter(&cfg.Server, validator, handlers.Handlers{
		System:        handlers.NewSystemHandlers(db, embeddingService),
		Configuration: handlers.NewConfigurationHandlers(configurationService),
		Collection:    handlers.NewCollectionHandlers(collectionService),
		Permission:    handlers.NewPermissionHandlers(permissionService),
		Document:      handlers.NewDocumentHandlers(documentService),
		Search:        handlers.NewSearchHandlers(searchService),
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.GetServerAddress()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func initDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	// TranslateError turns unique violations into gorm.ErrDuplicatedKey,
	// which the dedup retry path depends on.
	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.PoolTimeout)*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
