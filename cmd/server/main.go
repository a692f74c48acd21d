package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/openlms/file-service/internal/api"
	"github.com/openlms/file-service/internal/api/handlers"
	"github.com/openlms/file-service/internal/api/middleware"
	"github.com/openlms/file-service/internal/configuration"
	"github.com/openlms/file-service/internal/services"
	"github.com/openlms/file-service/internal/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "lms-file-service").Logger()

	cfg, err := configuration.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.TracingEnabled {
		tracer.Start(tracer.WithService("lms-file-service"))
		defer tracer.Stop()
	}

	registry, err := storage.BuildRegistry(cfg.RegistryConfig(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build storage backends")
	}

	store := openMetadataStore(cfg, logger)

	var events *services.EventBus
	if cfg.NATSURL != "" {
		events, err = services.ConnectEventBus(cfg.NATSURL, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("event bus unavailable, continuing without events")
			events = nil
		} else {
			defer events.Close()
		}
	}

	fileService := services.NewFileService(cfg.Upload, registry, store, events, logger)
	if cfg.ClamAVURL != "" {
		fileService.AttachScanner(services.NewScanner(cfg.ClamAVURL, store, registry, logger))
	}

	auth, err := middleware.NewAuthenticator(context.Background(), cfg.OIDCIssuerURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("issuer", cfg.OIDCIssuerURL).Msg("failed to initialize OIDC verifier")
	}

	handler := handlers.NewHandler(fileService, logger)
	if events != nil {
		if _, err := events.Subscribe(services.SubjectUserDeleted, "file-service-user-purge", handler.HandleUserDeleted); err != nil {
			logger.Warn().Err(err).Msg("failed to subscribe to user deletions")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.RegisterRoutes(r, handler, auth, cfg.TracingEnabled)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
}

// openMetadataStore prefers PostgreSQL and degrades to the JSON file store
// so the service still comes up when the database is unreachable.
func openMetadataStore(cfg *configuration.Config, logger zerolog.Logger) services.MetadataStore {
	store, err := services.NewPostgresStore(cfg.Database.ConnectionString())
	if err == nil {
		logger.Info().Msg("connected to PostgreSQL")
		return store
	}
	logger.Warn().Err(err).Msg("PostgreSQL unavailable, using JSON metadata store")

	jsonStore, err := services.NewJSONStore("file_metadata.json")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open JSON metadata store")
	}
	return jsonStore
}
