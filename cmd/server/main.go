package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"taxrecon/internal/config"
	"taxrecon/internal/handler"
	"taxrecon/internal/logger"
	"taxrecon/internal/port"
	"taxrecon/internal/router"
	"taxrecon/internal/service"
	s3storage "taxrecon/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var storage port.ObjectStorage
	if cfg.S3.ArchiveEnabled {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Workbook archiving enabled")
	}

	// Initialize services
	var authSvc service.AuthService
	if cfg.Auth.Enabled() {
		authSvc = service.NewAuthService(cfg.Auth)
	} else {
		log.Warn().Msg("No JWT secret configured - API is unauthenticated")
	}
	reconcileSvc := service.NewReconcileService(service.NewReconcileOptions(cfg), storage, log)

	// Initialize handlers
	reconcileH := handler.NewReconcileHandler(reconcileSvc, cfg.Upload.MaxBytes())
	healthH := handler.NewHealthHandler(storage, cfg.S3.Bucket)

	// Setup router
	r := router.Setup(cfg, log, authSvc, reconcileH, healthH)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited")
	return nil
}
