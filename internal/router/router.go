package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"taxrecon/internal/config"
	"taxrecon/internal/handler"
	"taxrecon/internal/middleware"
	"taxrecon/internal/service"
)

// Setup configures the Gin engine with all routes and middleware. authSvc may
// be nil, in which case the API is served without authentication.
func Setup(
	cfg *config.Config,
	log zerolog.Logger,
	authSvc service.AuthService,
	reconcileH *handler.ReconcileHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = cfg.Upload.MaxBytes()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	if authSvc != nil {
		v1.Use(middleware.AuthMiddleware(authSvc))
	}

	v1.POST("/reconciliations", reconcileH.Create)

	return r
}
