package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"taxrecon/internal/config"
	"taxrecon/internal/domain"
	"taxrecon/internal/handler"
	"taxrecon/internal/router"
	"taxrecon/internal/service"
	"taxrecon/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{MaxFileSizeMB: 1},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func engine(authSvc service.AuthService) *gin.Engine {
	return router.Setup(
		testConfig(),
		zerolog.Nop(),
		authSvc,
		handler.NewReconcileHandler(new(mocks.MockReconcileService), 1<<20),
		handler.NewHealthHandler(nil, ""),
	)
}

func TestSetup_HealthIsPublic(t *testing.T) {
	r := engine(new(mocks.MockAuthService))

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}
}

func TestSetup_ReconcileRequiresTokenWhenAuthEnabled(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateToken", "expired").Return(nil, domain.ErrUnauthorized)
	r := engine(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/reconciliations", http.NoBody)
	req.Header.Set("Authorization", "Bearer expired")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	authSvc.AssertExpectations(t)
}

func TestSetup_ReconcileOpenWhenAuthDisabled(t *testing.T) {
	r := engine(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/reconciliations", http.NoBody)
	r.ServeHTTP(w, req)

	// Reaches the handler, which rejects the empty upload.
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_FILE")
}

func TestSetup_UnknownRoute(t *testing.T) {
	r := engine(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/files", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
