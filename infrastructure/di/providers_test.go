package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"collocation-backend/infrastructure/config"
	"collocation-backend/infrastructure/persistence"
	pkgerrors "collocation-backend/pkg/errors"
	"collocation-backend/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.StoreURI = "bolt://" + filepath.Join(dir, "vocabulary.db")
	cfg.SecretsFile = filepath.Join(dir, ".env")
	cfg.GeminiAPIKey = "AIza-env"
	cfg.LogLevel = "error"
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	cfg := testConfig(t)

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Same(t, cfg, container.Config)
	require.NoError(t, container.Repository.Ping(context.Background()))

	key, ok := container.Secrets.Get("GEMINI_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "AIza-env", key)

	rec := httptest.NewRecorder()
	container.Router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitializeContainerRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreURI = "mongodb://localhost:27017/vocabulary"

	_, _, err := InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProvideRepositoryUnopenableBolt(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	loc := persistence.StoreLocation{Driver: persistence.DriverBolt, Path: dir}

	repo, cleanup, err := ProvideRepository(context.Background(), cfg, loc,
		observability.NewCollector("test"), ProvideXRayTracer(), zap.NewNop())
	require.NoError(t, err, "an unreachable store is not fatal")
	defer cleanup()

	err = repo.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase))
}

func TestProvideLogger(t *testing.T) {
	cfg := config.Defaults()
	cfg.LogLevel = "debug"
	logger, err := ProvideLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	cfg.LogLevel = "loud"
	_, err = ProvideLogger(cfg)
	assert.Error(t, err)
}

func TestProvideGenerateLimiter(t *testing.T) {
	cfg := config.Defaults()
	assert.NotNil(t, ProvideGenerateLimiter(cfg))

	cfg.GenerateRateLimit = 0
	assert.Nil(t, ProvideGenerateLimiter(cfg))
}
