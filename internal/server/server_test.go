package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubModule struct {
	health   modulemanager.HealthState
	stopped  bool
	initDone bool
}

func (m *stubModule) ID() string                { return "test.stub" }
func (m *stubModule) Name() string              { return "Stub" }
func (m *stubModule) Core() bool                { return false }
func (m *stubModule) Migrate(db *gorm.DB) error { return nil }
func (m *stubModule) Init() error               { m.initDone = true; return nil }

func (m *stubModule) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stub", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	apiroutes.Register(router.BasePath()+"/stub", "GET", "Stub route")
}

func (m *stubModule) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	return modulemanager.HealthStatus{Status: m.health}
}

func (m *stubModule) Shutdown(ctx context.Context) error {
	m.stopped = true
	return nil
}

func setup(t *testing.T, stub *stubModule) (*Server, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	apiroutes.ClearForTesting()

	cfg := config.DefaultConfig()
	cfg.Project.Name = "cinecache"
	cfg.Project.Version = "1.2.3"
	cfg.Server.EnableMetrics = true

	registry := modulemanager.NewRegistry()
	registry.Register(stub)

	db := testutil.NewTestDB(t)
	s, err := newServer(cfg, db, registry)
	require.NoError(t, err)
	return s, db
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRootAndHealth(t *testing.T) {
	s, _ := setup(t, &stubModule{health: modulemanager.HealthStateHealthy})

	w := get(s, "/")
	require.Equal(t, http.StatusOK, w.Code)
	var root map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))
	assert.Equal(t, "1.2.3", root["version"])
	assert.Equal(t, "/api", root["docs"])
	assert.Contains(t, root["message"], "cinecache")

	w = get(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestModuleRoutesUnderPrefix(t *testing.T) {
	stub := &stubModule{health: modulemanager.HealthStateHealthy}
	s, _ := setup(t, stub)
	assert.True(t, stub.initDone)

	assert.Equal(t, http.StatusOK, get(s, "/api/stub").Code)
	assert.Equal(t, http.StatusNotFound, get(s, "/stub").Code)

	w := get(s, "/api")
	require.Equal(t, http.StatusOK, w.Code)
	var routes []apiroutes.APIRoute
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &routes))
	paths := make([]string, 0, len(routes))
	for _, r := range routes {
		paths = append(paths, r.Path)
	}
	assert.Contains(t, paths, "/api/stub")
	assert.Contains(t, paths, "/api/health/system")
}

func TestSystemHealth(t *testing.T) {
	s, db := setup(t, &stubModule{health: modulemanager.HealthStateDegraded})

	w := get(s, "/api/health/system")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report SystemHealth
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "degraded", report.Status)
	assert.Equal(t, "ok", report.Database.Status)
	assert.NotNil(t, report.Database.Pool)
	assert.Contains(t, report.Modules, "test.stub")
	assert.Positive(t, report.Process.Goroutines)
	assert.Positive(t, report.Host.CPUCount)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w = get(s, "/api/health/system")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "unhealthy", report.Status)
	assert.Equal(t, "unreachable", report.Database.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := setup(t, &stubModule{health: modulemanager.HealthStateHealthy})
	get(s, "/api/stub")

	w := get(s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cinecache_http_requests_total{method="GET",route="/api/stub",status="200"}`)
}

func TestShutdownStopsModules(t *testing.T) {
	stub := &stubModule{health: modulemanager.HealthStateHealthy}
	s, _ := setup(t, stub)

	require.NoError(t, s.Shutdown(context.Background()))
	assert.True(t, stub.stopped)
}
