package catalogmodule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleRegistersCatalogService(t *testing.T) {
	services.ResetForTesting()
	t.Cleanup(services.ResetForTesting)

	m := &Module{cfg: &config.CatalogConfig{
		BaseURL:         "http://upstream.test",
		CacheEnabled:    true,
		CacheTTL:        time.Minute,
		CacheMaxEntries: 8,
	}}
	require.NoError(t, m.RegisterServices())
	require.NoError(t, m.Init())

	c, err := services.GetService[*client.Client](services.CatalogServiceName)
	require.NoError(t, err)
	assert.Same(t, m.Client(), c)

	health := m.HealthCheck(context.Background())
	assert.Equal(t, modulemanager.HealthStateHealthy, health.Status)
	assert.Equal(t, 0, health.Details["cache_entries"])
}

func TestStatusRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	services.ResetForTesting()
	t.Cleanup(services.ResetForTesting)

	m := &Module{cfg: &config.CatalogConfig{BaseURL: "http://upstream.test"}}
	require.NoError(t, m.RegisterServices())

	r := gin.New()
	m.RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/catalog/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "closed", body["breaker_state"])
	assert.Equal(t, false, body["cache_enabled"])
}
