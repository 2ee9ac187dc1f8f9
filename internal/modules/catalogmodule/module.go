// Package catalogmodule owns the upstream catalog client and exposes it
// to the other modules as the "catalog" service.
package catalogmodule

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/apiroutes"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/services"
	"gorm.io/gorm"
)

const (
	ModuleID   = "system.catalog"
	ModuleName = "Catalog Client"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module builds the catalog client from configuration
type Module struct {
	cfg    *config.CatalogConfig
	client *client.Client
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate is a no-op; the client keeps no rows
func (m *Module) Migrate(db *gorm.DB) error { return nil }

// ProvidedServices lists the services this module registers
func (m *Module) ProvidedServices() []string {
	return []string{services.CatalogServiceName}
}

// RegisterServices builds the client so dependents can resolve it during injection
func (m *Module) RegisterServices() error {
	if m.cfg == nil {
		cfg := config.Get().Catalog
		m.cfg = &cfg
	}
	if m.cfg.APIKey == "" {
		logger.Warn("no catalog api key configured, upstream requests will be rejected")
	}

	opts := client.OptionsFromConfig(*m.cfg)
	opts.Logger = logger.Named("catalog")

	c, err := client.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}
	m.client = c

	services.RegisterService(services.CatalogServiceName, c)
	return nil
}

// Init logs the effective client settings
func (m *Module) Init() error {
	logger.Info("catalog client ready",
		"base_url", m.cfg.BaseURL,
		"cache_enabled", m.cfg.CacheEnabled,
		"cache_ttl", m.cfg.CacheTTL.String(),
		"cache_max_entries", m.cfg.CacheMaxEntries)
	return nil
}

// Client returns the module's catalog client
func (m *Module) Client() *client.Client {
	return m.client
}

// RegisterRoutes exposes the client status
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/catalog/status", m.status)
	apiroutes.Register(api.BasePath()+"/catalog/status", "GET", "Upstream catalog client status (breaker state, cache size)")
}

func (m *Module) status(c *gin.Context) {
	c.JSON(http.StatusOK, m.snapshot())
}

func (m *Module) snapshot() gin.H {
	out := gin.H{
		"breaker_state": m.client.BreakerState(),
		"cache_enabled": m.client.Cache() != nil,
	}
	if cache := m.client.Cache(); cache != nil {
		out["cache_entries"] = cache.Len()
	}
	return out
}

// HealthCheck reports degraded while the circuit breaker is not closed
func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	status := modulemanager.HealthStatus{
		Status:      modulemanager.HealthStateHealthy,
		LastChecked: time.Now(),
		Details:     m.snapshot(),
	}
	if m.client.BreakerState() != "closed" {
		status.Status = modulemanager.HealthStateDegraded
		status.Message = "upstream circuit breaker is " + m.client.BreakerState()
	}
	return status
}
