// Package genremodule provides the genre taxonomy service and endpoints
package genremodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/modules/genremodule/api"
	"github.com/mantonx/cinecache/internal/modules/genremodule/service"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/services"
	"gorm.io/gorm"
)

const (
	ModuleID   = "system.genres"
	ModuleName = "Genres"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module wires the genre service and routes
type Module struct {
	db      *gorm.DB
	service services.GenreService
	guard   services.AuthGuard
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return ModuleName }
func (m *Module) Core() bool   { return true }

// Migrate is a no-op; genre tables are part of the shared schema
func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) ProvidedServices() []string {
	return []string{services.GenreServiceName}
}

func (m *Module) RequiredServices() []string {
	return []string{services.CatalogServiceName, services.AuthServiceName}
}

// RegisterServices creates the genre service. The catalog client is already
// registered since required services order the providers first.
func (m *Module) RegisterServices() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	catalog, err := services.GetService[*client.Client](services.CatalogServiceName)
	if err != nil {
		return fmt.Errorf("genres: %w", err)
	}

	m.service = service.NewGenreService(m.db, catalog, logger.Named("genres"))
	services.RegisterService(services.GenreServiceName, m.service)
	return nil
}

// InjectServices resolves the auth guard
func (m *Module) InjectServices(available map[string]interface{}) error {
	guard, err := services.From[services.AuthGuard](available, services.AuthServiceName)
	if err != nil {
		return err
	}
	m.guard = guard
	return nil
}

func (m *Module) Init() error {
	logger.Info("genre service ready")
	return nil
}

func (m *Module) RegisterRoutes(router *gin.RouterGroup) {
	api.RegisterRoutes(router, api.NewHandler(m.service), m.guard)
}
