// Package moviemodule provides movie storage, search and reconciliation
package moviemodule

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/modules/moviemodule/api"
	"github.com/mantonx/cinecache/internal/modules/moviemodule/service"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/views"
	"gorm.io/gorm"
)

const (
	ModuleID   = "system.movies"
	ModuleName = "Movies"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module wires the movie service and routes
type Module struct {
	db      *gorm.DB
	service services.MovieService
	guard   services.AuthGuard
}

func (m *Module) ID() string                { return ModuleID }
func (m *Module) Name() string              { return ModuleName }
func (m *Module) Core() bool                { return true }
func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) ProvidedServices() []string {
	return []string{services.MovieServiceName}
}

func (m *Module) RequiredServices() []string {
	return []string{services.CatalogServiceName, services.GenreServiceName, services.AuthServiceName}
}

func (m *Module) RegisterServices() error {
	if m.db == nil {
		m.db = database.GetDB()
	}

	catalog, err := services.GetService[*client.Client](services.CatalogServiceName)
	if err != nil {
		return fmt.Errorf("movies: %w", err)
	}
	genres, err := services.GetService[services.GenreService](services.GenreServiceName)
	if err != nil {
		return fmt.Errorf("movies: %w", err)
	}

	m.service = service.NewMovieService(m.db, catalog, genres, logger.Named("movies"))
	services.RegisterService(services.MovieServiceName, m.service)
	return nil
}

func (m *Module) InjectServices(available map[string]interface{}) error {
	guard, err := services.From[services.AuthGuard](available, services.AuthServiceName)
	if err != nil {
		return err
	}
	m.guard = guard
	return nil
}

func (m *Module) Init() error {
	return nil
}

func (m *Module) RegisterRoutes(router *gin.RouterGroup) {
	images := views.NewImages(config.Get().Catalog.ImageBaseURL)
	api.RegisterRoutes(router, api.NewHandler(m.service, images), m.guard)
}
