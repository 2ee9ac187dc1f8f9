// Package searchmodule provides local-first search with upstream fallback
package searchmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/catalogmodule/client"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/modules/searchmodule/api"
	"github.com/mantonx/cinecache/internal/modules/searchmodule/service"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/views"
	"gorm.io/gorm"
)

const (
	ModuleID   = "system.search"
	ModuleName = "Search"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module wires the search service and routes
type Module struct {
	search *service.SearchService
}

func (m *Module) ID() string                { return ModuleID }
func (m *Module) Name() string              { return ModuleName }
func (m *Module) Core() bool                { return false }
func (m *Module) Migrate(db *gorm.DB) error { return nil }
func (m *Module) Init() error               { return nil }

func (m *Module) RequiredServices() []string {
	return []string{services.CatalogServiceName, services.MovieServiceName, services.TVShowServiceName}
}

func (m *Module) InjectServices(available map[string]interface{}) error {
	catalog, err := services.From[*client.Client](available, services.CatalogServiceName)
	if err != nil {
		return err
	}
	movies, err := services.From[services.MovieService](available, services.MovieServiceName)
	if err != nil {
		return err
	}
	tv, err := services.From[services.TVShowService](available, services.TVShowServiceName)
	if err != nil {
		return err
	}

	m.search = service.NewSearchService(catalog, movies, tv, logger.Named("search"))
	return nil
}

func (m *Module) RegisterRoutes(router *gin.RouterGroup) {
	images := views.NewImages(config.Get().Catalog.ImageBaseURL)
	api.RegisterRoutes(router, api.NewHandler(m.search, images))
}
