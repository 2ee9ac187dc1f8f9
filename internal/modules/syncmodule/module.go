// Package syncmodule reconciles the local catalog with the upstream provider
package syncmodule

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/modules/syncmodule/api"
	"github.com/mantonx/cinecache/internal/modules/syncmodule/service"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/views"
	"gorm.io/gorm"
)

const (
	ModuleID   = "system.sync"
	ModuleName = "Sync"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module owns the sync worker pool and the admin sync routes
type Module struct {
	sync      *service.SyncService
	guard     services.AuthGuard
	queueSize int
}

func (m *Module) ID() string                { return ModuleID }
func (m *Module) Name() string              { return ModuleName }
func (m *Module) Core() bool                { return false }
func (m *Module) Migrate(db *gorm.DB) error { return nil }
func (m *Module) Init() error               { return nil }

func (m *Module) RequiredServices() []string {
	return []string{
		services.GenreServiceName,
		services.MovieServiceName,
		services.TVShowServiceName,
		services.AuthServiceName,
	}
}

func (m *Module) InjectServices(available map[string]interface{}) error {
	genres, err := services.From[services.GenreService](available, services.GenreServiceName)
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
	guard, err := services.From[services.AuthGuard](available, services.AuthServiceName)
	if err != nil {
		return err
	}

	cfg := config.Get().Sync
	m.guard = guard
	m.queueSize = cfg.QueueSize
	m.sync = service.NewSyncService(genres, movies, tv, cfg.Workers, cfg.QueueSize, cfg.JobHistory, logger.Named("sync"))
	return nil
}

func (m *Module) RegisterRoutes(router *gin.RouterGroup) {
	images := views.NewImages(config.Get().Catalog.ImageBaseURL)
	api.RegisterRoutes(router, api.NewHandler(m.sync, images), m.guard)
}

func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	queued, running := m.sync.Pending()
	status := modulemanager.HealthStatus{
		Status:  modulemanager.HealthStateHealthy,
		Details: map[string]interface{}{"queued": queued, "running": running},
	}
	if m.queueSize > 0 && queued >= m.queueSize {
		status.Status = modulemanager.HealthStateDegraded
		status.Message = "sync queue is full"
	}
	return status
}

// Shutdown cancels background syncs and waits for the workers
func (m *Module) Shutdown(ctx context.Context) error {
	if m.sync == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		m.sync.Stop()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sync workers did not stop: %w", ctx.Err())
	}
}
