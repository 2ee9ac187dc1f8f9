// Package usermodule provides accounts, watchlists and ratings
package usermodule

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/auth"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/modules/usermodule/api"
	"github.com/mantonx/cinecache/internal/modules/usermodule/service"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/mantonx/cinecache/internal/views"
	"gorm.io/gorm"
)

const (
	ModuleID   = "system.users"
	ModuleName = "Users"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module wires the user service and routes
type Module struct {
	db      *gorm.DB
	cfg     *config.Config
	guard   *auth.Guard
	service services.UserService
}

func (m *Module) ID() string                { return ModuleID }
func (m *Module) Name() string              { return ModuleName }
func (m *Module) Core() bool                { return true }
func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) ProvidedServices() []string {
	return []string{services.UserServiceName}
}

func (m *Module) RequiredServices() []string {
	return []string{services.AuthServiceName}
}

func (m *Module) RegisterServices() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.cfg == nil {
		m.cfg = config.Get()
	}

	guard, err := services.GetService[*auth.Guard](services.AuthServiceName)
	if err != nil {
		return fmt.Errorf("users: %w", err)
	}
	m.guard = guard

	m.service = service.NewUserService(m.db, guard.Tokens(), m.cfg.Security.BcryptCost, logger.Named("users"))
	services.RegisterService(services.UserServiceName, m.service)
	return nil
}

// Init seeds the configured first superuser
func (m *Module) Init() error {
	sec := m.cfg.Security
	if sec.FirstSuperuser == "" || sec.FirstSuperuserPassword == "" {
		logger.Debug("no first superuser configured")
		return nil
	}
	if err := m.service.EnsureSuperuser(context.Background(), sec.FirstSuperuser, sec.FirstSuperuserEmail, sec.FirstSuperuserPassword); err != nil {
		return fmt.Errorf("failed to seed first superuser: %w", err)
	}
	return nil
}

func (m *Module) RegisterRoutes(router *gin.RouterGroup) {
	images := views.NewImages(m.cfg.Catalog.ImageBaseURL)
	api.RegisterRoutes(router, api.NewHandler(m.service, images), m.guard)
}
