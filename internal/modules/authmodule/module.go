// Package authmodule provides the bearer token guard as the "auth" service
package authmodule

import (
	"fmt"

	"github.com/mantonx/cinecache/internal/auth"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/services"
	"gorm.io/gorm"
)

const (
	ModuleID   = "system.auth"
	ModuleName = "Authentication"
)

func init() {
	modulemanager.Register(&Module{})
}

// Module wires the token manager and guard
type Module struct {
	db    *gorm.DB
	cfg   *config.SecurityConfig
	guard *auth.Guard
}

func (m *Module) ID() string                { return ModuleID }
func (m *Module) Name() string              { return ModuleName }
func (m *Module) Core() bool                { return true }
func (m *Module) Migrate(db *gorm.DB) error { return nil }

func (m *Module) ProvidedServices() []string {
	return []string{services.AuthServiceName}
}

// RegisterServices builds the guard before dependents are injected
func (m *Module) RegisterServices() error {
	if m.db == nil {
		m.db = database.GetDB()
	}
	if m.cfg == nil {
		cfg := config.Get().Security
		m.cfg = &cfg
	}

	tokens, err := auth.NewTokenManager(*m.cfg)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	m.guard = auth.NewGuard(tokens, m.db)

	services.RegisterService(services.AuthServiceName, m.guard)
	return nil
}

func (m *Module) Init() error {
	logger.Info("auth guard ready", "token_expiry", m.cfg.AccessTokenExpire.String())
	return nil
}
