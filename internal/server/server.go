// Package server assembles the HTTP router and owns the process lifecycle
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/api"
	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/middleware"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/mantonx/cinecache/internal/services"
	"gorm.io/gorm"

	// Import all modules to trigger their registration
	_ "github.com/mantonx/cinecache/internal/modules/authmodule"
	_ "github.com/mantonx/cinecache/internal/modules/catalogmodule"
	_ "github.com/mantonx/cinecache/internal/modules/genremodule"
	_ "github.com/mantonx/cinecache/internal/modules/moviemodule"
	_ "github.com/mantonx/cinecache/internal/modules/searchmodule"
	_ "github.com/mantonx/cinecache/internal/modules/syncmodule"
	_ "github.com/mantonx/cinecache/internal/modules/tvmodule"
	_ "github.com/mantonx/cinecache/internal/modules/usermodule"
)

// Server is the HTTP front of the catalog
type Server struct {
	cfg     *config.Config
	modules *modulemanager.ModuleRegistry
	tx      *database.TransactionManager
	router  *gin.Engine
	http    *http.Server
	started time.Time
}

// New loads every registered module and builds the router
func New(cfg *config.Config, db *gorm.DB) (*Server, error) {
	return newServer(cfg, db, modulemanager.Registry)
}

func newServer(cfg *config.Config, db *gorm.DB, modules *modulemanager.ModuleRegistry) (*Server, error) {
	if err := modules.LoadAll(db, cfg.Modules.Disabled); err != nil {
		return nil, fmt.Errorf("failed to initialize modules: %w", err)
	}
	logModuleStatus(modules)

	s := &Server{
		cfg:     cfg,
		modules: modules,
		tx:      database.NewTransactionManager(db),
		started: time.Now(),
	}
	s.router = s.setupRouter()
	s.http = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return s, nil
}

// Router returns the configured gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	if s.cfg.Project.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		api.ErrorMiddleware(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.ErrorLogger(),
		middleware.CORS(s.cfg.Server.CORSOrigins),
	)
	if s.cfg.Server.EnableMetrics {
		r.Use(middleware.Metrics())
	}

	s.setupRoutes(r)
	return r
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is
// not reported as an error.
func (s *Server) ListenAndServe() error {
	logger.Info("starting server", "addr", s.http.Addr, "api_prefix", s.cfg.Server.APIPrefix)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP connections, then stops modules in reverse order
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := s.http.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		firstErr = err
	}
	if err := s.modules.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// logModuleStatus logs the loaded modules
func logModuleStatus(modules *modulemanager.ModuleRegistry) {
	list := modules.ListModules()
	logger.Info("module system initialized", "modules", len(list), "services", services.ListServices())
	for _, module := range list {
		logger.Info("module loaded", "id", module.ID(), "name", module.Name(), "core", module.Core())
	}
}
