package modulemanager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/services"
	"gorm.io/gorm"
)

// ModuleRegistry manages module registration and initialization
type ModuleRegistry struct {
	modules         map[string]Module
	disabledModules map[string]bool
	initOrder       []Module
	mu              sync.RWMutex
	initialized     bool
}

// Registry is the global module registry
var Registry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		modules:         make(map[string]Module),
		disabledModules: make(map[string]bool),
	}
}

// Register adds a module to the global registry
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module registered after initialization", "module", m.ID())
	}

	r.modules[m.ID()] = m
	logger.Debug("module registered", "module", m.ID(), "name", m.Name())
}

// LoadAll initializes all modules of the global registry
func LoadAll(db *gorm.DB, disabled []string) error {
	return Registry.LoadAll(db, disabled)
}

// LoadAll initializes all registered modules in dependency order.
// Modules listed in disabled are skipped; disabling a core module is an error.
func (r *ModuleRegistry) LoadAll(db *gorm.DB, disabled []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("module system already initialized")
		return nil
	}

	for _, id := range disabled {
		r.disabledModules[id] = true
	}

	enabledModules := make(map[string]Module)
	for id, module := range r.modules {
		if r.disabledModules[id] {
			if module.Core() {
				return fmt.Errorf("attempted to disable core module: %s", id)
			}
			logger.Warn("skipping disabled module", "module", id)
			continue
		}
		enabledModules[id] = module
	}

	depGraph, err := BuildDependencyGraph(enabledModules)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}

	for _, warn := range depGraph.ValidateServiceRequirements() {
		logger.Warn("service requirement warning", "error", warn)
	}

	initOrder, err := depGraph.GetInitializationOrder()
	if err != nil {
		return fmt.Errorf("failed to determine initialization order: %w", err)
	}
	depGraph.LogDependencyInfo()

	// Phase 1: services other modules depend on
	for _, module := range initOrder {
		if registrar, ok := module.(ServiceRegistrar); ok {
			if err := registrar.RegisterServices(); err != nil {
				return fmt.Errorf("failed to register services for %s: %w", module.Name(), err)
			}
		}
	}

	// Phase 2: injection
	availableServices := services.Snapshot()
	for _, module := range initOrder {
		if injector, ok := module.(ServiceInjector); ok {
			if err := injector.InjectServices(availableServices); err != nil {
				return fmt.Errorf("failed to inject services for %s: %w", module.Name(), err)
			}
		}
	}

	// Phase 3: migrate and init
	for i, module := range initOrder {
		logger.Info("initializing module", "module", module.ID(), "step", fmt.Sprintf("%d/%d", i+1, len(initOrder)))

		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}
		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}
	}

	r.initOrder = initOrder
	r.initialized = true
	return nil
}

// RegisterRoutes registers routes of the global registry
func RegisterRoutes(api *gin.RouterGroup) {
	Registry.RegisterRoutes(api)
}

// RegisterRoutes registers routes for every loaded module that implements
// RouteRegistrar, in initialization order
func (r *ModuleRegistry) RegisterRoutes(api *gin.RouterGroup) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, module := range r.initOrder {
		if routeRegistrar, ok := module.(RouteRegistrar); ok {
			logger.Debug("registering routes", "module", module.ID())
			routeRegistrar.RegisterRoutes(api)
		}
	}
}

// HealthCheck collects the status of every loaded HealthChecker
func HealthCheck(ctx context.Context) map[string]HealthStatus {
	return Registry.HealthCheck(ctx)
}

// HealthCheck collects the status of every loaded HealthChecker
func (r *ModuleRegistry) HealthCheck(ctx context.Context) map[string]HealthStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]HealthStatus)
	for _, module := range r.initOrder {
		if checker, ok := module.(HealthChecker); ok {
			status := checker.HealthCheck(ctx)
			if status.LastChecked.IsZero() {
				status.LastChecked = time.Now()
			}
			out[module.ID()] = status
		}
	}
	return out
}

// Shutdown stops modules of the global registry
func Shutdown(ctx context.Context) error {
	return Registry.Shutdown(ctx)
}

// Shutdown stops loaded modules in reverse initialization order. Every
// module is given the chance to stop; the first error is returned.
func (r *ModuleRegistry) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var firstErr error
	for i := len(r.initOrder) - 1; i >= 0; i-- {
		if s, ok := r.initOrder[i].(Shutdowner); ok {
			if err := s.Shutdown(ctx); err != nil {
				logger.Error("module shutdown failed", "module", r.initOrder[i].ID(), "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// GetModule returns a module by ID
func GetModule(id string) (Module, bool) {
	return Registry.GetModule(id)
}

// GetModule returns a module by ID
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, exists := r.modules[id]
	return module, exists
}

// ListModules returns all registered modules sorted by ID
func ListModules() []Module {
	return Registry.ListModules()
}

// ListModules returns all registered modules sorted by ID
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modules := make([]Module, 0, len(r.modules))
	for _, module := range r.modules {
		modules = append(modules, module)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID() < modules[j].ID() })
	return modules
}
