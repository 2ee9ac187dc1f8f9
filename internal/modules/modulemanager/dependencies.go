package modulemanager

import (
	"fmt"
	"sort"

	"github.com/mantonx/cinecache/internal/logger"
)

// DependencyProvider is an optional interface for modules that depend on
// other modules by ID rather than through a service
type DependencyProvider interface {
	Dependencies() []string
}

// ServiceProvider is an optional interface for modules that register
// services in RegisterServices
type ServiceProvider interface {
	ProvidedServices() []string
}

// ServiceConsumer is an optional interface for modules that look services
// up during RegisterServices or InjectServices
type ServiceConsumer interface {
	RequiredServices() []string
}

// ModuleDependencyGraph orders modules so every service provider is
// loaded before its consumers
type ModuleDependencyGraph struct {
	modules   map[string]Module
	deps      map[string][]string // module ID -> module IDs it needs first
	providers map[string]string   // service name -> providing module ID
	missing   []error
	order     []string
}

// BuildDependencyGraph resolves service requirements to module edges and
// fails on unknown modules, doubly provided services and cycles
func BuildDependencyGraph(modules map[string]Module) (*ModuleDependencyGraph, error) {
	g := &ModuleDependencyGraph{
		modules:   modules,
		deps:      make(map[string][]string, len(modules)),
		providers: make(map[string]string),
	}

	for _, id := range sortedIDs(modules) {
		sp, ok := modules[id].(ServiceProvider)
		if !ok {
			continue
		}
		for _, name := range sp.ProvidedServices() {
			if other, dup := g.providers[name]; dup {
				return nil, fmt.Errorf("service '%s' is provided by multiple modules: %s and %s", name, other, id)
			}
			g.providers[name] = id
		}
	}

	for _, id := range sortedIDs(modules) {
		m := modules[id]
		var deps []string
		if dp, ok := m.(DependencyProvider); ok {
			for _, dep := range dp.Dependencies() {
				if _, exists := modules[dep]; !exists {
					return nil, fmt.Errorf("module %s depends on non-existent module %s", id, dep)
				}
				deps = append(deps, dep)
			}
		}
		if sc, ok := m.(ServiceConsumer); ok {
			for _, name := range sc.RequiredServices() {
				provider, found := g.providers[name]
				switch {
				case !found:
					g.missing = append(g.missing, fmt.Errorf("module %s requires service '%s' but no provider found", id, name))
				case provider != id:
					deps = append(deps, provider)
				}
			}
		}
		g.deps[id] = dedupe(deps)
	}

	order, err := g.topologicalOrder()
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// topologicalOrder is Kahn's algorithm; ties are broken by module ID so
// the load order is stable across runs
func (g *ModuleDependencyGraph) topologicalOrder() ([]string, error) {
	pending := make(map[string]int, len(g.deps))
	dependents := make(map[string][]string)
	for id, deps := range g.deps {
		pending[id] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for id, n := range pending {
		if n == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(g.deps))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, next := range dependents[id] {
			pending[next]--
			if pending[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) < len(g.deps) {
		var stuck []string
		for id, n := range pending {
			if n > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("circular dependency detected among modules %v", stuck)
	}
	return order, nil
}

// GetInitializationOrder returns the modules providers-first
func (g *ModuleDependencyGraph) GetInitializationOrder() ([]Module, error) {
	out := make([]Module, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.modules[id])
	}
	return out, nil
}

// ValidateServiceRequirements lists requirements nobody provides. These
// are warnings: the consumer fails in InjectServices if it cannot cope.
func (g *ModuleDependencyGraph) ValidateServiceRequirements() []error {
	return g.missing
}

// LogDependencyInfo logs the resolved order at debug level
func (g *ModuleDependencyGraph) LogDependencyInfo() {
	for i, id := range g.order {
		logger.Debug("module dependencies", "module", id, "depends_on", g.deps[id], "init_order", i+1)
	}
}

func sortedIDs(modules map[string]Module) []string {
	ids := make([]string, 0, len(modules))
	for id := range modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
