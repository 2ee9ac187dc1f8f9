// Package services is the registry modules use to reach each other's
// functionality without importing one another.
package services

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps service names to implementations
type Registry struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]interface{})}
}

var global = NewRegistry()

// Put stores svc under name, replacing any earlier entry
func (r *Registry) Put(name string, svc interface{}) {
	r.mu.Lock()
	r.entries[name] = svc
	r.mu.Unlock()
}

// Snapshot copies the current entries
func (r *Registry) Snapshot() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]interface{}, len(r.entries))
	for name, svc := range r.entries {
		out[name] = svc
	}
	return out
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// From looks name up in a snapshot and asserts it to T
func From[T any](available map[string]interface{}, name string) (T, error) {
	var zero T
	svc, ok := available[name]
	if !ok {
		return zero, fmt.Errorf("service '%s' not found", name)
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service '%s' has wrong type %T", name, svc)
	}
	return typed, nil
}

// RegisterService adds a service to the global registry
func RegisterService[T any](name string, svc T) {
	global.Put(name, svc)
}

// GetService reads a service from the global registry
func GetService[T any](name string) (T, error) {
	return From[T](global.Snapshot(), name)
}

// ListServices returns the names in the global registry
func ListServices() []string {
	return global.Names()
}

// Snapshot copies the global registry
func Snapshot() map[string]interface{} {
	return global.Snapshot()
}

// ResetForTesting empties the global registry
func ResetForTesting() {
	global.mu.Lock()
	global.entries = make(map[string]interface{})
	global.mu.Unlock()
}
