// Package apiroutes keeps a listing of the HTTP routes modules expose,
// served by the API discovery endpoint.
package apiroutes

import (
	"sort"
	"sync"
)

// APIRoute describes one registered endpoint
type APIRoute struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

type routeKey struct{ method, path string }

var (
	mu     sync.RWMutex
	routes = make(map[routeKey]string)
)

// Register adds a route to the listing. Registering the same method and
// path twice keeps the latest description.
func Register(path, method, description string) {
	mu.Lock()
	routes[routeKey{method: method, path: path}] = description
	mu.Unlock()
}

// Get returns the registered routes sorted by path then method
func Get() []APIRoute {
	mu.RLock()
	out := make([]APIRoute, 0, len(routes))
	for k, desc := range routes {
		out = append(out, APIRoute{Path: k.path, Method: k.method, Description: desc})
	}
	mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// ClearForTesting removes all registered routes
func ClearForTesting() {
	mu.Lock()
	routes = make(map[routeKey]string)
	mu.Unlock()
}
