// Package navigation defines the two screen graphs and the router that picks between them.
package navigation

import (
	"sync"

	"github.com/pkg/errors"
)

// Route names a screen.
type Route string

const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"
	RouteHome     Route = "home"
	RouteProfile  Route = "profile"
)

// ErrUnknownRoute is returned when a route is not part of the selected graph.
var ErrUnknownRoute = errors.New("route not in current graph")

// Graph is a fixed set of screens with a start screen.
type Graph struct {
	Name   string
	Start  Route
	Routes []Route
}

// Contains reports whether route belongs to g.
func (g Graph) Contains(route Route) bool {
	for _, r := range g.Routes {
		if r == route {
			return true
		}
	}
	return false
}

var (
	AuthGraph = Graph{Name: "auth", Start: RouteLogin, Routes: []Route{RouteLogin, RouteRegister}}
	HomeGraph = Graph{Name: "home", Start: RouteHome, Routes: []Route{RouteHome, RouteProfile}}
)

// Router tracks the selected graph and the current screen within it.
type Router struct {
	mu      sync.RWMutex
	graph   Graph
	current Route
}

// NewRouter starts at the start screen of g.
func NewRouter(g Graph) *Router {
	return &Router{graph: g, current: g.Start}
}

// Select switches to g and resets to its start screen.
func (r *Router) Select(g Graph) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graph = g
	r.current = g.Start
}

// Navigate moves to route inside the selected graph.
func (r *Router) Navigate(route Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.graph.Contains(route) {
		return errors.Wrapf(ErrUnknownRoute, "%s in %s", route, r.graph.Name)
	}
	r.current = route
	return nil
}

func (r *Router) Graph() Graph {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.graph
}

func (r *Router) Current() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
