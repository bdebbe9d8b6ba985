package commands

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"taskflow/internal/guard"
)

// Registry holds registered commands and the screens they stand for.
type Registry struct {
	mu     sync.RWMutex
	cmds   map[string]Command // name and aliases map to command
	routes map[guard.Route]string
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		cmds:   make(map[string]Command),
		routes: make(map[guard.Route]string),
	}
}

// Register adds a command to the registry.
// Returns an error if the name or any alias is already registered.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{c.Name()}, c.Aliases()...)
	for _, name := range names {
		if _, exists := r.cmds[name]; exists {
			return fmt.Errorf("command already registered: %s", name)
		}
	}
	for _, name := range names {
		r.cmds[name] = c
	}
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// Mount makes the command called name the screen for route.
func (r *Registry) Mount(route guard.Route, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route] = name
}

// ForRoute returns the command mounted on route.
func (r *Registry) ForRoute(route guard.Route) (Command, bool) {
	r.mu.RLock()
	name, ok := r.routes[route]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.Find(name)
}

// All returns all unique commands sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]Command)
	for _, cmd := range r.cmds {
		seen[cmd.Name()] = cmd
	}

	result := make([]Command, 0, len(seen))
	for _, name := range slices.Sorted(maps.Keys(seen)) {
		result = append(result, seen[name])
	}
	return result
}

// DefaultRegistry is the global command registry.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}

// Mount is Registry.Mount on the default registry.
func Mount(route guard.Route, name string) {
	DefaultRegistry.Mount(route, name)
}

// commandFor names the command to run for a route, for hints.
func commandFor(route guard.Route) string {
	if cmd, ok := DefaultRegistry.ForRoute(route); ok {
		return "taskflow " + cmd.Name()
	}
	return string(route)
}
