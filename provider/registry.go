package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the named factories for one capability. Backends are
// registered at wiring time and configuration selects one by name; the
// registry itself never constructs a backend unasked.
type Registry[T Provider] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates an empty Registry.
func NewRegistry[T Provider]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// RegisterFactory makes a backend constructible under name. Registering
// the same name again replaces the earlier factory.
func (r *Registry[T]) RegisterFactory(name string, factory Factory[T]) {
	r.mu.Lock()
	r.factories[name] = factory
	r.mu.Unlock()
}

// Create builds a provider with the named factory and its options.
func (r *Registry[T]) Create(name string, opts map[string]any) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("no %q backend registered", name)
	}
	return factory(opts)
}

// List returns the registered backend names, sorted.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
