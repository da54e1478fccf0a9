package deflate

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps backend names to backends.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates a registry holding the built-in backends. The zopfli
// backend runs iterations passes (DefaultIterations when < 1).
func NewRegistry(iterations int) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range []Backend{Fast(), Best(), Zopfli(iterations)} {
		r.Register(b)
	}
	return r
}

// Register adds or replaces a backend under its own name.
func (r *Registry) Register(b Backend) {
	r.backends[strings.ToLower(b.Name())] = b
}

// Get returns the backend for name, or nil if none is registered.
func (r *Registry) Get(name string) Backend {
	return r.backends[strings.ToLower(name)]
}

// Lookup is Get with an error for unknown names.
func (r *Registry) Lookup(name string) (Backend, error) {
	if b := r.Get(name); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("unknown compression backend %q (have %s)", name, strings.Join(r.Names(), ", "))
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// String returns a summary of registered backends.
func (r *Registry) String() string {
	return fmt.Sprintf("backends: %s", strings.Join(r.Names(), ", "))
}
