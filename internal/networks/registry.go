package networks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/bayesnet/internal/bayes"
)

// Builder constructs a complete network or reports why it could not.
type Builder func() (*bayes.Network, error)

// Registry maps builtin network names to their builders.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Builtin returns a registry holding every network shipped with the service.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("biodigester", Biodigester)
	return r
}

// Register adds a builder. Panics on duplicate name to surface misconfiguration early.
func (r *Registry) Register(name string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builders[name]; exists {
		panic(fmt.Sprintf("network registry: duplicate name %q", name))
	}
	r.builders[name] = b
}

// Get returns the builder registered under name.
func (r *Registry) Get(name string) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("no builtin network named %q", name)
	}
	return b, nil
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for k := range r.builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
