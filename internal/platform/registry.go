package platform

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hyperifyio/leadscout/internal/search"
)

// Registry holds the adapters available to the engine, keyed by platform.
// Build it once at startup; it is read-only afterwards and safe for
// concurrent lookups.
type Registry struct {
	adapters map[search.PlatformID]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[search.PlatformID]Adapter)}
}

// Register adds an adapter. Identifiers must be well-formed and unique.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return errors.New("adapter must not be nil")
	}
	id := a.Platform()
	if !id.Valid() {
		return fmt.Errorf("invalid platform id %q: must be lowercase and start with a letter", id)
	}
	if r.adapters == nil {
		r.adapters = make(map[search.PlatformID]Adapter)
	}
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("platform %q already registered", id)
	}
	r.adapters[id] = a
	return nil
}

// Lookup returns the adapter for id.
func (r *Registry) Lookup(id search.PlatformID) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.adapters[id]
	return a, ok
}

// Platforms lists registered identifiers in lexical order.
func (r *Registry) Platforms() []search.PlatformID {
	if r == nil {
		return nil
	}
	out := make([]search.PlatformID, 0, len(r.adapters))
	for id := range r.adapters {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.adapters)
}
