package sink

import (
	"fmt"
	"sort"

	"FeedNotifier/internal/ports"
)

// Registry keeps a mapping from sink names to their notifiers.
type Registry struct {
	sinks map[string]ports.Notifier
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sinks: map[string]ports.Notifier{}}
}

// Register adds or replaces a notifier under its own name.
func (r *Registry) Register(n ports.Notifier) {
	if r.sinks == nil {
		r.sinks = map[string]ports.Notifier{}
	}
	r.sinks[n.Name()] = n
}

// Resolve returns a notifier by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.Notifier, error) {
	if n, ok := r.sinks[name]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("sink %q is not registered (available: %v)", name, r.Names())
}

// Names lists registered sinks in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
