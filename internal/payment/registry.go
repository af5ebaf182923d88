package payment

import (
	"rentdesk-billing/pkg/errutil"
)

// Registry resolves gateway adapters by slug. Built once at startup from the
// configured adapters; lookups after that are read-only.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Slug()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(slug string) (Adapter, error) {
	a, ok := r.adapters[slug]
	if !ok {
		return nil, errutil.NotFound("Gateway not found", nil)
	}
	return a, nil
}

// Online returns every non-manual adapter, for provider-side product sync.
func (r *Registry) Online() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		if !a.Manual() {
			out = append(out, a)
		}
	}
	return out
}
