package provider

import "fmt"

// Registry holds the configured token verifiers and allows lookup by
// provider name. It performs no auth logic itself.
type Registry struct {
	verifiers map[string]TokenVerifier
}

// NewRegistry registers the given verifiers by name. A later verifier with
// the same name replaces an earlier one.
func NewRegistry(list ...TokenVerifier) *Registry {
	m := make(map[string]TokenVerifier)
	for _, v := range list {
		if v == nil {
			continue
		}
		m[v.Name()] = v
	}
	return &Registry{verifiers: m}
}

// Get returns the verifier by name or an error if not registered.
func (r *Registry) Get(name string) (TokenVerifier, error) {
	v, ok := r.verifiers[name]
	if !ok {
		return nil, fmt.Errorf("unknown token provider: %s", name)
	}
	return v, nil
}
