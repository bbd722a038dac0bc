package psp

import (
	"fmt"

	"github.com/lightspeedpay/payment-service/internal/domain"
)

// Registry maps provider identifiers to adapters. It is populated once at
// startup; lookups after that are read-only.
type Registry struct {
	adapters map[string]domain.PSPAdapter
}

func NewRegistry(adapters ...domain.PSPAdapter) *Registry {
	r := &Registry{adapters: make(map[string]domain.PSPAdapter)}
	for _, a := range adapters {
		r.adapters[a.Provider()] = a
	}
	return r
}

func (r *Registry) Get(provider string) (domain.PSPAdapter, error) {
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("unknown payment provider: %s", provider)
	}
	return adapter, nil
}

func (r *Registry) Providers() []string {
	providers := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		providers = append(providers, name)
	}
	return providers
}
