package publishers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher types to their builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]Builder{}}
}

// DefaultRegistry knows the http and queue publisher types.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(TypeHTTP, newHTTPPublisher).
		Register(TypeQueue, newQueuePublisher)
}

// Register binds builder to typ and returns r. Blank types and nil builders
// are ignored.
func (r *Registry) Register(typ string, builder Builder) *Registry {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key != "" && builder != nil {
		r.mu.Lock()
		r.builders[key] = builder
		r.mu.Unlock()
	}
	return r
}

// Build creates the publisher described by cfg.
func (r *Registry) Build(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	r.mu.RLock()
	builder, ok := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("publisher %q: unknown type %q", cfg.ID, cfg.Type)
	}
	return builder(ctx, cfg, ensureLogger(log))
}

// BuildAll builds every config. All failures are reported together so a
// bad registry file can be fixed in one pass.
func BuildAll(ctx context.Context, reg *Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pubs := make([]Publisher, 0, len(cfgs))
	var errs []error
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		pubs = append(pubs, pub)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return pubs, nil
}
