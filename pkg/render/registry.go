package render

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry looks renderers up by their case-insensitive Name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Renderer
}

// NewRegistry holds the supplied renderers. Duplicate or unnamed renderers
// are wiring mistakes and panic.
func NewRegistry(renderers ...Renderer) *Registry {
	reg := &Registry{byName: make(map[string]Renderer, len(renderers))}
	for _, renderer := range renderers {
		if err := reg.Register(renderer); err != nil {
			panic(err)
		}
	}
	return reg
}

// Register adds renderer under its Name.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	key := strings.ToLower(strings.TrimSpace(renderer.Name()))
	if key == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byName[key]; taken {
		return fmt.Errorf("render: renderer %q already registered", key)
	}
	r.byName[key] = renderer
	return nil
}

// Render renders view with the named renderer and returns the output with
// its content type.
func (r *Registry) Render(ctx context.Context, name string, view View, options RenderOptions) ([]byte, string, error) {
	r.mu.RLock()
	renderer, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("render: renderer %q not found (have %s)", name, strings.Join(r.Names(), ", "))
	}

	out, err := renderer.Render(ctx, view, options)
	if err != nil {
		return nil, "", fmt.Errorf("render: %s: %w", renderer.Name(), err)
	}
	return out, renderer.ContentType(), nil
}

// Names lists the registered renderer names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
