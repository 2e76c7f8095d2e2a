package sdui

import "sync"

// Renderer draws a component. Handled components are drawn inert.
type Renderer interface {
	Render(c *Component, handled bool) string
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(c *Component, handled bool) string

// Render calls f.
func (f RendererFunc) Render(c *Component, handled bool) string {
	return f(c, handled)
}

// Registry maps component types to renderers. It is the seam between the
// conversation state and whatever presents it.
type Registry struct {
	mu        sync.RWMutex
	renderers map[Type]Renderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[Type]Renderer),
	}
}

// Register binds a renderer to a component type, replacing any previous one.
func (r *Registry) Register(t Type, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[t] = renderer
}

// IsValidType reports whether a renderer is registered for t.
func (r *Registry) IsValidType(t string) bool {
	_, ok := r.Lookup(t)
	return ok
}

// Lookup returns the renderer for t.
func (r *Registry) Lookup(t string) (Renderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[Type(t)]
	return renderer, ok
}

// Render draws c, or returns "" when there is nothing to render.
func (r *Registry) Render(c *Component, handled bool) string {
	if c == nil {
		return ""
	}
	renderer, ok := r.Lookup(string(c.Type))
	if !ok {
		return ""
	}
	return renderer.Render(c, handled)
}
