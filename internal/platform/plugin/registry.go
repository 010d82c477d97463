package plugin

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Plugin is an extension point for optional integrations (hospital security
// modules, external system bridges). Plugins are registered once at startup
// and looked up by name.
type Plugin interface {
	Name() string
	Version() string
}

// RouteRegistrar is implemented by plugins that expose their own HTTP
// endpoints under the API group.
type RouteRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

// Registry holds registered plugins keyed by name. It is populated during
// startup and read-only afterwards, so no locking is needed.
type Registry struct {
	plugins map[string]Plugin
	order   []string
	logger  zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		logger:  logger,
	}
}

// Register adds plugins to the registry. Registering a plugin with an
// existing name replaces the previous one.
func (r *Registry) Register(plugins ...Plugin) {
	for _, p := range plugins {
		if _, exists := r.plugins[p.Name()]; !exists {
			r.order = append(r.order, p.Name())
		}
		r.plugins[p.Name()] = p
		r.logger.Info().
			Str("plugin", p.Name()).
			Str("version", p.Version()).
			Msg("plugin registered")
	}
}

// Get returns the plugin with the given name, or nil if not registered.
func (r *Registry) Get(name string) Plugin {
	return r.plugins[name]
}

// All returns registered plugins in registration order.
func (r *Registry) All() []Plugin {
	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// Remove unregisters the named plugin and reports whether it was present.
func (r *Registry) Remove(name string) bool {
	if _, ok := r.plugins[name]; !ok {
		return false
	}
	delete(r.plugins, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// RegisterRoutes lets every route-aware plugin attach its endpoints.
func (r *Registry) RegisterRoutes(g *echo.Group) {
	for _, p := range r.All() {
		if rr, ok := p.(RouteRegistrar); ok {
			rr.RegisterRoutes(g)
		}
	}
}
