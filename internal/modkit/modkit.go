// Package modkit wires service modules into the API
package modkit

import (
	"net/http"

	phttp "peacekeeper/internal/platform/net/http"
	str "peacekeeper/internal/platform/strings"
)

// Module is the surface every API module exposes
type Module interface {
	// MountRoutes attaches the module routes under its prefix
	MountRoutes(r phttp.Router)
	// Ports returns the module's port set for cross wiring
	Ports() any
	Name() string
}

// Base carries the option driven parts of a module
// modules embed it and set Register before mounting
type Base struct {
	name     string
	prefix   string
	mw       []func(http.Handler) http.Handler
	ports    any
	extra    func(phttp.Router)
	Register func(phttp.Router)
}

// Build applies opts over defaults and returns a Base
func Build(defaults []Option, opts ...Option) Base {
	var c buildCfg
	for _, o := range defaults {
		o(&c)
	}
	for _, o := range opts {
		o(&c)
	}
	return Base{
		name:   c.name,
		prefix: c.prefix,
		mw:     append([]func(http.Handler) http.Handler(nil), c.mw...),
		ports:  c.ports,
		extra:  c.register,
	}
}

// MountRoutes mounts Register under the prefix with the module middleware
// an empty prefix mounts the routes in a group at the parent's root
func (b *Base) MountRoutes(r phttp.Router) {
	if b.Register == nil && b.extra == nil {
		return
	}
	mount := func(sub phttp.Router) {
		if len(b.mw) > 0 {
			sub.Use(b.mw...)
		}
		if b.Register != nil {
			b.Register(sub)
		}
		if b.extra != nil {
			b.extra(sub)
		}
	}
	if b.prefix == "" {
		r.Group(mount)
		return
	}
	r.Route(str.MustPrefix(b.prefix), mount)
}

// Name returns the module name
func (b *Base) Name() string { return str.MustString(b.name, "module name") }

// Prefix returns the route prefix
func (b *Base) Prefix() string { return b.prefix }

// Ports returns the port set
func (b *Base) Ports() any { return b.ports }

// SetPorts replaces the port set once the module's service exists
func (b *Base) SetPorts(p any) { b.ports = p }
