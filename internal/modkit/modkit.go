// Package modkit wires API modules: shared deps in, routes and ports out
package modkit

import (
	"net/http"
	"strings"

	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/modkit/httpkit"
	"insightboard/internal/platform/config"
	"insightboard/internal/platform/logger"
)

// Module is one mountable slice of the API
type Module interface {
	// MountRoutes attaches the module under its prefix
	MountRoutes(r httpkit.Router)
	// Ports exposes what other modules may call, nil when nothing
	Ports() any
	Name() string
}

// Deps are the process wide dependencies handed to every module
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	// Data is the shared data API client; nil when a test stubs the service
	Data *dataapi.Client
}

// Option adjusts how a module is built
type Option func(*Built)

// Built is the result of applying options
type Built struct {
	Name        string
	Prefix      string
	Middlewares []func(http.Handler) http.Handler
	// Ports carries a value of the building module's own Ports type, tests use it to inject stubs
	Ports any
}

// WithName names the module
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix mounts the module under prefix
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends module scoped middleware
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Middlewares = append(b.Middlewares, mw...) }
}

// WithPorts hands the module a ports value of its own type
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Build applies opts in order; the name must be set and the prefix gets exactly one leading slash
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	if strings.TrimSpace(b.Name) == "" {
		panic("modkit: module name is required")
	}
	b.Prefix = "/" + strings.Trim(strings.TrimSpace(b.Prefix), "/")
	if b.Prefix == "/" {
		panic("modkit: module " + b.Name + " needs a prefix")
	}
	return b
}

// Base implements the routing half of Module; modules embed it and add Ports
type Base struct {
	built Built
	mount func(httpkit.Router)
}

// NewBase mounts routes registered by mount under b's prefix and middleware
func NewBase(b Built, mount func(httpkit.Router)) Base { return Base{built: b, mount: mount} }

// MountRoutes implements Module
func (m Base) MountRoutes(r httpkit.Router) {
	r.Route(m.built.Prefix, func(sub httpkit.Router) {
		sub.Use(m.built.Middlewares...)
		if m.mount != nil {
			m.mount(sub)
		}
	})
}

// Name implements Module
func (m Base) Name() string { return m.built.Name }

// Prefix is where the module is mounted
func (m Base) Prefix() string { return m.built.Prefix }

// PortsOf returns m's ports as T
func PortsOf[T any](m Module) (T, bool) {
	p, ok := m.Ports().(T)
	return p, ok
}

// MustPortsOf is PortsOf for bootstrap code where a mismatch is a wiring bug
func MustPortsOf[T any](m Module) T {
	p, ok := PortsOf[T](m)
	if !ok {
		panic("modkit: module " + m.Name() + " does not expose the requested ports")
	}
	return p
}
