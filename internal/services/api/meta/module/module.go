// Package module mounts the meta endpoints
package module

import (
	"time"

	"insightboard/internal/core/version"
	modkit "insightboard/internal/modkit"
	"insightboard/internal/modkit/httpkit"
	metahttp "insightboard/internal/services/api/meta/http"
)

// Ports are the optional hooks meta reports on
type Ports struct {
	// Sessions lists the live dashboard sessions
	Sessions func() []string
}

// Module serves health, readiness and build info under /meta
type Module struct {
	modkit.Base
	deps metahttp.Deps
}

// New builds the meta module; pass Ports with modkit.WithPorts to report dashboard sessions
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	m := &Module{deps: metahttp.Deps{
		ServiceName: version.Info().Service,
		StartedAt:   time.Now(),
	}}
	data := metahttp.Check{Name: "data"}
	if deps.Data != nil {
		data.Ping = deps.Data.Ping
	}
	m.deps.Checks = []metahttp.Check{data}
	if p, ok := b.Ports.(Ports); ok {
		m.deps.Sessions = p.Sessions
	}
	m.Base = modkit.NewBase(b, func(r httpkit.Router) { metahttp.Register(r, m.deps) })
	return m
}

// Ports implements modkit.Module; meta exposes nothing
func (m *Module) Ports() any { return nil }
