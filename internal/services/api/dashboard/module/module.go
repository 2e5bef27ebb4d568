// Package module wires the dashboard into the API using modkit
package module

import (
	"net/http"

	modkit "insightboard/internal/modkit"
	"insightboard/internal/modkit/httpkit"
	"insightboard/internal/platform/logger"
	dashhttp "insightboard/internal/services/api/dashboard/http"
	dashsvc "insightboard/internal/services/api/dashboard/service"
)

// Module is the dashboard API: sessions, filters, views and exports under /dashboard
type Module struct {
	modkit.Base
	opts Options
	svc  dashsvc.Service
}

// New builds the dashboard module; a Ports value passed with modkit.WithPorts replaces the service
// and options, which is how tests run it without a data API
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("dashboard"),
		modkit.WithPrefix("/dashboard"),
	}, opts...)...)
	m := &Module{opts: FromConfig(deps.Cfg)}
	injected, _ := b.Ports.(Ports)
	if injected.Options != nil {
		m.opts = *injected.Options
	}
	m.svc = injected.Service
	if m.svc == nil {
		m.svc = newService(deps, m.opts)
	}

	// sessions resolve before anything else the module runs
	b.Middlewares = append([]func(http.Handler) http.Handler{httpkit.Sessions()}, b.Middlewares...)
	m.Base = modkit.NewBase(b, m.routes)
	return m
}

func (m *Module) routes(r httpkit.Router) {
	o := dashhttp.Options{AllowedOrigins: m.opts.WSOrigins, Logger: logger.Named("dashboard.ws")}
	if m.opts.AccessToken == "" {
		dashhttp.Register(r, m.svc, o)
		return
	}
	httpkit.Protected(r, httpkit.StaticToken(m.opts.AccessToken, "dashboard"), func(pr httpkit.Router) {
		dashhttp.Register(pr, m.svc, o)
	})
}

func newService(deps modkit.Deps, o Options) dashsvc.Service {
	if deps.Data == nil {
		panic("dashboard module requires a data API client")
	}
	presets, err := dashsvc.LoadPresets(o.PresetsFile)
	if err != nil {
		panic(err)
	}
	dashhttp.RegisterRules()
	return dashsvc.New(dashsvc.Options{
		Data:         dashsvc.ClientFactory(deps.Data),
		Token:        o.DataToken,
		Check:        dashhttp.CheckFilter,
		Presets:      presets,
		MaxSessions:  o.MaxSessions,
		IdleTTL:      o.IdleTTL,
		HistoryLimit: o.HistoryLimit,
		OptionsTTL:   o.OptionsTTL,
		WatchBuffer:  o.WatchBuffer,
		Logger:       logger.Named("dashboard"),
	})
}

// Ports implements modkit.Module
func (m *Module) Ports() any { return Ports{Service: m.svc} }

// Close ends every dashboard session
func (m *Module) Close() { m.svc.Close() }
