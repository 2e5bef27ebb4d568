// Package api assembles the HTTP API from its modules
package api

import (
	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/modkit"
	"insightboard/internal/modkit/httpkit"
	"insightboard/internal/modkit/swaggerkit"
	"insightboard/internal/platform/config"
	"insightboard/internal/platform/logger"
	phttp "insightboard/internal/platform/net/http"
	"insightboard/internal/platform/net/middleware"

	dashmod "insightboard/internal/services/api/dashboard/module"
	metamod "insightboard/internal/services/api/meta/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Data           *dataapi.Client
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
	// Modules replaces the default module set, tests use it to mount stubs
	Modules []modkit.Module
}

// Mount attaches the API to r, which must not have routes yet
// the returned func ends every dashboard session and should run on shutdown
func Mount(r phttp.Router, opt Options) (closeFn func()) {
	// load balancer probe, outside the API stack so it stays cheap
	r.Use(middleware.Heartbeat("/health"))

	closeFn = func() {}
	mods := opt.Modules
	if mods == nil {
		deps := modkit.Deps{Cfg: opt.Config, Data: opt.Data}
		if opt.Logger != nil {
			deps.Log = *opt.Logger
		}

		// dashboard first so meta can report its sessions
		dash := dashmod.New(deps)
		svc := modkit.MustPortsOf[dashmod.Ports](dash).Service
		mods = []modkit.Module{
			metamod.New(deps, modkit.WithPorts(metamod.Ports{Sessions: svc.Sessions})),
			dash,
		}
		closeFn = svc.Close
	}

	swaggerkit.Mount(r, swaggerkit.Options{
		Enabled:     opt.EnableSwagger,
		TitleSuffix: opt.Config.MayString("DOCS_TITLE_SUFFIX", ""),
	})
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
	phttp.MountMetrics(r, "/metrics", opt.EnableMetrics)

	origins := opt.Config.MayCSV("CORS_ORIGINS", nil)
	httpkit.MountAPIV1(r, httpkit.CommonStack(origins...), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
	return closeFn
}
