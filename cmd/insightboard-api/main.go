// @title         Insightboard API
// @version       0.1.0
// @description   Dashboard backend: filter sessions, chart views and exports over the analytics data API

package main

import (
	"context"
	"os/signal"
	"syscall"

	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/platform/config"
	"insightboard/internal/platform/logger"
	phttp "insightboard/internal/platform/net/http"

	"insightboard/internal/services/api"
)

func main() {
	// .env first so every prefix below sees it, LOG_* included
	_, envErr := config.LoadDotenv()
	logger.Init(logger.FromEnv())
	l := logger.Get()
	if envErr != nil {
		l.Warn().Err(envErr).Msg("dotenv load failed")
	}

	// service-scoped config for HTTP etc (INSIGHT_API_*)
	root := config.New()
	apiCfg := root.Prefix("INSIGHT_API_")
	dataCfg := root.Prefix("INSIGHT_DATA_") // analytics data API client

	data := dataapi.NewClient(dataapi.FromConfig(dataCfg))
	l.Info().Str("base_url", data.BaseURL()).Msg("data api client ready")

	// http server (reads INSIGHT_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	// mount our API
	closeAPI := api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Data:           data,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
		},
	)
	defer closeAPI()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
