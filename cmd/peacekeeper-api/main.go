// @title         Peacekeeper API
// @version       0.1.0
// @description   Message ingest, conflict detection and mediation

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"peacekeeper/internal/platform/config"
	"peacekeeper/internal/platform/logger"
	phttp "peacekeeper/internal/platform/net/http"
	"peacekeeper/internal/platform/store"

	"peacekeeper/internal/services/api"
)

func main() {
	opt := logger.FromEnv()
	opt.Component = "api"
	logger.Init(opt)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	apiCfg := root.Prefix("API_")

	// open the platform store (postgres required, clickhouse and redis optional)
	st, err := store.Open(ctx, store.FromConfig(root, "api"), store.WithLogger(logger.Named("store")))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	gen, err := api.NewGenerator(ctx, root)
	if err != nil {
		l.Panic().Err(err).Msg("llm client failed")
	}

	opts := api.Options{
		Config:         root,
		Store:          st,
		Generator:      gen,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
	}
	app, err := api.Build(opts)
	if err != nil {
		l.Panic().Err(err).Msg("api build failed")
	}
	if err := app.EnsureSchema(ctx); err != nil {
		l.Panic().Err(err).Msg("schema setup failed")
	}

	// http server (reads API_ADDR and the timeouts)
	srv := phttp.NewServer(apiCfg)
	app.Mount(srv.Router(), apiCfg, opts)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("bye")
}
