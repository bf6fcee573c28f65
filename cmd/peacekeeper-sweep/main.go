package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"peacekeeper/internal/platform/config"
	"peacekeeper/internal/platform/logger"
	"peacekeeper/internal/platform/store"

	"peacekeeper/internal/services/api"
	"peacekeeper/internal/services/sweep"
)

func main() {
	opt := logger.FromEnv()
	opt.Component = "sweep"
	logger.Init(opt)
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()

	st, err := store.Open(ctx, store.FromConfig(root, "sweep"), store.WithLogger(logger.Named("store")))
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

	// same assembly as the api, no routes mounted. The api mediates the same
	// channels, so the policy must be the shared redis one
	app, err := api.Build(api.Options{Config: root, Store: st, Generator: gen, SharedPolicy: true})
	if err != nil {
		l.Panic().Err(err).Msg("build failed")
	}
	if err := app.EnsureSchema(ctx); err != nil {
		l.Panic().Err(err).Msg("schema setup failed")
	}

	cfg := sweep.FromConfig(root)
	l.Info().
		Dur("interval", cfg.Interval).
		Dur("lookback", cfg.Lookback).
		Int("concurrency", cfg.Concurrency).
		Msg("sweeper starting")

	lease := sweep.NewPGLease(st.PG, "mediation-sweep", cfg.LeaseTTL)
	if err := lease.EnsureSchema(ctx); err != nil {
		l.Panic().Err(err).Msg("lease schema setup failed")
	}

	s := sweep.New(cfg, app.Messages.Store(), app.Mediation, nil, sweep.WithLease(lease))
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Panic().Err(err).Msg("sweeper stopped")
	}
	l.Info().Msg("bye")
}
