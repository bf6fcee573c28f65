// Package api assembles the service modules and mounts them on a router
package api

import (
	"context"
	"net/http"
	"time"

	"peacekeeper/internal/adapters/llm/gemini"
	"peacekeeper/internal/core/respond"
	"peacekeeper/internal/platform/config"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/logger"
	phttp "peacekeeper/internal/platform/net/http"
	"peacekeeper/internal/platform/store"

	"peacekeeper/internal/modkit"
	"peacekeeper/internal/modkit/httpkit"
	"peacekeeper/internal/modkit/swaggerkit"

	conflictsmod "peacekeeper/internal/services/conflicts/module"
	meddomain "peacekeeper/internal/services/mediation/domain"
	mediationmod "peacekeeper/internal/services/mediation/module"
	metahttp "peacekeeper/internal/services/meta/http"
	metamod "peacekeeper/internal/services/meta/module"
	msgdomain "peacekeeper/internal/services/messages/domain"
	messagesmod "peacekeeper/internal/services/messages/module"
	scoringmod "peacekeeper/internal/services/scoring/module"
)

// Options are the assembly options
type Options struct {
	// Config is the unprefixed root, modules pick their own prefixes
	Config config.Conf
	Store  *store.Store
	// Generator is optional, nil keeps mediation on the canned pools
	Generator respond.Generator
	// Sender overrides the postgres outbox
	Sender meddomain.Sender
	// SharedPolicy refuses the in-process policy backend, for processes
	// that mediate alongside the api
	SharedPolicy bool

	EnableSwagger  bool
	EnableProfiler bool
}

// App holds the assembled modules
type App struct {
	Messages  *messagesmod.Module
	Conflicts *conflictsmod.Module
	Mediation *mediationmod.Module
	Scoring   *scoringmod.Module
	Meta      *metamod.Module

	store *store.Store
	log   *logger.Logger
}

// Build constructs every module and wires ingest into the mediation check
func Build(opt Options) (*App, error) {
	deps := modkit.DepsFrom(opt.Config, opt.Store)
	if deps.PG == nil {
		return nil, perr.Unavailablef("api: postgres is required")
	}

	a := &App{
		Messages:  messagesmod.New(deps),
		Conflicts: conflictsmod.New(deps),
		Scoring:   scoringmod.New(deps),
		store:     opt.Store,
		log:       deps.Logger("api"),
	}

	med, err := mediationmod.New(deps, mediationmod.Peers{
		Messages:  a.Messages,
		Conflicts: a.Conflicts,
		Generator: opt.Generator,
		Sender:    opt.Sender,

		SharedPolicy: opt.SharedPolicy,
	})
	if err != nil {
		return nil, err
	}
	a.Mediation = med

	mc := med.Service().Config()
	a.Meta = metamod.New(deps, metahttp.Engine{
		Sensitivity:      mc.Sensitivity,
		Threshold:        mc.Sensitivity.Threshold(),
		GuildSensitivity: mc.GuildSensitivity,
		TimeWindowSecs:   int64(mc.TimeWindow / time.Second),
		WindowSize:       mc.WindowSize,
		CooldownSecs:     int64(mc.Limits.Cooldown / time.Second),
		MaxPerHour:       mc.Limits.MaxPerHour,
		PolicyBackend:    mc.PolicyBackend,
		Generator:        opt.Generator != nil,
	})

	a.Messages.OnAppend(func(ctx context.Context, m msgdomain.Message) (any, error) {
		return a.Mediation.Check(ctx, meddomain.Trigger{
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
			MessageID: m.ID,
		})
	})
	return a, nil
}

// NewGenerator returns the Gemini generator when LLM_API_KEY is set and nil otherwise
func NewGenerator(ctx context.Context, cfg config.Conf) (respond.Generator, error) {
	gcfg := gemini.FromConfig(cfg)
	if !gcfg.Enabled() {
		return nil, nil
	}
	c, err := gemini.New(ctx, gcfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (a *App) modules() []modkit.Module {
	return []modkit.Module{a.Messages, a.Conflicts, a.Mediation, a.Scoring, a.Meta}
}

// EnsureSchema creates the tables of every module that owns some
func (a *App) EnsureSchema(ctx context.Context) error {
	type schemaOwner interface {
		EnsureSchema(ctx context.Context) error
	}
	for _, m := range a.modules() {
		so, ok := m.(schemaOwner)
		if !ok {
			continue
		}
		if err := so.EnsureSchema(ctx); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s: ensure schema", m.Name())
		}
	}
	a.log.Debug().Msg("schema ready")
	return nil
}

// Mount attaches probes, docs and the versioned API to r
func (a *App) Mount(r phttp.Router, apiCfg config.Conf, opt Options) {
	httpkit.Get(r, "/healthz", func(*http.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})
	httpkit.Get(r, "/readyz", a.ready)

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(apiCfg), func(api httpkit.Router) {
		for _, m := range a.modules() {
			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}

func (a *App) ready(r *http.Request) (any, error) {
	if a.store == nil {
		return map[string]string{"status": "ready"}, nil
	}
	if err := a.store.Guard(r.Context()); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "backends not ready")
	}
	return map[string]string{"status": "ready"}, nil
}
