// Package module wires the mediation orchestrator and its routes
package module

import (
	"context"

	"peacekeeper/internal/core/policy"
	"peacekeeper/internal/core/respond"
	"peacekeeper/internal/modkit"
	"peacekeeper/internal/modkit/httpkit"
	perr "peacekeeper/internal/platform/errors"
	cdomain "peacekeeper/internal/services/conflicts/domain"
	"peacekeeper/internal/services/mediation/domain"
	medhttp "peacekeeper/internal/services/mediation/http"
	"peacekeeper/internal/services/mediation/repo"
	"peacekeeper/internal/services/mediation/service"
)

// Ports exposed to other modules
type Ports struct {
	Mediator medhttp.Mediator
}

// Peers are the modules and collaborators mediation drives
type Peers struct {
	// Messages must expose a domain.MessageStore port
	Messages modkit.Module
	// Conflicts may expose the sink and analytics ports; nil runs without them
	Conflicts modkit.Module
	// Generator may be nil, responses then come from the canned pools
	Generator respond.Generator
	// Sender defaults to the postgres outbox
	Sender domain.Sender
	// SharedPolicy is set when other processes mediate the same channels.
	// Their cooldowns and caps must then live in redis
	SharedPolicy bool
}

// Module is the mediation module
type Module struct {
	modkit.Base
	svc    *service.Service
	outbox *repo.Outbox
}

// New resolves CORE_MEDIATION_ config and builds the orchestrator
func New(deps modkit.Deps, peers Peers, opts ...modkit.Option) (*Module, error) {
	cfg, err := service.FromConfig(deps.Cfg)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "mediation: config")
	}
	if peers.Messages == nil {
		return nil, perr.Internalf("mediation: messages module is required")
	}
	msgs, ok := modkit.PortsOf[domain.MessageStore](peers.Messages)
	if !ok {
		return nil, perr.Internalf("mediation: %s exposes no message store", peers.Messages.Name())
	}

	pol, err := newPolicy(cfg, deps, peers.SharedPolicy)
	if err != nil {
		return nil, err
	}

	m := &Module{Base: modkit.Build([]modkit.Option{modkit.WithName("mediation")}, opts...)}

	sender := peers.Sender
	if deps.PG != nil {
		m.outbox = repo.NewOutbox(deps.PG, nil)
		if sender == nil {
			sender = m.outbox
		}
	}
	if sender == nil {
		return nil, perr.Internalf("mediation: no sender and no postgres for the outbox")
	}

	var (
		sink      cdomain.Sink
		analytics cdomain.Analytics
	)
	if peers.Conflicts != nil {
		sink, _ = modkit.PortsOf[cdomain.Sink](peers.Conflicts)
		analytics, _ = modkit.PortsOf[cdomain.Analytics](peers.Conflicts)
	}

	log := deps.Logger("mediation")
	sel := respond.New(peers.Generator,
		respond.WithTimeout(cfg.GenerateTimeout),
		respond.WithLogger(deps.Logger("respond")),
	)
	m.svc, err = service.New(cfg, service.Deps{
		Messages:  msgs,
		Policy:    pol,
		Selector:  sel,
		Sender:    sender,
		Sink:      sink,
		Analytics: analytics,
		Log:       log,
	})
	if err != nil {
		return nil, err
	}
	m.SetPorts(Ports{Mediator: m.svc})

	var outbox medhttp.Outbox
	if m.outbox != nil {
		outbox = m.outbox
	}
	m.Register = func(r httpkit.Router) {
		medhttp.Register(r, m.svc, cfg.Limits, outbox)
	}

	log.Info().
		Str("sensitivity", string(cfg.Sensitivity)).
		Int("guild_overrides", len(cfg.GuildSensitivity)).
		Dur("cooldown", cfg.Limits.Cooldown).
		Int("max_per_hour", cfg.Limits.MaxPerHour).
		Str("policy", cfg.PolicyBackend).
		Bool("generator", peers.Generator != nil).
		Bool("sink", sink != nil).
		Msg("mediation ready")
	return m, nil
}

func newPolicy(cfg service.Config, deps modkit.Deps, shared bool) (domain.Policy, error) {
	if shared && cfg.PolicyBackend != service.BackendRedis {
		return nil, perr.WithField(perr.InvalidArgf(
			"mediation: policy backend %q is per process; set CORE_MEDIATION_POLICY_BACKEND=redis", cfg.PolicyBackend,
		), "CORE_MEDIATION_POLICY_BACKEND")
	}
	switch cfg.PolicyBackend {
	case service.BackendRedis:
		if deps.RDS == nil {
			return nil, perr.Unavailablef("mediation: redis policy selected but redis is disabled")
		}
		prefix := deps.Cfg.Prefix("CORE_MEDIATION_").MayString("REDIS_PREFIX", "")
		return repo.NewRedis(deps.RDS, prefix, nil, cfg.Limits.Cooldown), nil
	}
	return repo.NewLocal(policy.New(
		policy.WithCooldown(cfg.Limits.Cooldown),
		policy.WithMaxPerHour(cfg.Limits.MaxPerHour),
	)), nil
}

// EnsureSchema creates the outbox table when postgres is attached
func (m *Module) EnsureSchema(ctx context.Context) error {
	if m.outbox == nil {
		return nil
	}
	return m.outbox.EnsureSchema(ctx)
}

// Check runs one orchestrator pass
func (m *Module) Check(ctx context.Context, t domain.Trigger) (domain.Outcome, error) {
	return m.svc.Check(ctx, t)
}

// Service returns the orchestrator
func (m *Module) Service() *service.Service { return m.svc }
