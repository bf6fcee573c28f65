// Package module exposes the conflict sink and analytics to other modules
package module

import (
	"context"
	"time"

	"peacekeeper/internal/modkit"
	"peacekeeper/internal/services/conflicts/domain"
	"peacekeeper/internal/services/conflicts/repo"
	"peacekeeper/internal/services/conflicts/service"
)

// Ports exposed to other modules
type Ports struct {
	Sink      domain.Sink
	Analytics domain.Analytics
}

// Module has no routes of its own; mediation serves the conflict views
type Module struct {
	modkit.Base
	svc *service.Service
}

// New builds the module; deps.PG is required, deps.CH is optional
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	cfg := deps.Cfg.Prefix("CORE_CONFLICTS_")
	var events service.EventWriter
	if deps.CH != nil {
		events = repo.NewEvents(deps.CH)
	}
	m := &Module{
		Base: modkit.Build([]modkit.Option{modkit.WithName("conflicts")}, opts...),
		svc: service.New(deps.PG, repo.NewPG(), events, service.Options{
			StatementTimeout: cfg.MayDuration("STATEMENT_TIMEOUT", 5*time.Second),
			Log:              deps.Logger("conflicts"),
		}),
	}
	m.SetPorts(Ports{Sink: m.svc, Analytics: m.svc})
	return m
}

// EnsureSchema creates the module's tables
func (m *Module) EnsureSchema(ctx context.Context) error { return m.svc.EnsureSchema(ctx) }

// Sink returns the conflict sink
func (m *Module) Sink() domain.Sink { return m.svc }

// Analytics returns the detection event writer
func (m *Module) Analytics() domain.Analytics { return m.svc }
