// Package module wires the message store into the API
package module

import (
	"context"

	"peacekeeper/internal/modkit"
	"peacekeeper/internal/modkit/httpkit"
	"peacekeeper/internal/services/messages/domain"
	msghttp "peacekeeper/internal/services/messages/http"
	"peacekeeper/internal/services/messages/repo"
	"peacekeeper/internal/services/messages/service"
)

// Ports exposed to other modules
type Ports struct {
	Store domain.Store
}

// Module is the messages module
type Module struct {
	modkit.Base
	svc   *service.Service
	after msghttp.AfterAppend
}

// New builds the module; deps.PG is required
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	m := &Module{
		Base: modkit.Build([]modkit.Option{modkit.WithName("messages"), modkit.WithPrefix("/messages")}, opts...),
		svc:  service.New(deps.PG, repo.NewPG(), nil),
	}
	m.SetPorts(Ports{Store: m.svc})
	m.Register = func(r httpkit.Router) {
		msghttp.Register(r, m.svc, func() msghttp.AfterAppend { return m.after })
	}
	return m
}

// OnAppend sets the hook run after each newly ingested message
func (m *Module) OnAppend(fn msghttp.AfterAppend) { m.after = fn }

// EnsureSchema creates the module's tables
func (m *Module) EnsureSchema(ctx context.Context) error { return m.svc.EnsureSchema(ctx) }

// Store returns the message store
func (m *Module) Store() domain.Store { return m.svc }
