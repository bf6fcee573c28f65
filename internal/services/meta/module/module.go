// Package module wires the meta endpoints
package module

import (
	"context"
	"time"

	"peacekeeper/internal/modkit"
	"peacekeeper/internal/modkit/httpkit"

	metahttp "peacekeeper/internal/services/meta/http"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Module is the meta module
type Module struct {
	modkit.Base
	startedAt time.Time
}

// New builds the meta module; engine is reported as is by /meta/engine
func New(deps modkit.Deps, engine metahttp.Engine, opts ...modkit.Option) *Module {
	m := &Module{
		Base:      modkit.Build([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...),
		startedAt: time.Now(),
	}

	backends := map[string]metahttp.Pinger{}
	if p, ok := deps.PG.(metahttp.Pinger); ok {
		backends["pg"] = p
	}
	if p, ok := deps.CH.(metahttp.Pinger); ok {
		backends["ch"] = p
	}
	if deps.RDS != nil {
		backends["redis"] = pingFunc(func(ctx context.Context) error { return deps.RDS.Ping(ctx).Err() })
	}

	m.Register = func(r httpkit.Router) {
		metahttp.Register(r, metahttp.Deps{
			ServiceName: deps.Cfg.Prefix("LOG_").MayString("SERVICE", "peacekeeper"),
			StartedAt:   m.startedAt,
			Backends:    backends,
			Engine:      engine,
		})
	}
	return m
}
