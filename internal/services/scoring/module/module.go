// Package module mounts the stateless scoring routes at the API root
package module

import (
	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/modkit"
	"peacekeeper/internal/modkit/httpkit"
	scorehttp "peacekeeper/internal/services/scoring/http"
)

// Module is the scoring module
type Module struct {
	modkit.Base
}

// New builds the module; /analyze defaults to CORE_MEDIATION_SENSITIVITY
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	tier, err := conflict.ParseSensitivity(deps.Cfg.Prefix("CORE_MEDIATION_").MayString("SENSITIVITY", string(conflict.Ultra)))
	if err != nil {
		deps.Logger("scoring").Warn().Err(err).Msg("falling back to ultra sensitivity")
		tier = conflict.Ultra
	}
	m := &Module{Base: modkit.Build([]modkit.Option{modkit.WithName("scoring")}, opts...)}
	m.Register = func(r httpkit.Router) { scorehttp.Register(r, tier) }
	return m
}
