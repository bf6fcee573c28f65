// Package http provides meta endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/core/version"
	"peacekeeper/internal/modkit/httpkit"
)

// Pinger is satisfied by backends that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Engine is the effective detection and policy setup
type Engine struct {
	Sensitivity      conflict.Sensitivity            `json:"sensitivity"`
	Threshold        float64                         `json:"threshold"`
	GuildSensitivity map[string]conflict.Sensitivity `json:"guild_sensitivity,omitempty"`
	TimeWindowSecs   int64                           `json:"time_window_seconds"`
	WindowSize       int                             `json:"window_size"`
	CooldownSecs     int64                           `json:"cooldown_seconds"`
	MaxPerHour       int                             `json:"max_per_hour"`
	PolicyBackend    string                          `json:"policy_backend"`
	Generator        bool                            `json:"generator"`
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	// Backends maps a name to a Pinger; nil entries report skipped
	Backends map[string]Pinger
	Engine   Engine
	Clock    func() time.Time
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/engine", h.engine)
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"peacekeeper"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// EngineResponse pairs the engine setup with the build
type EngineResponse struct {
	Engine
	Tiers map[conflict.Sensitivity]float64 `json:"tiers"`
	Build version.BuildInfo                `json:"build"`
}

// @Summary Readiness with per backend checks
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	out := ReadyResponse{Status: "ok", Now: h.deps.Clock().UTC().Format(time.RFC3339)}
	for _, name := range []string{"pg", "ch", "redis"} {
		c := ReadyCheck{Name: name, Status: "skipped"}
		if p := h.deps.Backends[name]; p != nil {
			c.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
			}
		}
		switch {
		case c.Status == "fail" && name == "pg":
			out.Status = "fail"
		case c.Status == "fail" && out.Status == "ok":
			out.Status = "degraded"
		}
		out.Checks = append(out.Checks, c)
	}
	return out, nil
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.deps.Clock().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

// @Summary Effective sensitivity, window and policy settings
// @Tags Meta
// @Produce json
// @Success 200 {object} EngineResponse
// @Router /meta/engine [get]
func (h *handlers) engine(_ *http.Request) (any, error) {
	tiers := map[conflict.Sensitivity]float64{}
	for _, s := range []conflict.Sensitivity{conflict.Low, conflict.Medium, conflict.High, conflict.Ultra} {
		tiers[s] = s.Threshold()
	}
	return EngineResponse{Engine: h.deps.Engine, Tiers: tiers, Build: version.Info()}, nil
}
