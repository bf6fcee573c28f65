// Package http exposes channel checks, policy diagnostics, conflict views
// and the mediation outbox
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"peacekeeper/internal/core/policy"
	"peacekeeper/internal/modkit/httpkit"
	perr "peacekeeper/internal/platform/errors"
	pnet "peacekeeper/internal/platform/net"
	cdomain "peacekeeper/internal/services/conflicts/domain"
	"peacekeeper/internal/services/mediation/domain"
)

// Mediator is the orchestrator surface the handlers need
type Mediator interface {
	Check(ctx context.Context, t domain.Trigger) (domain.Outcome, error)
	Stats(ctx context.Context, channelID string) (policy.Stats, error)
	Reset(ctx context.Context, channelID string) error
	Conflicts(ctx context.Context, channelID string, limit int) ([]cdomain.Record, error)
	Resolve(ctx context.Context, conflictID int64) error
}

// Outbox is drained by the external transport
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]domain.OutboxEntry, error)
	Ack(ctx context.Context, id string) error
}

// ChannelStats is the GET /channels/{id}/stats body
type ChannelStats struct {
	ChannelID string `json:"channel_id"`
	policy.Stats
	CooldownSeconds int64 `json:"cooldown_seconds"`
	MaxPerHour      int   `json:"max_per_hour"`
}

// Register mounts the routes; outbox may be nil
func Register(r httpkit.Router, m Mediator, lim policy.Limits, outbox Outbox) {
	h := &handlers{svc: m, lim: lim, outbox: outbox}
	r.Route("/channels/{channelID}", func(r httpkit.Router) {
		httpkit.Post(r, "/check", h.check)
		httpkit.Get(r, "/stats", h.stats)
		httpkit.Delete(r, "/state", h.reset)
		httpkit.Get(r, "/conflicts", h.conflicts)
		httpkit.Post(r, "/conflicts/{conflictID}/resolve", h.resolve)
	})
	if outbox != nil {
		r.Route("/outbox", func(r httpkit.Router) {
			httpkit.Get(r, "/", h.pending)
			httpkit.Post(r, "/{entryID}/ack", h.ack)
		})
	}
}

type handlers struct {
	svc    Mediator
	lim    policy.Limits
	outbox Outbox
}

func channel(r *stdhttp.Request) (string, error) {
	ch := strings.TrimSpace(httpkit.Param(r, "channelID"))
	if ch == "" {
		return "", perr.WithField(perr.InvalidArgf("channel id is required"), "channel_id")
	}
	return ch, nil
}

func limit(r *stdhttp.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, perr.WithField(perr.InvalidArgf("limit must be a positive integer"), "limit")
	}
	return n, nil
}

// @Summary Run a conflict check for a channel
// @Tags Mediation
// @Produce json
// @Param channelID path string true "Channel"
// @Param guild_id query string false "Guild, defaults to X-Guild-ID"
// @Param message_id query string false "Triggering message"
// @Success 200 {object} domain.Outcome
// @Failure 503 {object} phttp.Envelope
// @Router /channels/{channelID}/check [post]
func (h *handlers) check(r *stdhttp.Request) (any, error) {
	ch, err := channel(r)
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	guild := q.Get("guild_id")
	if guild == "" {
		guild = pnet.GuildID(r.Context())
	}
	return h.svc.Check(r.Context(), domain.Trigger{ChannelID: ch, GuildID: guild, MessageID: q.Get("message_id")})
}

// @Summary Mediation policy state of a channel
// @Tags Mediation
// @Produce json
// @Param channelID path string true "Channel"
// @Success 200 {object} ChannelStats
// @Router /channels/{channelID}/stats [get]
func (h *handlers) stats(r *stdhttp.Request) (any, error) {
	ch, err := channel(r)
	if err != nil {
		return nil, err
	}
	st, err := h.svc.Stats(r.Context(), ch)
	if err != nil {
		return nil, err
	}
	return ChannelStats{
		ChannelID:       ch,
		Stats:           st,
		CooldownSeconds: int64(h.lim.Cooldown / time.Second),
		MaxPerHour:      h.lim.MaxPerHour,
	}, nil
}

// @Summary Clear the mediation policy state of a channel
// @Tags Mediation
// @Param channelID path string true "Channel"
// @Success 204
// @Router /channels/{channelID}/state [delete]
func (h *handlers) reset(r *stdhttp.Request) (any, error) {
	ch, err := channel(r)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Reset(r.Context(), ch); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary Recent conflicts in a channel
// @Tags Mediation
// @Produce json
// @Param channelID path string true "Channel"
// @Param limit query int false "Max records"
// @Success 200 {array} cdomain.Record
// @Router /channels/{channelID}/conflicts [get]
func (h *handlers) conflicts(r *stdhttp.Request) (any, error) {
	ch, err := channel(r)
	if err != nil {
		return nil, err
	}
	n, err := limit(r, 20)
	if err != nil {
		return nil, err
	}
	return h.svc.Conflicts(r.Context(), ch, n)
}

// @Summary Mark a conflict resolved
// @Tags Mediation
// @Param channelID path string true "Channel"
// @Param conflictID path int true "Conflict"
// @Success 204
// @Router /channels/{channelID}/conflicts/{conflictID}/resolve [post]
func (h *handlers) resolve(r *stdhttp.Request) (any, error) {
	id, err := strconv.ParseInt(httpkit.Param(r, "conflictID"), 10, 64)
	if err != nil || id < 1 {
		return nil, perr.WithField(perr.InvalidArgf("conflict id must be a positive integer"), "conflict_id")
	}
	if err := h.svc.Resolve(r.Context(), id); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary Undelivered mediation texts, oldest first
// @Tags Outbox
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {array} domain.OutboxEntry
// @Router /outbox [get]
func (h *handlers) pending(r *stdhttp.Request) (any, error) {
	n, err := limit(r, 100)
	if err != nil {
		return nil, err
	}
	out, err := h.outbox.Pending(r.Context(), n)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.OutboxEntry{}
	}
	return out, nil
}

// @Summary Acknowledge delivery of an outbox entry
// @Tags Outbox
// @Param entryID path string true "Entry"
// @Success 204
// @Router /outbox/{entryID}/ack [post]
func (h *handlers) ack(r *stdhttp.Request) (any, error) {
	if err := h.outbox.Ack(r.Context(), httpkit.Param(r, "entryID")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
