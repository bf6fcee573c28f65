// Package http exposes message ingest and window reads
package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"time"

	"peacekeeper/internal/modkit/httpkit"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/logger"
	pnet "peacekeeper/internal/platform/net"
	"peacekeeper/internal/services/messages/domain"
)

// AfterAppend runs for every newly stored message and its result is
// returned to the caller alongside the message
type AfterAppend func(ctx context.Context, m domain.Message) (any, error)

// IngestInput is the POST /messages body
type IngestInput struct {
	ID        string `json:"id,omitempty"`
	ChannelID string `json:"channel_id" validate:"notblank,max=64"`
	GuildID   string `json:"guild_id,omitempty" validate:"max=64"`
	AuthorID  string `json:"author_id" validate:"notblank,max=64"`
	Content   string `json:"content" validate:"max=4000"`
	// Timestamp is unix seconds, zero means now
	Timestamp int64 `json:"timestamp,omitempty" validate:"gte=0"`
}

// IngestResult is returned by POST /messages
type IngestResult struct {
	Message   domain.Message `json:"message"`
	Duplicate bool           `json:"duplicate"`
	Check     any            `json:"check,omitempty"`
	// CheckError is set when the message was stored but its check failed.
	// Re-posting the message is a duplicate and will not check again
	CheckError string `json:"check_error,omitempty"`
}

// Register mounts the message routes
// after may be nil, in which case ingest only stores
func Register(r httpkit.Router, s domain.Store, after func() AfterAppend) {
	h := &handlers{svc: s, after: after}
	httpkit.PostJSON(r, "/", h.ingest)
	httpkit.Get(r, "/", h.recent)
}

type handlers struct {
	svc   domain.Store
	after func() AfterAppend
}

// @Summary Ingest a chat message and check its channel
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body IngestInput true "Message"
// @Success 201 {object} IngestResult
// @Router /messages [post]
func (h *handlers) ingest(r *stdhttp.Request, in IngestInput) (any, error) {
	guild := in.GuildID
	if guild == "" {
		guild = pnet.GuildID(r.Context())
	}
	m := domain.Message{
		ID:        in.ID,
		ChannelID: in.ChannelID,
		GuildID:   guild,
		AuthorID:  in.AuthorID,
		Content:   in.Content,
	}
	if in.Timestamp > 0 {
		m.CreatedAt = time.Unix(in.Timestamp, 0)
	}

	stored, inserted, err := h.svc.Append(r.Context(), m)
	if err != nil {
		return nil, err
	}
	res := IngestResult{Message: stored, Duplicate: !inserted}
	if !inserted {
		return httpkit.OK(res), nil
	}
	if h.after != nil {
		if fn := h.after(); fn != nil {
			out, err := fn(r.Context(), stored)
			if err != nil {
				logger.C(r.Context()).Warn().Err(err).
					Str("channel_id", stored.ChannelID).Str("message_id", stored.ID).
					Msg("message stored, check failed")
				res.CheckError = err.Error()
			} else {
				res.Check = out
			}
		}
	}
	return httpkit.Created(res), nil
}

// @Summary Recent messages in a channel, newest first
// @Tags Messages
// @Produce json
// @Param channel_id query string true "Channel"
// @Param limit query int false "Max messages"
// @Success 200 {array} domain.Message
// @Router /messages [get]
func (h *handlers) recent(r *stdhttp.Request) (any, error) {
	q := r.URL.Query()
	ch := q.Get("channel_id")
	if ch == "" {
		return nil, perr.WithField(perr.InvalidArgf("channel_id is required"), "channel_id")
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, perr.WithField(perr.InvalidArgf("limit must be a positive integer"), "limit")
		}
		limit = n
	}
	out, err := h.svc.Recent(r.Context(), ch, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Message{}
	}
	return out, nil
}
