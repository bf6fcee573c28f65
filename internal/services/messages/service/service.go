// Package service implements the message store on top of the pg repo
package service

import (
	"context"
	"strings"
	"time"

	"peacekeeper/internal/modkit/repokit"
	perr "peacekeeper/internal/platform/errors"
	ptime "peacekeeper/internal/platform/time"
	"peacekeeper/internal/services/messages/domain"
	"peacekeeper/internal/services/messages/repo"

	"github.com/google/uuid"
)

// MaxWindow caps how many messages one read may return
const MaxWindow = 100

// Service implements domain.Store
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	clock  ptime.Clock
}

// New builds the service; clock may be nil
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], clock ptime.Clock) *Service {
	if db == nil {
		panic("messages.Service requires a non nil TxRunner")
	}
	if b == nil {
		panic("messages.Service requires a non nil binder")
	}
	return &Service{db: db, binder: b, clock: clock.Or()}
}

var _ domain.Store = (*Service)(nil)

func (s *Service) repo() repo.Storage { return repokit.MustBind(s.binder, s.db) }

// EnsureSchema creates the messages table when missing
func (s *Service) EnsureSchema(ctx context.Context) error {
	if err := s.repo().EnsureSchema(ctx); err != nil {
		return perr.FromPostgres(err, "messages: ensure schema")
	}
	return nil
}

// Recent returns up to limit messages for channelID, newest first
func (s *Service) Recent(ctx context.Context, channelID string, limit int) ([]domain.Message, error) {
	out, err := s.repo().Recent(ctx, channelID, clamp(limit))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "messages: recent %s", channelID)
	}
	return out, nil
}

// RecentSince is Recent restricted to messages after since
func (s *Service) RecentSince(ctx context.Context, channelID string, since time.Time, limit int) ([]domain.Message, error) {
	out, err := s.repo().RecentSince(ctx, channelID, since, clamp(limit))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "messages: recent since %s", channelID)
	}
	return out, nil
}

// Append stores m, filling a v7 id and the current time when absent
// the bool is false when a message with the same id already exists
func (s *Service) Append(ctx context.Context, m domain.Message) (domain.Message, bool, error) {
	m.ChannelID = strings.TrimSpace(m.ChannelID)
	m.AuthorID = strings.TrimSpace(m.AuthorID)
	if m.ChannelID == "" {
		return m, false, perr.WithField(perr.InvalidArgf("channel id is required"), "channel_id")
	}
	if m.AuthorID == "" {
		return m, false, perr.WithField(perr.InvalidArgf("author id is required"), "author_id")
	}
	if m.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return m, false, perr.Wrap(err, perr.ErrorCodeUnknown, "messages: id")
		}
		m.ID = id.String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.clock()
	}
	m.CreatedAt = m.CreatedAt.UTC()

	inserted, err := s.repo().Insert(ctx, m)
	if err != nil {
		return m, false, perr.FromPostgres(err, "messages: append")
	}
	return m, inserted, nil
}

// ActiveChannels lists channels with a message at or after since
func (s *Service) ActiveChannels(ctx context.Context, since time.Time) ([]domain.Channel, error) {
	out, err := s.repo().ActiveChannels(ctx, since)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "messages: active channels")
	}
	return out, nil
}

func clamp(limit int) int {
	switch {
	case limit <= 0:
		return 10
	case limit > MaxWindow:
		return MaxWindow
	}
	return limit
}
