// Package service implements the conflict sink and the detection analytics
// writer on top of the repos
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/modkit/repokit"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/logger"
	ptime "peacekeeper/internal/platform/time"
	"peacekeeper/internal/services/conflicts/domain"
	"peacekeeper/internal/services/conflicts/repo"
)

// MaxRecent caps one Recent read
const MaxRecent = 200

// EventWriter is the analytics surface the service needs
type EventWriter interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, evs ...domain.DetectionEvent) error
}

// Options tune the service
type Options struct {
	// StatementTimeout bounds every write tx; zero disables it
	StatementTimeout time.Duration
	Clock            ptime.Clock
	Log              *logger.Logger
}

// Service implements domain.Sink and domain.Analytics
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	events EventWriter
	clock  ptime.Clock
	log    *logger.Logger
}

var (
	_ domain.Sink      = (*Service)(nil)
	_ domain.Analytics = (*Service)(nil)
)

// New builds the service; events may be nil
func New(db repokit.TxRunner, b repokit.Binder[repo.Storage], events EventWriter, o Options) *Service {
	if db == nil {
		panic("conflicts.Service requires a non nil TxRunner")
	}
	if b == nil {
		panic("conflicts.Service requires a non nil binder")
	}
	log := o.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		db:     repokit.WithBeginHooks(db, repokit.StatementTimeout(o.StatementTimeout)),
		binder: b,
		events: events,
		clock:  o.Clock.Or(),
		log:    log,
	}
}

func (s *Service) write(ctx context.Context, fn func(repo.Storage) error) error {
	return s.db.Tx(ctx, func(q repokit.Queryer) error {
		return fn(repokit.MustBind(s.binder, q))
	})
}

// EnsureSchema creates the pg tables and, when attached, the analytics table
func (s *Service) EnsureSchema(ctx context.Context) error {
	if err := repokit.MustBind(s.binder, s.db).EnsureSchema(ctx); err != nil {
		return perr.FromPostgres(err, "conflicts: ensure schema")
	}
	if s.events != nil {
		if err := s.events.EnsureSchema(ctx); err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnavailable, "conflicts: ensure analytics schema")
		}
	}
	return nil
}

// RecordConflict stores in and returns its id
func (s *Service) RecordConflict(ctx context.Context, in domain.ConflictInput) (int64, error) {
	if strings.TrimSpace(in.ChannelID) == "" {
		return 0, perr.WithField(perr.InvalidArgf("channel id is required"), "channel_id")
	}
	if in.DetectedAt.IsZero() {
		in.DetectedAt = s.clock()
	}
	in.DetectedAt = in.DetectedAt.UTC()
	if in.Participants == nil {
		in.Participants = []string{}
	}

	var id int64
	err := s.write(ctx, func(r repo.Storage) error {
		var err error
		id, err = r.InsertConflict(ctx, in)
		return err
	})
	if err != nil {
		return 0, perr.FromPostgresf(err, "conflicts: record %s", in.ChannelID)
	}
	s.log.Debug().Str("channel_id", in.ChannelID).Int64("conflict_id", id).
		Float64("confidence", in.Confidence).Msg("conflict recorded")
	return id, nil
}

// RecordMediation appends one attempt to the audit trail
func (s *Service) RecordMediation(ctx context.Context, in domain.MediationInput) error {
	if in.ConflictID <= 0 {
		return perr.WithField(perr.InvalidArgf("conflict id is required"), "conflict_id")
	}
	if err := s.write(ctx, func(r repo.Storage) error { return r.InsertMediation(ctx, in) }); err != nil {
		return perr.FromPostgresf(err, "conflicts: record mediation %d", in.ConflictID)
	}
	return nil
}

// MarkMediationTriggered flags the conflict as answered by deliveredMessageID
func (s *Service) MarkMediationTriggered(ctx context.Context, conflictID int64, deliveredMessageID string) error {
	err := s.write(ctx, func(r repo.Storage) error { return r.MarkTriggered(ctx, conflictID, deliveredMessageID) })
	return s.mapOne(err, conflictID, "mark triggered")
}

// TouchConflict extends the newest open conflict in channelID to now; a
// channel with nothing open is left alone
func (s *Service) TouchConflict(ctx context.Context, channelID string) error {
	var id int64
	err := s.write(ctx, func(r repo.Storage) error {
		var err error
		id, err = r.TouchOpen(ctx, channelID, s.clock().UTC())
		return err
	})
	if err != nil {
		return perr.FromPostgresf(err, "conflicts: touch %s", channelID)
	}
	if id > 0 {
		s.log.Debug().Str("channel_id", channelID).Int64("conflict_id", id).Msg("conflict seen again")
	}
	return nil
}

// LastMediationAt is false when the channel never had a delivered mediation
func (s *Service) LastMediationAt(ctx context.Context, channelID string) (time.Time, bool, error) {
	at, err := repokit.MustBind(s.binder, s.db).LastDelivered(ctx, channelID)
	if err != nil {
		return time.Time{}, false, perr.Wrapf(err, perr.ErrorCodeUnavailable, "conflicts: last mediation %s", channelID)
	}
	if at == nil {
		return time.Time{}, false, nil
	}
	return at.UTC(), true, nil
}

// UpdateInteraction bumps the pair counters; the pair is unordered and a
// user paired with themselves is ignored
func (s *Service) UpdateInteraction(ctx context.Context, a, b, channelID string, inConflict bool) error {
	if a == "" || b == "" || a == b {
		return nil
	}
	if b < a {
		a, b = b, a
	}
	now := s.clock().UTC()
	err := s.write(ctx, func(r repo.Storage) error {
		return r.UpsertInteraction(ctx, a, b, channelID, inConflict, now)
	})
	if err != nil {
		return perr.FromPostgresf(err, "conflicts: interaction %s/%s", a, b)
	}
	return nil
}

// Resolve stamps the conflict as resolved; repeating it keeps the first time
func (s *Service) Resolve(ctx context.Context, conflictID int64) error {
	now := s.clock().UTC()
	err := s.write(ctx, func(r repo.Storage) error { return r.Resolve(ctx, conflictID, now) })
	return s.mapOne(err, conflictID, "resolve")
}

// Recent lists the newest conflicts in channelID
func (s *Service) Recent(ctx context.Context, channelID string, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, MaxRecent)
	out, err := repokit.MustBind(s.binder, s.db).Recent(ctx, channelID, limit)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "conflicts: recent %s", channelID)
	}
	for i := range out {
		rs := make(conflict.Reasons, len(out[i].Reasons))
		for _, r := range out[i].Reasons {
			rs.Add(conflict.Reason(r))
		}
		out[i].Reasons = rs.Strings()
	}
	return out, nil
}

// Record writes one detection event; without analytics it only logs
func (s *Service) Record(ctx context.Context, ev domain.DetectionEvent) error {
	if ev.At.IsZero() {
		ev.At = s.clock()
	}
	s.log.Debug().
		Str("channel_id", ev.ChannelID).
		Bool("conflict", ev.IsConflict).
		Float64("confidence", ev.Confidence).
		Str("outcome", string(ev.Outcome)).
		Msg("detection")
	if s.events == nil {
		return nil
	}
	if err := s.events.Insert(ctx, ev); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "conflicts: analytics insert")
	}
	return nil
}

func (s *Service) mapOne(err error, id int64, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, perr.ErrNotFound):
		return perr.WithField(perr.NotFoundf("conflict %d not found", id), "conflict_id")
	}
	return perr.FromPostgresf(err, "conflicts: %s %d", op, id)
}
