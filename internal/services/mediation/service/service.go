// Package service is the mediation orchestrator. A check reads the channel
// window, runs the analyzer and, when the policy allows, picks mediation
// text, delivers it and records the trail
package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/core/policy"
	"peacekeeper/internal/core/respond"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/logger"
	ptime "peacekeeper/internal/platform/time"
	cdomain "peacekeeper/internal/services/conflicts/domain"
	"peacekeeper/internal/services/mediation/domain"
	mdomain "peacekeeper/internal/services/messages/domain"
)

// Deps are the collaborators of a Service. Sink and Analytics are optional
type Deps struct {
	Messages  domain.MessageStore
	Policy    domain.Policy
	Selector  domain.Selector
	Sender    domain.Sender
	Sink      cdomain.Sink
	Analytics cdomain.Analytics
	Log       *logger.Logger
	Clock     ptime.Clock
}

// Service runs checks
type Service struct {
	cfg Config
	d   Deps
	log *logger.Logger
}

// New validates cfg and the required collaborators
func New(cfg Config, d Deps) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case d.Messages == nil:
		return nil, perr.Internalf("mediation: message store is required")
	case d.Policy == nil:
		return nil, perr.Internalf("mediation: policy is required")
	case d.Sender == nil:
		return nil, perr.Internalf("mediation: sender is required")
	}
	if d.Selector == nil {
		d.Selector = respond.New(nil)
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{cfg: cfg, d: d, log: log}, nil
}

// Config returns the resolved settings
func (s *Service) Config() Config { return s.cfg }

// Check analyzes the channel window and mediates when warranted. The only
// error is a failed window read, which is retryable; every later
// collaborator failure is logged and degrades the outcome
func (s *Service) Check(ctx context.Context, t domain.Trigger) (out domain.Outcome, err error) {
	t.ChannelID = strings.TrimSpace(t.ChannelID)
	if t.ChannelID == "" {
		return out, perr.WithField(perr.InvalidArgf("channel id is required"), "channel_id")
	}
	log := s.log.With().Str("channel_id", t.ChannelID).Str("guild_id", t.GuildID).Logger()

	out = domain.Outcome{
		ChannelID: t.ChannelID,
		Threshold: s.cfg.Threshold(t.GuildID),
		Result:    cdomain.OutcomeCalm,
	}

	msgs, last, err := s.window(ctx, &log, t.ChannelID)
	if err != nil {
		return out, err
	}
	out.WindowSize = len(msgs)
	out.Participants = conflict.Participants(msgs)
	out.Verdict = conflict.Detect(msgs, conflict.Options{Window: s.cfg.TimeWindow, Threshold: conflict.Threshold(out.Threshold)})

	defer func() { s.emit(ctx, &log, t, out) }()

	if !out.Verdict.IsConflict {
		return out, nil
	}

	allowed, gateErr := s.d.Policy.CanIntervene(ctx, t.ChannelID, s.cfg.Limits)
	if gateErr != nil {
		log.Error().Err(gateErr).Msg("policy unavailable, skipping intervention")
	}
	if !allowed {
		log.Debug().Float64("confidence", out.Verdict.Confidence).Msg("conflict suppressed by policy")
		return s.suppress(ctx, &log, out), nil
	}
	// another process may have mediated this channel without touching our policy
	if !last.IsZero() && s.d.Clock.Or()().Sub(last) < s.cfg.Limits.Cooldown {
		log.Debug().Time("last_mediation", last).Msg("conflict suppressed by persisted cooldown")
		return s.suppress(ctx, &log, out), nil
	}

	out.ConflictID = s.recordConflict(ctx, &log, t, out)

	resp := s.d.Selector.Select(ctx, out.Verdict.Reasons, out.Verdict.Confidence, msgs)
	out.Response = &resp

	// owed even if delivery below fails or ctx is cancelled
	s.sinkWrite(ctx, func(wctx context.Context) error {
		return s.d.Policy.RecordIntervention(wctx, t.ChannelID)
	}, &log, "record intervention")

	msgID, sendErr := s.d.Sender.Send(ctx, t.ChannelID, resp.Text)
	delivered := sendErr == nil
	if delivered {
		out.Result = cdomain.OutcomeMediated
		out.MessageID = msgID
	} else {
		out.Result = cdomain.OutcomeUndelivered
		log.Warn().Err(sendErr).Msg("mediation not delivered")
	}

	if out.ConflictID > 0 && s.d.Sink != nil {
		s.sinkWrite(ctx, func(wctx context.Context) error {
			return s.d.Sink.RecordMediation(wctx, cdomain.MediationInput{
				ConflictID: out.ConflictID,
				ChannelID:  t.ChannelID,
				Text:       resp.Text,
				Source:     string(resp.Source),
				Delivered:  delivered,
			})
		}, &log, "record mediation")
		if delivered {
			s.sinkWrite(ctx, func(wctx context.Context) error {
				return s.d.Sink.MarkMediationTriggered(wctx, out.ConflictID, msgID)
			}, &log, "mark mediation triggered")
		}
	}

	if len(out.Participants) == 2 && s.d.Sink != nil {
		a, b := out.Participants[0], out.Participants[1]
		pair := conflict.AreInConflict(a, b, msgs)
		s.sinkWrite(ctx, func(wctx context.Context) error {
			return s.d.Sink.UpdateInteraction(wctx, a, b, t.ChannelID, pair)
		}, &log, "update interaction")
	}

	log.Info().
		Int64("conflict_id", out.ConflictID).
		Float64("confidence", out.Verdict.Confidence).
		Str("reasons", out.Verdict.Reasons.String()).
		Str("source", string(resp.Source)).
		Bool("delivered", delivered).
		Msg("mediation")
	return out, nil
}

// suppress marks out as suppressed and extends the open conflict, if any
func (s *Service) suppress(ctx context.Context, log *logger.Logger, out domain.Outcome) domain.Outcome {
	out.Result = cdomain.OutcomeSuppressed
	if s.d.Sink != nil {
		s.sinkWrite(ctx, func(wctx context.Context) error {
			return s.d.Sink.TouchConflict(wctx, out.ChannelID)
		}, log, "touch conflict")
	}
	return out
}

// window reads the messages after the last delivered mediation, or the most
// recent ones, and returns them oldest first with that mediation's time
// (zero when unknown)
func (s *Service) window(ctx context.Context, log *logger.Logger, channelID string) ([]conflict.Message, time.Time, error) {
	var (
		since time.Time
		has   bool
	)
	if s.d.Sink != nil {
		at, ok, err := s.d.Sink.LastMediationAt(ctx, channelID)
		if err != nil {
			log.Warn().Err(err).Msg("last mediation lookup failed, reading recent window")
		} else {
			since, has = at, ok
		}
	}

	var (
		rows []mdomain.Message
		err  error
	)
	if has {
		rows, err = s.d.Messages.RecentSince(ctx, channelID, since, s.cfg.WindowSize)
	} else {
		rows, err = s.d.Messages.Recent(ctx, channelID, s.cfg.WindowSize)
	}
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeUnavailable) {
			return nil, time.Time{}, err
		}
		return nil, time.Time{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "mediation: read window %s", channelID)
	}

	msgs := make([]conflict.Message, len(rows))
	for i, m := range rows {
		msgs[i] = m.Conflict()
	}
	slices.Reverse(msgs)
	return msgs, since, nil
}

func (s *Service) recordConflict(ctx context.Context, log *logger.Logger, t domain.Trigger, out domain.Outcome) int64 {
	if s.d.Sink == nil {
		return 0
	}
	var id int64
	s.sinkWrite(ctx, func(wctx context.Context) error {
		var err error
		id, err = s.d.Sink.RecordConflict(wctx, cdomain.ConflictInput{
			ChannelID:        t.ChannelID,
			GuildID:          t.GuildID,
			TriggerMessageID: t.MessageID,
			Participants:     out.Participants,
			Confidence:       out.Verdict.Confidence,
			Reasons:          out.Verdict.Reasons,
		})
		return err
	}, log, "record conflict")
	return id
}

// sinkWrite runs fn detached from ctx cancellation under the db timeout
func (s *Service) sinkWrite(ctx context.Context, fn func(context.Context) error, log *logger.Logger, op string) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DBTimeout)
	defer cancel()
	if err := fn(wctx); err != nil {
		log.Error().Err(err).Str("op", op).Msg("mediation write failed")
	}
}

func (s *Service) emit(ctx context.Context, log *logger.Logger, t domain.Trigger, out domain.Outcome) {
	if s.d.Analytics == nil {
		return
	}
	reasons := make([]string, 0, len(out.Verdict.Reasons))
	for _, r := range out.Verdict.Reasons.Slice() {
		reasons = append(reasons, string(r))
	}
	ev := cdomain.DetectionEvent{
		ChannelID:    t.ChannelID,
		GuildID:      t.GuildID,
		WindowSize:   out.WindowSize,
		Participants: len(out.Participants),
		IsConflict:   out.Verdict.IsConflict,
		Confidence:   out.Verdict.Confidence,
		Threshold:    out.Threshold,
		Reasons:      reasons,
		Outcome:      out.Result,
	}
	s.sinkWrite(ctx, func(wctx context.Context) error { return s.d.Analytics.Record(wctx, ev) }, log, "analytics")
}

// Stats reports the policy view of channelID under the configured limits
func (s *Service) Stats(ctx context.Context, channelID string) (policy.Stats, error) {
	st, err := s.d.Policy.Stats(ctx, channelID, s.cfg.Limits)
	if err != nil {
		return st, perr.Wrap(err, perr.ErrorCodeUnavailable, "mediation: policy stats")
	}
	return st, nil
}

// Reset clears the policy state of channelID
func (s *Service) Reset(ctx context.Context, channelID string) error {
	if err := s.d.Policy.Reset(ctx, channelID); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "mediation: policy reset")
	}
	s.log.Info().Str("channel_id", channelID).Msg("channel mediation state reset")
	return nil
}

// Conflicts lists recent conflict records; empty without a sink
func (s *Service) Conflicts(ctx context.Context, channelID string, limit int) ([]cdomain.Record, error) {
	if s.d.Sink == nil {
		return []cdomain.Record{}, nil
	}
	out, err := s.d.Sink.Recent(ctx, channelID, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []cdomain.Record{}
	}
	return out, nil
}

// Resolve marks a conflict resolved
func (s *Service) Resolve(ctx context.Context, conflictID int64) error {
	if s.d.Sink == nil {
		return perr.Unavailablef("mediation: no conflict sink configured")
	}
	if conflictID <= 0 {
		return perr.WithField(perr.InvalidArgf("conflict id must be positive"), "conflict_id")
	}
	return s.d.Sink.Resolve(ctx, conflictID)
}
