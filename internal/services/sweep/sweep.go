// Package sweep periodically re-checks channels that saw recent traffic
package sweep

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"peacekeeper/internal/platform/config"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/logger"
	ptime "peacekeeper/internal/platform/time"
	meddomain "peacekeeper/internal/services/mediation/domain"
	msgdomain "peacekeeper/internal/services/messages/domain"
)

// Channels lists channels with messages since a point in time
type Channels interface {
	ActiveChannels(ctx context.Context, since time.Time) ([]msgdomain.Channel, error)
}

// Checker runs one mediation pass for a channel
type Checker interface {
	Check(ctx context.Context, t meddomain.Trigger) (meddomain.Outcome, error)
}

// Config tunes the sweep loop
type Config struct {
	Interval    time.Duration
	Lookback    time.Duration
	Concurrency int
	// RetryDelay is the pause before the single retry of a retryable failure
	RetryDelay time.Duration
	LeaseTTL   time.Duration
}

// FromConfig reads SWEEP_* settings
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("SWEEP_")
	return Config{
		Interval:    c.MayDuration("INTERVAL", 30*time.Second),
		Lookback:    c.MayDuration("LOOKBACK", 10*time.Minute),
		Concurrency: c.MayInt("CONCURRENCY", 4),
		RetryDelay:  c.MayDuration("RETRY_DELAY", time.Second),
		LeaseTTL:    c.MayDuration("LEASE_TTL", time.Minute),
	}
}

// Result summarizes one pass
type Result struct {
	Channels int
	Mediated int
	Failed   int

	// Skipped is set when another replica holds the lease
	Skipped bool
}

// Sweeper drives Check over active channels
type Sweeper struct {
	cfg   Config
	chans Channels
	check Checker
	clock ptime.Clock
	lease Lease
	log   *logger.Logger
}

// Option customizes a Sweeper
type Option func(*Sweeper)

// WithLease skips passes while another replica holds l
func WithLease(l Lease) Option {
	return func(s *Sweeper) { s.lease = l }
}

// New builds a sweeper; a nil clock uses the system clock
func New(cfg Config, chans Channels, check Checker, clock ptime.Clock, opts ...Option) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 10 * time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	s := &Sweeper{
		cfg:   cfg,
		chans: chans,
		check: check,
		clock: clock.Or(),
		log:   logger.Named("sweep"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run sweeps once immediately and then every Interval until ctx is done
func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	for {
		if _, err := s.Once(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error().Err(err).Bool("retryable", perr.Retryable(err)).Msg("sweep failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Once runs a single pass. Per channel failures are logged and counted,
// only lease and listing failures are returned
func (s *Sweeper) Once(ctx context.Context) (Result, error) {
	if s.lease != nil {
		held, err := s.lease.Acquire(ctx)
		if err != nil {
			return Result{}, err
		}
		if !held {
			s.log.Debug().Msg("lease held elsewhere, skipping pass")
			return Result{Skipped: true}, nil
		}
	}
	since := s.clock().Add(-s.cfg.Lookback)
	chans, err := s.chans.ActiveChannels(ctx, since)
	if err != nil {
		return Result{}, err
	}

	var mediated, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, c := range chans {
		g.Go(func() error {
			out, err := s.checkOne(gctx, c)
			switch {
			case err != nil:
				failed.Add(1)
				s.log.Warn().Err(err).
					Str("channel_id", c.ChannelID).
					Bool("retryable", perr.Retryable(err)).
					Msg("channel check failed")
			case out.Mediated():
				mediated.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Channels: len(chans), Mediated: int(mediated.Load()), Failed: int(failed.Load())}
	s.log.Debug().
		Int("channels", res.Channels).
		Int("mediated", res.Mediated).
		Int("failed", res.Failed).
		Msg("sweep done")
	return res, ctx.Err()
}

// checkOne retries a retryable failure once after RetryDelay
func (s *Sweeper) checkOne(ctx context.Context, c msgdomain.Channel) (meddomain.Outcome, error) {
	t := meddomain.Trigger{ChannelID: c.ChannelID, GuildID: c.GuildID}
	out, err := s.check.Check(ctx, t)
	if err == nil || !perr.Retryable(err) {
		return out, err
	}
	select {
	case <-ctx.Done():
		return out, err
	case <-time.After(s.cfg.RetryDelay):
	}
	return s.check.Check(ctx, t)
}
