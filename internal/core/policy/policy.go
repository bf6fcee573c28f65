// Package policy rate limits mediation interventions per channel.
//
// Each channel gets a cooldown between interventions and a cap on how many
// may happen in any trailing hour. Channel state lives in a concurrent map
// and every entry carries its own lock, so unrelated channels never contend.
package policy

import (
	"slices"
	"sync"
	"time"

	ptime "peacekeeper/internal/platform/time"
)

// Defaults
const (
	DefaultCooldown   = 5 * time.Minute
	DefaultMaxPerHour = 3

	rollingWindow = time.Hour
)

// Limits are the resolved cooldown and hourly cap for one decision
type Limits struct {
	Cooldown   time.Duration
	MaxPerHour int
}

// Stats is a read-only view of one channel
type Stats struct {
	InterventionsLastHour int `json:"interventions_last_hour"`
	// MinutesSinceLast is -1 when the channel was never mediated
	MinutesSinceLast         int64 `json:"minutes_since_last"`
	CanInterveneNow          bool  `json:"can_intervene_now"`
	CooldownMinutesRemaining int64 `json:"cooldown_minutes_remaining"`
}

// Option configures a Policy
type Option func(*Policy)

// WithCooldown sets the default cooldown, zero disables it
func WithCooldown(d time.Duration) Option {
	return func(p *Policy) {
		if d >= 0 {
			p.limits.Cooldown = d
		}
	}
}

// WithMaxPerHour sets the default rolling hour cap
func WithMaxPerHour(n int) Option {
	return func(p *Policy) {
		if n >= 0 {
			p.limits.MaxPerHour = n
		}
	}
}

// WithClock injects the time source
func WithClock(c ptime.Clock) Option {
	return func(p *Policy) { p.now = c.Or() }
}

// Policy is the in-memory per-channel limiter
type Policy struct {
	limits   Limits
	now      ptime.Clock
	channels sync.Map // channel id -> *channelState
}

type channelState struct {
	mu   sync.Mutex
	last time.Time
	has  bool
	log  []time.Time // ascending
}

// New builds a Policy with the default limits
func New(opts ...Option) *Policy {
	p := &Policy{
		limits: Limits{Cooldown: DefaultCooldown, MaxPerHour: DefaultMaxPerHour},
		now:    ptime.System,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Limits returns the configured defaults
func (p *Policy) Limits() Limits { return p.limits }

// CanIntervene applies the configured limits
func (p *Policy) CanIntervene(channelID string) bool {
	return p.CanInterveneWith(channelID, p.limits)
}

// CanInterveneWith applies per-call limits. Repeated calls without a
// RecordIntervention in between return the same answer
func (p *Policy) CanInterveneWith(channelID string, lim Limits) bool {
	v, ok := p.channels.Load(channelID)
	if !ok {
		return lim.MaxPerHour > 0
	}
	st := v.(*channelState)
	now := p.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.has && now.Sub(st.last) < lim.Cooldown {
		return false
	}
	st.prune(now)
	return len(st.log) < lim.MaxPerHour
}

// RecordIntervention marks an intervention in channelID at the current time
func (p *Policy) RecordIntervention(channelID string) {
	v, _ := p.channels.LoadOrStore(channelID, &channelState{})
	st := v.(*channelState)
	now := p.now()

	st.mu.Lock()
	st.prune(now)
	st.last, st.has = now, true
	st.log = append(st.log, now)
	st.mu.Unlock()
}

// Stats reports the channel without touching its state
func (p *Policy) Stats(channelID string) Stats {
	return p.StatsWith(channelID, p.limits)
}

// StatsWith is Stats under per-call limits
func (p *Policy) StatsWith(channelID string, lim Limits) Stats {
	s := Stats{MinutesSinceLast: -1, CanInterveneNow: lim.MaxPerHour > 0}
	v, ok := p.channels.Load(channelID)
	if !ok {
		return s
	}
	st := v.(*channelState)
	now := p.now()

	st.mu.Lock()
	defer st.mu.Unlock()

	for _, t := range st.log {
		if now.Sub(t) < rollingWindow {
			s.InterventionsLastHour++
		}
	}
	coolingDown := false
	if st.has {
		elapsed := now.Sub(st.last)
		s.MinutesSinceLast = int64(elapsed / time.Minute)
		if elapsed < lim.Cooldown {
			coolingDown = true
			s.CooldownMinutesRemaining = int64((lim.Cooldown - elapsed) / time.Minute)
		}
	}
	s.CanInterveneNow = !coolingDown && s.InterventionsLastHour < lim.MaxPerHour
	return s
}

// Reset drops all state for channelID
func (p *Policy) Reset(channelID string) {
	p.channels.Delete(channelID)
}

// Channels lists channels with state, sorted
func (p *Policy) Channels() []string {
	var out []string
	p.channels.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	slices.Sort(out)
	return out
}

// prune drops log entries older than the rolling window. Caller holds mu
func (st *channelState) prune(now time.Time) {
	i := 0
	for i < len(st.log) && now.Sub(st.log[i]) >= rollingWindow {
		i++
	}
	if i > 0 {
		st.log = slices.Delete(st.log, 0, i)
	}
}
