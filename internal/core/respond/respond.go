// Package respond picks the text used to mediate a detected conflict.
//
// A Generator produces context aware prose when one is configured. Any
// failure, timeout or empty answer falls back to canned pools chosen by
// conflict kind, and that path cannot fail.
package respond

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/platform/logger"
)

// Defaults
const (
	DefaultTimeout     = 45 * time.Second
	DefaultContextSize = 5
)

// Source says where a response came from
type Source string

// Sources
const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Generator turns a conversation window into mediation prose
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Response is the chosen text and its origin
type Response struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// Option configures a Selector
type Option func(*Selector)

// WithRand injects the random source used for fallback picks
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithTimeout bounds the generator call
func WithTimeout(d time.Duration) Option {
	return func(s *Selector) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithContextSize sets how many trailing messages the generator sees
func WithContextSize(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.contextSize = n
		}
	}
}

// WithPools replaces the canned lines
func WithPools(p Pools) Option {
	return func(s *Selector) { s.pools = p }
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.log = l
		}
	}
}

// Selector chooses mediation text
type Selector struct {
	gen         Generator
	pools       Pools
	timeout     time.Duration
	contextSize int
	log         *logger.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New builds a Selector. gen may be nil, in which case only the pools are used
func New(gen Generator, opts ...Option) *Selector {
	s := &Selector{
		gen:         gen,
		pools:       DefaultPools(),
		timeout:     DefaultTimeout,
		contextSize: DefaultContextSize,
		log:         logger.Nop(),
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Select asks the generator for a response and falls back on any problem
func (s *Selector) Select(ctx context.Context, reasons conflict.Reasons, confidence float64, window []conflict.Message) Response {
	if s.gen != nil {
		req := Request{Context: tail(window, s.contextSize), Reasons: reasons, Confidence: confidence}

		gctx, cancel := context.WithTimeout(ctx, s.timeout)
		text, err := s.gen.Generate(gctx, req)
		cancel()

		text = strings.TrimSpace(text)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("conflict_type", req.Label()).Msg("generator failed, using fallback")
		case text == "":
			s.log.Warn().Str("conflict_type", req.Label()).Msg("generator returned nothing, using fallback")
		default:
			return Response{Text: text, Source: SourceGenerated}
		}
	}
	return Response{Text: s.Fallback(reasons), Source: SourceFallback}
}

// Fallback picks a canned line. Hostile language outranks rapid exchange,
// which outranks escalation; anything else uses the default pool
func (s *Selector) Fallback(reasons conflict.Reasons) string {
	pool := s.pools.Default
	switch {
	case reasons.Has(conflict.HostileLanguage):
		pool = s.pools.Hostile
	case reasons.Has(conflict.RapidExchange):
		pool = s.pools.Rapid
	case reasons.Has(conflict.EscalatingTension):
		pool = s.pools.Escalating
	}
	if len(pool) == 0 {
		pool = s.pools.Default
	}
	if len(pool) == 0 {
		return Neutral
	}

	s.mu.Lock()
	i := s.rng.IntN(len(pool))
	s.mu.Unlock()
	return pool[i]
}

func tail(msgs []conflict.Message, n int) []conflict.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
