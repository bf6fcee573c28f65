// Package logger wraps zerolog with process defaults and carries request,
// guild and channel identifiers through context
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"peacekeeper/internal/core/version"
	"peacekeeper/internal/platform/config/raw"
)

// Logger is the logging type passed around the codebase
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level     string // zerolog level name, unknown names mean debug
	Format    string // "console" or "json"
	Service   string
	Component string
	Writer    io.Writer // defaults to stdout

	WithCaller   bool
	SampleEvery  int
	StaticFields map[string]string
}

// FromEnv reads LOG_* through the raw view, which never logs itself
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       strings.ToLower(rc.Get("LEVEL", "debug")),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", "peacekeeper"),
		Component:   rc.Get("COMPONENT", ""),
		WithCaller:  rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	initOnce sync.Once
	rootLog  atomic.Pointer[Logger]
)

// Init builds the root logger. Only the first call has any effect
func Init(opt Options) {
	initOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		l := build(opt)
		rootLog.Store(&l)
	})
}

func build(opt Options) Logger {
	out := opt.Writer
	if out == nil {
		out = os.Stdout
	}
	if opt.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	fields := map[string]any{"version": version.Info().Version}
	if opt.Service != "" {
		fields["service"] = opt.Service
	}
	if opt.Component != "" {
		fields["component"] = opt.Component
	}
	for k, v := range opt.StaticFields {
		fields[k] = v
	}

	lc := zerolog.New(out).Level(level(opt.Level)).With().Timestamp().Fields(fields)
	if opt.WithCaller {
		lc = lc.Caller()
	}
	l := lc.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

func level(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.DebugLevel
	}
	return lvl
}

// Get returns the root logger, initialising it from the environment on first use
func Get() *Logger {
	if l := rootLog.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return rootLog.Load()
}

// Named returns a child of the root logger tagged with component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}

// Nop is a disabled logger
func Nop() *Logger {
	l := zerolog.Nop()
	return &l
}

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyGuildID   ctxKey = "guild_id"
	keyChannelID ctxKey = "channel_id"
)

var ctxKeys = [...]ctxKey{keyRequestID, keyGuildID, keyChannelID}

// WithRequest stores the request id and the guild it concerns on ctx
func WithRequest(ctx context.Context, reqID, guildID string) context.Context {
	return put(put(ctx, keyRequestID, reqID), keyGuildID, guildID)
}

// WithChannel stores the channel being checked on ctx
func WithChannel(ctx context.Context, channelID string) context.Context {
	return put(ctx, keyChannelID, channelID)
}

func put(ctx context.Context, k ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

// C returns a root child carrying whichever ids ctx holds
func C(ctx context.Context) *Logger {
	lc := Get().With()
	for _, k := range ctxKeys {
		if v, _ := ctx.Value(k).(string); v != "" {
			lc = lc.Str(string(k), v)
		}
	}
	l := lc.Logger()
	return &l
}
