package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	"peacekeeper/internal/platform/config"
	pstrings "peacekeeper/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestID attaches or propagates X-Request-ID
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP sets RemoteAddr from X-Forwarded-For or X-Real-IP
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// NoCache disables client and proxy caching
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Compress wraps chi's compressor
func Compress(level int) func(http.Handler) http.Handler {
	c := chimw.NewCompressor(level)
	return func(next http.Handler) http.Handler { return c.Handler(next) }
}

// StripSlashes strips a trailing slash from the request path
func StripSlashes() func(http.Handler) http.Handler { return chimw.StripSlashes }

// Throttle caps concurrent requests, 0 disables
func Throttle(limit int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.Throttle(limit)
}

// AllowContentType whitelists request content types for bodies
func AllowContentType(ct ...string) func(http.Handler) http.Handler {
	return chimw.AllowContentType(ct...)
}

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS wraps go-chi/cors and fills empty lists with defaults
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: pstrings.IfEmpty(o.AllowedMethods, []string{"GET", "POST", "DELETE", "OPTIONS"}),
		AllowedHeaders: pstrings.IfEmpty(o.AllowedHeaders, []string{"Accept", "Content-Type", "X-Request-ID", "X-Guild-ID"}),
		MaxAge:         o.MaxAge,
	})
}

// StackOptions tunes the API middleware stack
type StackOptions struct {
	Timeout     time.Duration
	SlowRequest time.Duration
	MaxInFlight int
	CORSOrigins []string
}

// StackFromConfig reads API_ scoped stack settings
func StackFromConfig(cfg config.Conf) StackOptions {
	return StackOptions{
		Timeout:     cfg.MayDuration("REQUEST_TIMEOUT", 60*time.Second),
		SlowRequest: cfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
		MaxInFlight: cfg.MayInt("MAX_IN_FLIGHT", 0),
		CORSOrigins: cfg.MayCSV("CORS_ORIGINS", []string{"*"}),
	}
}

// Stack returns the middleware chain for /api/v1, outermost first
// the timeout must exceed the generation timeout or checks are cut short
func Stack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return []func(http.Handler) http.Handler{
		RequestID(),
		RealIP(),
		Scope(),
		RecoverJSON,
		AccessLog(AccessLogOptions{Slow: o.SlowRequest}),
		NoCache(),
		CORS(CORSOptions{AllowedOrigins: o.CORSOrigins}),
		Compress(flate.BestSpeed),
		StripSlashes(),
		Throttle(o.MaxInFlight),
		Timeout(o.Timeout),
	}
}
