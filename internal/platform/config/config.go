// Package config reads prefixed environment variables.
//
// Must* accessors panic through the logger when a value is missing or
// malformed; they are meant for process start. May* accessors fall back to
// a default and log a warning when a value does not parse.
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"peacekeeper/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g., "CORE_MEDIATION_", "PG_")
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix, e.g. cfg.Prefix("LLM_")
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.key(k))) }

// must returns the parsed value of key or panics
func must[T any](c Conf, key, what string, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		logger.Get().Panic().Str("key", c.key(key)).Msg("missing required env")
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Panic().Str("key", c.key(key)).Str("value", s).Msg("invalid " + what)
	}
	return v
}

// may returns the parsed value of key, def when it is empty or does not parse
func may[T any](c Conf, key, what string, def T, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.key(key)).Str("value", s).Interface("default", def).
			Msg("invalid " + what + "; using default")
		return def
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

func asFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func asURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err == nil && !u.IsAbs() {
		err = strconv.ErrSyntax
	}
	return u, err
}

func asPort(s string) (string, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		return "", strconv.ErrRange
	}
	return ":" + s, nil
}

// MustString panics if the given key is missing or empty
func (c Conf) MustString(key string) string { return must(c, key, "string", asString) }

// MustInt panics if the given key is missing or not an int
func (c Conf) MustInt(key string) int { return must(c, key, "int value", strconv.Atoi) }

// MustBool panics if the given key is missing or not a bool
func (c Conf) MustBool(key string) bool { return must(c, key, "bool value", strconv.ParseBool) }

// MustDuration panics if the given key is missing or not a duration (250ms, 2s, 1h)
func (c Conf) MustDuration(key string) time.Duration {
	return must(c, key, "duration (e.g., 250ms, 2s, 1h)", time.ParseDuration)
}

// MustURL panics unless the key holds an absolute URL
func (c Conf) MustURL(key string) *url.URL { return must(c, key, "absolute URL", asURL) }

// MustPort returns a listen addr like ":4000" after validating 1..65535
func (c Conf) MustPort(key string) string {
	return must(c, key, "TCP port; expected 1..65535", asPort)
}

// Require panics unless all keys are present
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if c.lookup(k) == "" {
			logger.Get().Panic().Str("key", c.key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string { return may(c, key, "string", def, asString) }

// MayInt returns the value or def
func (c Conf) MayInt(key string, def int) int { return may(c, key, "int", def, strconv.Atoi) }

// MayFloat64 returns the value or def
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, "float64", def, asFloat)
}

// MayBool returns the value or def
func (c Conf) MayBool(key string, def bool) bool {
	return may(c, key, "bool", def, strconv.ParseBool)
}

// MayDuration returns the value or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, "duration", def, time.ParseDuration)
}

// MayCSV splits a comma-separated value, dropping blanks; def if nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayMap reads "k=v,k2=v2". Malformed pairs are logged and skipped
func (c Conf) MayMap(key string) map[string]string {
	out := map[string]string{}
	for _, pair := range c.MayCSV(key, nil) {
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			logger.Get().Warn().Str("key", c.key(key)).Str("pair", pair).Msg("invalid map entry; skipping")
			continue
		}
		out[k] = v
	}
	return out
}

// MayEnum ensures value is one of allowed; returns def if empty; panics if invalid
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(v)
		}
	}
	logger.Get().Panic().Str("key", c.key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
