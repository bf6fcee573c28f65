package service

import (
	"fmt"
	"strings"
	"time"

	"peacekeeper/internal/core/conflict"
	"peacekeeper/internal/core/policy"
	"peacekeeper/internal/core/respond"
	"peacekeeper/internal/platform/config"
)

// Policy backends
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Defaults
const (
	DefaultWindowSize = 10
	DefaultDBTimeout  = 5 * time.Second
)

// Config holds the resolved orchestrator settings
type Config struct {
	Sensitivity      conflict.Sensitivity
	GuildSensitivity map[string]conflict.Sensitivity
	TimeWindow       time.Duration
	WindowSize       int
	Limits           policy.Limits
	PolicyBackend    string
	GenerateTimeout  time.Duration
	// DBTimeout bounds each sink write, which outlives request cancellation
	DBTimeout time.Duration
}

// DefaultConfig mirrors the bot's stock behaviour
func DefaultConfig() Config {
	return Config{
		Sensitivity:     conflict.Ultra,
		TimeWindow:      conflict.DefaultWindow,
		WindowSize:      DefaultWindowSize,
		Limits:          policy.Limits{Cooldown: policy.DefaultCooldown, MaxPerHour: policy.DefaultMaxPerHour},
		PolicyBackend:   BackendLocal,
		GenerateTimeout: respond.DefaultTimeout,
		DBTimeout:       DefaultDBTimeout,
	}
}

// FromConfig reads CORE_MEDIATION_* from cfg
func FromConfig(cfg config.Conf) (Config, error) {
	c := DefaultConfig()
	m := cfg.Prefix("CORE_MEDIATION_")

	s, err := conflict.ParseSensitivity(m.MayString("SENSITIVITY", string(c.Sensitivity)))
	if err != nil {
		return c, err
	}
	c.Sensitivity = s

	for guild, tier := range m.MayMap("GUILD_SENSITIVITY") {
		gs, err := conflict.ParseSensitivity(tier)
		if err != nil {
			return c, fmt.Errorf("guild %s: %w", guild, err)
		}
		if c.GuildSensitivity == nil {
			c.GuildSensitivity = map[string]conflict.Sensitivity{}
		}
		c.GuildSensitivity[guild] = gs
	}

	c.TimeWindow = m.MayDuration("TIME_WINDOW", c.TimeWindow)
	c.WindowSize = m.MayInt("WINDOW_SIZE", c.WindowSize)
	c.Limits.Cooldown = m.MayDuration("COOLDOWN", c.Limits.Cooldown)
	c.Limits.MaxPerHour = m.MayInt("MAX_PER_HOUR", c.Limits.MaxPerHour)
	c.PolicyBackend = strings.ToLower(m.MayString("POLICY_BACKEND", c.PolicyBackend))
	c.GenerateTimeout = m.MayDuration("GENERATE_TIMEOUT", c.GenerateTimeout)
	c.DBTimeout = m.MayDuration("DB_TIMEOUT", c.DBTimeout)
	return c, c.Validate()
}

// Validate rejects settings the orchestrator cannot run with
func (c Config) Validate() error {
	switch {
	case c.TimeWindow <= 0:
		return fmt.Errorf("mediation: time window must be positive, got %s", c.TimeWindow)
	case c.WindowSize <= 0:
		return fmt.Errorf("mediation: window size must be positive, got %d", c.WindowSize)
	case c.Limits.Cooldown < 0:
		return fmt.Errorf("mediation: cooldown must not be negative")
	case c.Limits.MaxPerHour < 0:
		return fmt.Errorf("mediation: max per hour must not be negative")
	}
	switch c.PolicyBackend {
	case BackendLocal, BackendRedis:
		return nil
	}
	return fmt.Errorf("mediation: unknown policy backend %q (want local|redis)", c.PolicyBackend)
}

// Threshold resolves the detection threshold for guildID
func (c Config) Threshold(guildID string) float64 {
	if s, ok := c.GuildSensitivity[guildID]; ok && guildID != "" {
		return s.Threshold()
	}
	return c.Sensitivity.Threshold()
}
