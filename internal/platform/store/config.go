package store

import (
	"time"

	"peacekeeper/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG  PGConfig
	CH  CHConfig
	RDS RedisConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // ping attempts before giving up
	PingTimeout    time.Duration // per attempt
	IdleTxTimeout  time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	// Role tags the client info, e.g. "api" or "sweep"
	Role string
}

// RedisConfig configures redis connectivity
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// FromConfig reads PG_*, CH_* and REDIS_* settings. A backend is enabled
// when its address is set
func FromConfig(cfg config.Conf, appName string) Config {
	pg := cfg.Prefix("PG_")
	ch := cfg.Prefix("CH_")
	rd := cfg.Prefix("REDIS_")

	out := Config{
		AppName: appName,
		PG: PGConfig{
			URL:            pg.MayString("URL", ""),
			MaxConns:       int32(pg.MayInt("MAX_CONNS", 10)),
			LogSQL:         pg.MayBool("LOG_SQL", false),
			SlowQueryMs:    pg.MayInt("SLOW_MS", 200),
			ConnectRetries: pg.MayInt("CONNECT_RETRIES", 20),
			PingTimeout:    pg.MayDuration("PING_TIMEOUT", 3*time.Second),
			IdleTxTimeout:  pg.MayDuration("IDLE_TX_TIMEOUT", time.Minute),
		},
		CH: CHConfig{
			URL:  ch.MayString("URL", ""),
			Role: appName,
		},
		RDS: RedisConfig{
			Addr:     rd.MayString("ADDR", ""),
			Password: rd.MayString("PASSWORD", ""),
			DB:       rd.MayInt("DB", 0),
		},
	}
	out.PG.Enabled = out.PG.URL != ""
	out.CH.Enabled = out.CH.URL != ""
	out.RDS.Enabled = out.RDS.Addr != ""
	return out
}
