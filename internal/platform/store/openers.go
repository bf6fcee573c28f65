package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	chx "peacekeeper/internal/platform/store/ch"
	"peacekeeper/internal/platform/store/pg"
	"peacekeeper/internal/platform/store/rds"
)

// ping backoff
const (
	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// openPG opens the pool and only publishes the adapter once a ping succeeds
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:           cfg.PG.URL,
		AppName:       cfg.AppName,
		MaxConns:      cfg.PG.MaxConns,
		SlowMs:        cfg.PG.SlowQueryMs,
		IdleTxTimeout: cfg.PG.IdleTxTimeout,
	}, tracer)
	if err != nil {
		return nil, err
	}

	attempts := max(cfg.PG.ConnectRetries, 1)
	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	if err := pingWithBackoff(ctx, p.Pool, attempts, timeout); err != nil {
		p.Close()
		return nil, err
	}
	s.Log.Info().Str("app", cfg.AppName).Msg("postgres ready")
	return newPGAdapter(p), nil
}

func pingWithBackoff(ctx context.Context, pool *pgxpool.Pool, attempts int, timeout time.Duration) error {
	var lastErr error
	backoff := backoffStart
	for range attempts {
		toCtx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = pool.Ping(toCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, backoffCeiling)
	}
	return fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, lastErr)
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.CH.Role})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("role", cfg.CH.Role).Msg("clickhouse ready")
	return newCHAdapter(c), nil
}

func openRedis(ctx context.Context, cfg Config, s *Store) (*redis.Client, error) {
	c, err := rds.Open(ctx, rds.Config{
		Addr:       cfg.RDS.Addr,
		Password:   cfg.RDS.Password,
		DB:         cfg.RDS.DB,
		ClientName: cfg.AppName,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("addr", cfg.RDS.Addr).Msg("redis ready")
	return c, nil
}
