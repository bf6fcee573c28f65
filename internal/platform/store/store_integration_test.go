//go:build integration_pg

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"peacekeeper/internal/platform/logger"
	"peacekeeper/internal/platform/testkit/containers"
)

func TestStore_PG_Integration(t *testing.T) {
	dsn := containers.Postgres(t)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	s, err := Open(ctx, Config{
		AppName: "peacekeeper-store-it",
		PG:      PGConfig{Enabled: true, URL: dsn, LogSQL: true, ConnectRetries: 10, PingTimeout: 2 * time.Second},
	}, WithLogger(logger.Named("store-it")))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close(ctx) }()

	if err := s.Guard(ctx); err != nil {
		t.Fatalf("guard: %v", err)
	}

	app, err := Scalar[string](ctx, s.PG, `select current_setting('application_name')`)
	if err != nil || app != "peacekeeper-store-it" {
		t.Fatalf("application_name = %q, %v", app, err)
	}

	if _, err := s.PG.Exec(ctx, `create table kv (k text primary key, v int not null)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	// committed
	err = s.PG.Tx(ctx, func(q RowQuerier) error {
		return ExecOne(ctx, q, `insert into kv (k, v) values ($1, $2)`, "a", 1)
	})
	if err != nil {
		t.Fatalf("tx commit: %v", err)
	}

	// rolled back
	rollback := errors.New("rollback")
	err = s.PG.Tx(ctx, func(q RowQuerier) error {
		if err := ExecOne(ctx, q, `insert into kv (k, v) values ($1, $2)`, "b", 2); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("tx rollback = %v", err)
	}

	keys, err := Many(ctx, s.PG, func(r Row) (string, error) {
		var k string
		err := r.Scan(&k)
		return k, err
	}, `select k from kv order by k`)
	if err != nil || len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("keys = %v, %v", keys, err)
	}
}
