package sweep

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/store"
)

//go:embed lease.sql
var leaseSchema string

// Lease gates a pass so that one replica sweeps at a time
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
}

// PGLease claims a named row in sweep_leases; an expired claim is taken over
type PGLease struct {
	q     store.RowQuerier
	name  string
	owner string
	ttl   time.Duration
}

// NewPGLease builds a lease held by this host and pid for ttl
func NewPGLease(q store.RowQuerier, name string, ttl time.Duration) *PGLease {
	host, _ := os.Hostname()
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PGLease{q: q, name: name, owner: fmt.Sprintf("%s:%d", host, os.Getpid()), ttl: ttl}
}

// EnsureSchema creates the lease table
func (l *PGLease) EnsureSchema(ctx context.Context) error {
	_, err := l.q.Exec(ctx, leaseSchema)
	return perr.FromPostgres(err, "sweep: ensure lease schema")
}

// Acquire claims or renews the lease. false means another owner holds it
func (l *PGLease) Acquire(ctx context.Context) (bool, error) {
	ok, err := store.Scalar[bool](ctx, l.q, `
		INSERT INTO sweep_leases (name, owner, expires_at)
		VALUES ($1, $2, now() + make_interval(secs => $3))
		ON CONFLICT (name) DO UPDATE
		   SET owner = EXCLUDED.owner, expires_at = EXCLUDED.expires_at
		 WHERE sweep_leases.expires_at <= now() OR sweep_leases.owner = EXCLUDED.owner
		RETURNING true
	`, l.name, l.owner, l.ttl.Seconds())
	if errors.Is(err, perr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, perr.FromPostgres(err, "sweep: acquire lease")
	}
	return ok, nil
}
