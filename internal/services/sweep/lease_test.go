package sweep

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peacekeeper/internal/platform/store"
)

type boolRow struct {
	v   bool
	err error
}

func (r boolRow) Scan(dst ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dst[0].(*bool)) = r.v
	return nil
}

type leaseDB struct {
	store.RowQuerier
	row  boolRow
	sql  string
	args []any
}

func (d *leaseDB) QueryRow(_ context.Context, sql string, args ...any) store.Row {
	d.sql, d.args = sql, args
	return d.row
}

func TestPGLease_Acquire(t *testing.T) {
	db := &leaseDB{row: boolRow{v: true}}
	l := NewPGLease(db, "sweep", 90*time.Second)

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strings.Contains(db.sql, "ON CONFLICT (name)"))
	require.Len(t, db.args, 3)
	assert.Equal(t, "sweep", db.args[0])
	assert.InDelta(t, 90.0, db.args[2], 1e-9)
}

func TestPGLease_HeldElsewhere(t *testing.T) {
	db := &leaseDB{row: boolRow{err: pgx.ErrNoRows}}
	ok, err := NewPGLease(db, "sweep", 0).Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPGLease_Error(t *testing.T) {
	db := &leaseDB{row: boolRow{err: errors.New("conn reset")}}
	_, err := NewPGLease(db, "sweep", 0).Acquire(context.Background())
	require.Error(t, err)
}
