//go:build integration_redis

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peacekeeper/internal/core/policy"
	ptime "peacekeeper/internal/platform/time"
	"peacekeeper/internal/platform/testkit/containers"
)

func TestRedis_MatchesLocalSemantics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: containers.Redis(t)})
	defer func() { _ = rdb.Close() }()
	require.NoError(t, rdb.Ping(ctx).Err())

	clock := ptime.NewFake(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	r := NewRedis(rdb, "pk-it", clock.Now, 3*time.Hour)
	lim := policy.Limits{Cooldown: 0, MaxPerHour: 2}

	ok, err := r.CanIntervene(ctx, "fresh", lim)
	require.NoError(t, err)
	assert.True(t, ok, "fresh channel may intervene")

	st, err := r.Stats(ctx, "fresh", lim)
	require.NoError(t, err)
	assert.Equal(t, policy.Stats{MinutesSinceLast: -1, CanInterveneNow: true}, st)

	require.NoError(t, r.RecordIntervention(ctx, "c1"))
	require.NoError(t, r.RecordIntervention(ctx, "c1"))
	ok, err = r.CanIntervene(ctx, "c1", lim)
	require.NoError(t, err)
	assert.False(t, ok, "hourly cap reached")

	ok2, _ := r.CanIntervene(ctx, "c1", lim)
	assert.Equal(t, ok, ok2, "repeated checks agree")

	clock.Advance(time.Hour + time.Second)
	ok, err = r.CanIntervene(ctx, "c1", lim)
	require.NoError(t, err)
	assert.True(t, ok, "entries leave the rolling hour")

	cool := policy.Limits{Cooldown: 5 * time.Minute, MaxPerHour: 3}
	require.NoError(t, r.RecordIntervention(ctx, "c2"))
	ok, _ = r.CanIntervene(ctx, "c2", cool)
	assert.False(t, ok)
	st, err = r.Stats(ctx, "c2", cool)
	require.NoError(t, err)
	assert.Equal(t, 1, st.InterventionsLastHour)
	assert.Equal(t, int64(5), st.CooldownMinutesRemaining)

	clock.Advance(6 * time.Minute)
	ok, _ = r.CanIntervene(ctx, "c2", cool)
	assert.True(t, ok)

	require.NoError(t, r.Reset(ctx, "c2"))
	st, err = r.Stats(ctx, "c2", cool)
	require.NoError(t, err)
	assert.Equal(t, 0, st.InterventionsLastHour)
	assert.True(t, st.CanInterveneNow)

	require.NoError(t, r.RecordIntervention(ctx, "c3"))
	ttl, err := rdb.PTTL(ctx, "pk-it:{c3}:last").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 2*time.Hour+55*time.Minute, "a long cooldown outlives the default expiry")
}
