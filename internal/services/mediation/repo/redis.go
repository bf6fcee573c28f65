package repo

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"peacekeeper/internal/core/policy"
	ptime "peacekeeper/internal/platform/time"
	"peacekeeper/internal/services/mediation/domain"
)

const hourMs = int64(time.Hour / time.Millisecond)

// KEYS: last, log. ARGV: now ms, cooldown ms, cap, hour ms
var canScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local last = redis.call('GET', KEYS[1])
if last and now - tonumber(last) < tonumber(ARGV[2]) then
	return 0
end
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', now - tonumber(ARGV[4]))
if redis.call('ZCARD', KEYS[2]) < tonumber(ARGV[3]) then
	return 1
end
return 0
`)

// KEYS: last, log, seq. ARGV: now ms, hour ms, last ttl ms
var recordScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local hour = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', now - hour)
local seq = redis.call('INCR', KEYS[3])
redis.call('SET', KEYS[1], now, 'PX', tonumber(ARGV[3]))
redis.call('ZADD', KEYS[2], now, now .. ':' .. seq)
redis.call('PEXPIRE', KEYS[2], hour * 2)
redis.call('PEXPIRE', KEYS[3], hour * 2)
return 1
`)

// lastTTL keeps the last-intervention key alive for the whole cooldown
func lastTTL(cooldown time.Duration) time.Duration {
	return max(2*time.Hour, cooldown)
}

// Redis shares channel limiter state across replicas. Each channel uses a
// last-intervention key and a sorted set of intervention times
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	now    ptime.Clock
	keep   time.Duration
}

var _ domain.Policy = (*Redis)(nil)

// NewRedis builds the backend; prefix namespaces the keys. cooldown is the
// longest cooldown callers will pass in Limits
func NewRedis(rdb redis.Cmdable, prefix string, clock ptime.Clock, cooldown time.Duration) *Redis {
	if rdb == nil {
		panic("mediation.Redis requires a non nil client")
	}
	if prefix == "" {
		prefix = "peacekeeper:mediation"
	}
	return &Redis{rdb: rdb, prefix: prefix, now: clock.Or(), keep: lastTTL(cooldown)}
}

func (r *Redis) keys(channelID string) []string {
	base := r.prefix + ":{" + channelID + "}"
	return []string{base + ":last", base + ":log", base + ":seq"}
}

func (r *Redis) nowMs() int64 { return r.now().UnixMilli() }

// CanIntervene applies lim against the shared state
func (r *Redis) CanIntervene(ctx context.Context, channelID string, lim policy.Limits) (bool, error) {
	k := r.keys(channelID)
	n, err := canScript.Run(ctx, r.rdb, k[:2],
		r.nowMs(), lim.Cooldown.Milliseconds(), lim.MaxPerHour, hourMs).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecordIntervention stamps now as the last intervention
func (r *Redis) RecordIntervention(ctx context.Context, channelID string) error {
	return recordScript.Run(ctx, r.rdb, r.keys(channelID), r.nowMs(), hourMs, r.keep.Milliseconds()).Err()
}

// Stats reads without pruning
func (r *Redis) Stats(ctx context.Context, channelID string, lim policy.Limits) (policy.Stats, error) {
	k := r.keys(channelID)
	now := r.nowMs()
	st := policy.Stats{MinutesSinceLast: -1}

	last, err := r.rdb.Get(ctx, k[0]).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return st, err
	}
	count, err := r.rdb.ZCount(ctx, k[1], "("+strconv.FormatInt(now-hourMs, 10), "+inf").Result()
	if err != nil {
		return st, err
	}
	st.InterventionsLastHour = int(count)

	coolingDown := false
	if last != "" {
		at, convErr := strconv.ParseInt(last, 10, 64)
		if convErr != nil {
			return st, convErr
		}
		elapsed := time.Duration(now-at) * time.Millisecond
		st.MinutesSinceLast = int64(elapsed / time.Minute)
		if elapsed < lim.Cooldown {
			coolingDown = true
			st.CooldownMinutesRemaining = int64((lim.Cooldown - elapsed) / time.Minute)
		}
	}
	st.CanInterveneNow = !coolingDown && st.InterventionsLastHour < lim.MaxPerHour
	return st, nil
}

// Reset deletes every key of the channel
func (r *Redis) Reset(ctx context.Context, channelID string) error {
	return r.rdb.Del(ctx, r.keys(channelID)...).Err()
}
