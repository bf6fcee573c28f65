package repo

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestLastTTL(t *testing.T) {
	assert.Equal(t, 2*time.Hour, lastTTL(0))
	assert.Equal(t, 2*time.Hour, lastTTL(time.Minute))
	assert.Equal(t, 5*time.Hour, lastTTL(5*time.Hour))
}

func TestNewRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer func() { _ = rdb.Close() }()

	r := NewRedis(rdb, "", nil, 3*time.Hour)
	assert.Equal(t, 3*time.Hour, r.keep)
	assert.Equal(t, []string{
		"peacekeeper:mediation:{c1}:last",
		"peacekeeper:mediation:{c1}:log",
		"peacekeeper:mediation:{c1}:seq",
	}, r.keys("c1"))

	assert.Panics(t, func() { NewRedis(nil, "p", nil, 0) })
}
