package respond

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"peacekeeper/internal/core/conflict"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seeded() Option { return WithRand(rand.New(rand.NewPCG(1, 2))) }

func window(n int) []conflict.Message {
	out := make([]conflict.Message, n)
	for i := range out {
		out[i] = conflict.Message{AuthorID: "u" + string(rune('a'+i%2)), Content: strings.Repeat("x", i+1), Timestamp: int64(i)}
	}
	return out
}

func TestSelect_Generated(t *testing.T) {
	t.Parallel()

	var got Request
	gen := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		got = req
		_, ok := ctx.Deadline()
		assert.True(t, ok, "generator must run under a deadline")
		return "  Calm down, friends.  ", nil
	})

	s := New(gen, seeded())
	r := s.Select(context.Background(), conflict.NewReasons(conflict.HostileLanguage), 0.8, window(8))

	assert.Equal(t, Response{Text: "Calm down, friends.", Source: SourceGenerated}, r)
	require.Len(t, got.Context, DefaultContextSize)
	assert.Equal(t, "xxxxxxxx", got.Context[len(got.Context)-1].Content)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestSelect_FallbackPaths(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		gen  Generator
	}{
		{"nil generator", nil},
		{"error", GeneratorFunc(func(context.Context, Request) (string, error) { return "", errors.New("quota") })},
		{"blank", GeneratorFunc(func(context.Context, Request) (string, error) { return " \n ", nil })},
		{"timeout", GeneratorFunc(func(ctx context.Context, _ Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := New(tc.gen, seeded(), WithTimeout(10*time.Millisecond))
			r := s.Select(context.Background(), conflict.NewReasons(conflict.RapidExchange), 0.5, window(3))
			assert.Equal(t, SourceFallback, r.Source)
			assert.Contains(t, DefaultPools().Rapid, r.Text)
		})
	}
}

func TestFallback_PoolPriority(t *testing.T) {
	t.Parallel()

	p := DefaultPools()
	s := New(nil, seeded())

	cases := []struct {
		reasons conflict.Reasons
		pool    []string
	}{
		{conflict.NewReasons(conflict.HostileLanguage, conflict.RapidExchange, conflict.EscalatingTension), p.Hostile},
		{conflict.NewReasons(conflict.RapidExchange, conflict.EscalatingTension), p.Rapid},
		{conflict.NewReasons(conflict.EscalatingTension), p.Escalating},
		{conflict.NewReasons(), p.Default},
		{conflict.NewReasons("unknown_signal"), p.Default},
		{nil, p.Default},
	}
	for _, tc := range cases {
		for range 20 {
			assert.Contains(t, tc.pool, s.Fallback(tc.reasons), tc.reasons.String())
		}
	}
}

func TestFallback_CoversPoolDeterministically(t *testing.T) {
	t.Parallel()

	pick := func() []string {
		s := New(nil, seeded())
		var out []string
		for range 200 {
			out = append(out, s.Fallback(nil))
		}
		return out
	}
	a, b := pick(), pick()
	assert.Equal(t, a, b, "same seed, same sequence")

	for _, line := range DefaultPools().Default {
		assert.True(t, slices.Contains(a, line), "never picked %q", line)
	}
}

func TestFallback_EmptyPools(t *testing.T) {
	t.Parallel()

	s := New(nil, WithPools(Pools{}))
	assert.Equal(t, Neutral, s.Fallback(conflict.NewReasons(conflict.HostileLanguage)))

	s = New(nil, WithPools(Pools{Default: []string{"only"}}))
	assert.Equal(t, "only", s.Fallback(conflict.NewReasons(conflict.HostileLanguage)))
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(Request{
		Context:    []conflict.Message{{AuthorID: "alice", Content: "you're wrong"}, {AuthorID: "bob", Content: "no, you are"}},
		Reasons:    conflict.NewReasons(conflict.HostileLanguage, conflict.RapidExchange),
		Confidence: 0.876,
	})
	assert.Contains(t, p, "Conflict type detected: rapid_exchange, hostile_language")
	assert.Contains(t, p, "Confidence: 88%")
	assert.Contains(t, p, "alice: you're wrong\nbob: no, you are\n")
	assert.Contains(t, p, "1-2 sentences")

	assert.Contains(t, BuildPrompt(Request{}), "Conflict type detected: general")
}
