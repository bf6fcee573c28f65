package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	kit "peacekeeper/internal/platform/testkit"
)

func TestCompact(t *testing.T) {
	got := compact("SELECT id,\n\t  content\r\nFROM channel_messages   WHERE channel_id = $1")
	want := "SELECT id, content FROM channel_messages WHERE channel_id = $1"
	if got != want {
		t.Fatalf("compact = %q, want %q", got, want)
	}
}

func TestTracer_LevelsAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	root := zerolog.New(&buf).Level(zerolog.ErrorLevel)
	tr := Tracer(root)

	tr.OnQuery(context.Background(), QueryEvent{SQL: "select 1", NArgs: 2, ElapsedUS: 1500})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "select pg_sleep(1)", ElapsedUS: 1_000_000, Slow: true})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "insert", Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines even though root is at error level, got %d: %s", len(lines), buf.String())
	}
	kit.MustContain(t, lines[0], `"level":"info"`)
	kit.MustContain(t, lines[0], `"args":2`)
	kit.MustContain(t, lines[0], `"elapsed_ms":1.5`)
	kit.MustContain(t, lines[1], `"level":"warn"`)
	kit.MustContain(t, lines[2], `"error":"boom"`)
}

func TestOpen_BadURL(t *testing.T) {
	if _, err := Open(context.Background(), Config{URL: "://nope"}, nil); err == nil {
		t.Fatalf("expected parse error")
	}
}
