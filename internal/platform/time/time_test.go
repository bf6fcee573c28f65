package time

import (
	"testing"
	"time"
)

func TestPtr(t *testing.T) {
	t.Parallel()

	if Ptr(time.Time{}) != nil {
		t.Fatalf("zero time should map to nil")
	}
	now := time.Now()
	if p := Ptr(now); p == nil || !p.Equal(now) {
		t.Fatalf("Ptr(now)=%v", p)
	}
}

func TestUnix(t *testing.T) {
	t.Parallel()

	if !Unix(0).IsZero() {
		t.Fatalf("zero seconds should be zero time")
	}
	if got := Unix(60); got.Unix() != 60 || got.Location() != time.UTC {
		t.Fatalf("Unix(60)=%v", got)
	}
}

func TestClockOr(t *testing.T) {
	t.Parallel()

	var c Clock
	if c.Or()().IsZero() {
		t.Fatalf("nil clock should fall back to System")
	}
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c = func() time.Time { return fixed }
	if !c.Or()().Equal(fixed) {
		t.Fatalf("explicit clock should be kept")
	}
}

func TestFake(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	f.Advance(90 * time.Second)
	if got := f.Now().Sub(start); got != 90*time.Second {
		t.Fatalf("advance=%v", got)
	}
}
