package timectrl

import (
	"testing"
	"time"
)

func TestManualClockAdvance(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	clock.Advance(42 * time.Second)

	want := start.Add(42 * time.Second)
	if got := clock.Now(); !got.Equal(want) {
		t.Fatalf("Now() = %v, want %v", got, want)
	}
}

func TestManualClockAfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	ch := clock.After(10 * time.Second)
	clock.Advance(5 * time.Second)
	select {
	case <-ch:
		t.Fatalf("timer fired before its deadline")
	default:
	}
	if got := clock.Pending(); got != 1 {
		t.Fatalf("Pending() = %d, want 1", got)
	}

	clock.Advance(5 * time.Second)
	select {
	case got := <-ch:
		if want := start.Add(10 * time.Second); !got.Equal(want) {
			t.Fatalf("timer time = %v, want %v", got, want)
		}
	default:
		t.Fatalf("timer did not fire at its deadline")
	}
}

func TestManualClockSetIgnoresPast(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	clock.Set(start.Add(-time.Hour))
	if got := clock.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}
}

func TestManualClockAfterNonPositiveIsImmediate(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	select {
	case <-clock.After(0):
	default:
		t.Fatalf("After(0) did not fire immediately")
	}
}

func TestWallClockAfter(t *testing.T) {
	var clock SimClock = WallClock{}
	before := clock.Now()
	<-clock.After(time.Millisecond)
	if !clock.Now().After(before) {
		t.Fatalf("wall clock did not advance")
	}
}
