package statering_test

import (
	"testing"

	"github.com/e9kdbg/e9kdbg/statering"
)

func TestPushAndCurrentFrame(t *testing.T) {
	r := statering.NewRing(1024)

	if _, ok := r.CurrentFrame(); ok {
		t.Fatal("expected no current frame on an empty ring")
	}

	if err := r.Push(1, []byte("aaaa")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := r.Push(2, []byte("bbbb")); err != nil {
		t.Fatalf("Push: %v", err)
	}

	f, ok := r.CurrentFrame()
	if !ok || f != 2 {
		t.Fatalf("expected current frame 2, got %d ok=%v", f, ok)
	}
}

func TestPushRejectsNonIncreasingFrame(t *testing.T) {
	r := statering.NewRing(1024)
	if err := r.Push(5, []byte("x")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := r.Push(5, []byte("y")); err == nil {
		t.Fatal("expected pushing a non-increasing frame to error")
	}
	if err := r.Push(4, []byte("y")); err == nil {
		t.Fatal("expected pushing a lower frame to error")
	}
}

func TestEvictionKeepsWithinCapacity(t *testing.T) {
	r := statering.NewRing(10)

	for i := uint64(1); i <= 5; i++ {
		if err := r.Push(i, []byte("abcd")); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}

	if r.Len() == 0 {
		t.Fatal("expected at least the newest record to survive")
	}

	var lastFrame uint64
	for i := 0; i < r.Len(); i++ {
		rec, ok := r.FrameAtPercent(float64(i) / float64(maxInt(r.Len()-1, 1)))
		if !ok {
			t.Fatalf("expected record at index %d", i)
		}
		if rec.Frame <= lastFrame && i > 0 {
			t.Fatalf("expected strictly increasing frame numbers, got %d after %d", rec.Frame, lastFrame)
		}
		lastFrame = rec.Frame
	}

	f, ok := r.CurrentFrame()
	if !ok || f != 5 {
		t.Fatalf("expected the newest push to survive eviction, got %d", f)
	}
}

func TestFrameAtPercentBounds(t *testing.T) {
	r := statering.NewRing(1024)
	for i := uint64(1); i <= 4; i++ {
		_ = r.Push(i, []byte{byte(i)})
	}

	first, ok := r.FrameAtPercent(0)
	if !ok || first.Frame != 1 {
		t.Fatalf("expected frame 1 at percent 0, got %+v", first)
	}

	last, ok := r.FrameAtPercent(1)
	if !ok || last.Frame != 4 {
		t.Fatalf("expected frame 4 at percent 1, got %+v", last)
	}
}

func TestTrimAfterDiscardsFutureRecords(t *testing.T) {
	r := statering.NewRing(1024)
	for i := uint64(1); i <= 5; i++ {
		_ = r.Push(i, []byte{byte(i)})
	}

	r.TrimAfter(3)

	f, ok := r.CurrentFrame()
	if !ok || f != 3 {
		t.Fatalf("expected current frame 3 after trim, got %d", f)
	}
	if r.Len() != 3 {
		t.Fatalf("expected 3 records after trim, got %d", r.Len())
	}

	if err := r.Push(4, []byte{9}); err != nil {
		t.Fatalf("expected push of frame 4 after trimming to 3 to succeed: %v", err)
	}
}

func TestSetPausedDropsPushesSilently(t *testing.T) {
	r := statering.NewRing(1024)
	r.SetPaused(true)

	if err := r.Push(1, []byte("x")); err != nil {
		t.Fatalf("expected a paused push to be silently dropped, not errored: %v", err)
	}
	if r.Len() != 0 {
		t.Fatal("expected no record to be stored while paused")
	}

	r.SetPaused(false)
	if err := r.Push(1, []byte("x")); err != nil {
		t.Fatalf("Push after unpause: %v", err)
	}
	if r.Len() != 1 {
		t.Fatal("expected the push after unpausing to succeed")
	}
}

func TestSetRollingPausedDropsPushes(t *testing.T) {
	r := statering.NewRing(1024)
	r.SetRollingPaused(true)

	_ = r.Push(1, []byte("x"))
	if r.Len() != 0 {
		t.Fatal("expected rolling-paused pushes to be dropped")
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
