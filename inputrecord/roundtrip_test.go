package inputrecord_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/e9kdbg/e9kdbg/digest"
	"github.com/e9kdbg/e9kdbg/inputrecord"
	"github.com/e9kdbg/e9kdbg/machine"
)

// deterministicCore is a minimal stand-in for a loaded emulator plug-in: it
// advances a machine.Model's PC every frame and bumps D0 on every joypad
// press, so a frame's observable state is a pure function of the input
// delivered to it. Recording a run and replaying its log through a fresh
// core must therefore reach an identical machine.Model at every frame
// (spec.md §8, "record a sequence then playback produces byte-identical
// per-frame register/callstack readings").
type deterministicCore struct {
	model *machine.Model
	pc    uint64
	d0    uint64
}

func newDeterministicCore() *deterministicCore {
	c := &deterministicCore{model: machine.NewModel(machine.NeoGeo)}
	c.refresh()
	return c
}

func (c *deterministicCore) SetJoypadState(port, id uint, pressed bool) {
	if pressed {
		c.d0++
	}
}
func (c *deterministicCore) SendKeyEvent(keycode uint, character uint32, modifiers uint16, pressed bool) {
}
func (c *deterministicCore) ClearJoypadState() { c.d0 = 0 }

func (c *deterministicCore) tick() {
	c.pc += 4
	c.refresh()
}

func (c *deterministicCore) refresh() {
	c.model.Refresh([]machine.Register{
		{Name: "PC", Value: c.pc},
		{Name: "D0", Value: c.d0},
	}, []uint32{uint32(c.pc)}, nil)
}

func TestRecordPlaybackProducesIdenticalDigests(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.e9k")

	core := newDeterministicCore()
	rec := inputrecord.New(core, nil, io.Discard)
	if err := rec.Init(path, ""); err != nil {
		t.Fatalf("Init(record): %v", err)
	}

	var recorded []string
	for frame := uint64(0); frame < 12; frame++ {
		if frame%3 == 0 {
			rec.RecordJoypad(frame, 0, 0, true)
			core.SetJoypadState(0, 0, true)
		}
		core.tick()
		recorded = append(recorded, digest.Model(core.model))
	}
	if err := rec.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	replay := newDeterministicCore()
	play := inputrecord.New(replay, nil, io.Discard)
	if err := play.Init("", path); err != nil {
		t.Fatalf("Init(playback): %v", err)
	}

	var replayed []string
	for frame := uint64(0); frame < 12; frame++ {
		play.Apply(frame)
		replay.tick()
		replayed = append(replayed, digest.Model(replay.model))
	}

	for i := range recorded {
		if recorded[i] != replayed[i] {
			t.Fatalf("frame %d: recorded digest %s != replayed digest %s", i, recorded[i], replayed[i])
		}
	}
}

func TestTruncateAfterThenReplayMatchesOriginalPrefix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.e9k")

	core := newDeterministicCore()
	rec := inputrecord.New(core, nil, io.Discard)
	if err := rec.Init(path, ""); err != nil {
		t.Fatalf("Init(record): %v", err)
	}

	var originalPrefix []string
	for frame := uint64(0); frame < 8; frame++ {
		if frame%2 == 0 {
			rec.RecordJoypad(frame, 0, 0, true)
			core.SetJoypadState(0, 0, true)
		}
		core.tick()
		if frame <= 4 {
			originalPrefix = append(originalPrefix, digest.Model(core.model))
		}
	}

	// A seek-drag release discards the forgotten future at frame 4; the
	// session then continues live with different input.
	if err := rec.TruncateAfter(4); err != nil {
		t.Fatalf("TruncateAfter: %v", err)
	}
	for frame := uint64(5); frame < 8; frame++ {
		rec.RecordClear(frame)
		core.ClearJoypadState()
		core.tick()
	}
	if err := rec.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	// Replaying the truncated file from scratch up to frame 4 must land on
	// exactly the same digests as the original timeline did, even though
	// the file also contains a different continuation past that point
	// (spec.md §8, the trim_after/reseek round-trip law).
	replay := newDeterministicCore()
	play := inputrecord.New(replay, nil, io.Discard)
	if err := play.Init("", path); err != nil {
		t.Fatalf("Init(playback): %v", err)
	}

	for frame := uint64(0); frame <= 4; frame++ {
		play.Apply(frame)
		replay.tick()
		got := digest.Model(replay.model)
		if got != originalPrefix[frame] {
			t.Fatalf("frame %d: replayed digest %s != original %s", frame, got, originalPrefix[frame])
		}
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected the recorded file to still exist: %v", err)
	}
}
