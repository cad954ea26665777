package execctl

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/e9kdbg/e9kdbg/emuhost"
	"github.com/e9kdbg/e9kdbg/inputrecord"
	"github.com/e9kdbg/e9kdbg/machine"
	"github.com/e9kdbg/e9kdbg/statering"
)

// These drive EndSeekDrag's private fields directly rather than through
// BeginSeekDrag/SeekDrag, since SeekDrag calls host.Unserialize and needs
// a real loaded plug-in to succeed; EndSeekDrag itself never touches the
// Host.

func TestEndSeekDragTruncatesRecordedInputWhileRecording(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.e9k")

	host := emuhost.NewHost()
	ring := statering.NewRing(1 << 20)
	model := machine.NewModel(machine.NeoGeo)
	log := inputrecord.New(host, nil, io.Discard)
	if err := log.Init(path, ""); err != nil {
		t.Fatalf("Init(record): %v", err)
	}

	log.RecordJoypad(1, 0, 0, true)
	log.RecordJoypad(9, 0, 0, true)

	c := New(host, ring, log, model, nil, "")
	c.BeginSeekDrag()
	c.haveSeekBytes = true
	c.seekTarget = statering.Record{Frame: 1}

	c.EndSeekDrag()

	if err := log.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading recorded file: %v", err)
	}
	if got, want := string(data), "E9K_INPUT_V1\nF 1 J 0 0 1\n"; got != want {
		t.Fatalf("expected only the frame-1 event to survive, got %q want %q", got, want)
	}
}

// countingSink is a minimal inputrecord.Sink used to observe whether
// playback events were actually dispatched, since an unloaded
// emuhost.Host silently no-ops every Sink method.
type countingSink struct {
	joypadEvents int
}

func (s *countingSink) SetJoypadState(port, id uint, pressed bool) { s.joypadEvents++ }
func (s *countingSink) SendKeyEvent(keycode uint, character uint32, modifiers uint16, pressed bool) {
}
func (s *countingSink) ClearJoypadState() {}

func TestEndSeekDragLeavesPlaybackInputUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.e9k")
	fixture := "E9K_INPUT_V1\nF 1 J 0 0 1\nF 9 J 0 0 1\n"
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	host := emuhost.NewHost()
	ring := statering.NewRing(1 << 20)
	model := machine.NewModel(machine.NeoGeo)
	sink := &countingSink{}
	log := inputrecord.New(sink, nil, io.Discard)
	if err := log.Init("", path); err != nil {
		t.Fatalf("Init(playback): %v", err)
	}

	c := New(host, ring, log, model, nil, "")
	c.BeginSeekDrag()
	c.haveSeekBytes = true
	c.seekTarget = statering.Record{Frame: 1}

	c.EndSeekDrag()

	// Both events, including the one past the seek target, must still be
	// deliverable: a playback session's event list survives EndSeekDrag
	// untouched.
	log.Apply(1)
	log.Apply(9)
	if sink.joypadEvents != 2 {
		t.Fatalf("expected both playback events to survive EndSeekDrag, got %d", sink.joypadEvents)
	}
}
