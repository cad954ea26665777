package inputrecord

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/e9kdbg/e9kdbg/curated"
	"github.com/e9kdbg/e9kdbg/logger"
)

// header is the first line of every recording file.
const header = "E9K_INPUT_V1"

// UI keycodes that input_record_handleUiKey dispatches on. These match
// SDL's SDLK_* values for printable ASCII keys, which are simply the
// character codes themselves.
const (
	KeyToggleCheckpoints = ','
	KeyResetCheckpoints  = '.'
	KeyDumpCheckpoints   = '/'
)

// Kind identifies the payload shape of an Event.
type Kind byte

const (
	Joypad Kind = 'J'
	Key    Kind = 'K'
	Clear  Kind = 'C'
	UIKey  Kind = 'U'
)

// Event is one input occurrence tagged with the frame it applies to.
type Event struct {
	Frame uint64
	Kind  Kind

	// Joypad
	Port uint
	ID   uint

	// Key
	Keycode   uint
	Character uint32
	Modifiers uint16

	Pressed bool
}

// Sink receives replayed (or live) input events. The Emulator Host
// implements this to forward events into the loaded core.
type Sink interface {
	SetJoypadState(port, id uint, pressed bool)
	SendKeyEvent(keycode uint, character uint32, modifiers uint16, pressed bool)
	ClearJoypadState()
}

// Checkpoints is the subset of the profiler checkpoint controller that
// UI-key events drive during playback.
type Checkpoints interface {
	Enabled() bool
	SetEnabled(bool)
	Reset()
	Dump(w io.Writer)
}

type mode int

const (
	modeIdle mode = iota
	modeRecording
	modePlayback
)

// recordMark tracks the file offset immediately after one recorded event,
// so TruncateAfter can cut the file back to a given frame without
// re-parsing it.
type recordMark struct {
	frame  uint64
	offset int64
}

// Log owns the record/playback event stream for one session. The zero
// value is not usable; construct with New.
type Log struct {
	sink        Sink
	checkpoints Checkpoints
	out         io.Writer

	dumpTo io.Writer

	mode      mode
	injecting bool

	events []Event
	cursor int

	// headerOffset and records support TruncateAfter during live
	// recording; both are unused in playback.
	headerOffset int64
	offset       int64
	records      []recordMark
}

// New creates a Log that delivers playback events to sink and drives
// checkpoints on UI-key events. dumpTo is where KeyDumpCheckpoints writes
// its summary (typically os.Stdout).
func New(sink Sink, checkpoints Checkpoints, dumpTo io.Writer) *Log {
	return &Log{sink: sink, checkpoints: checkpoints, dumpTo: dumpTo}
}

// Init opens recordPath for writing or playbackPath for reading; the two
// are mutually exclusive and at most one may be non-empty. Loading a
// playback file parses every event up front, in frame order; nothing is
// delivered to the sink until Apply reaches an event's frame.
func (l *Log) Init(recordPath, playbackPath string) error {
	if recordPath != "" && playbackPath != "" {
		return curated.Errorf("inputrecord: --record and --playback are mutually exclusive")
	}

	if playbackPath != "" {
		f, err := os.Open(playbackPath)
		if err != nil {
			return curated.Errorf("inputrecord: opening playback file: %v", err)
		}
		defer f.Close()

		events, err := parseEvents(f)
		if err != nil {
			return curated.Errorf("inputrecord: parsing playback file: %v", err)
		}

		l.events = events
		l.mode = modePlayback
		l.cursor = 0
		return nil
	}

	if recordPath != "" {
		f, err := os.Create(recordPath)
		if err != nil {
			return curated.Errorf("inputrecord: opening record file: %v", err)
		}
		n, err := fmt.Fprintln(f, header)
		if err != nil {
			f.Close()
			return curated.Errorf("inputrecord: writing header: %v", err)
		}
		l.out = f
		l.mode = modeRecording
		l.headerOffset = int64(n)
		l.offset = int64(n)
	}

	return nil
}

// Shutdown closes the underlying record file, if any. It is safe to call
// whether or not Init opened one.
func (l *Log) Shutdown() error {
	if c, ok := l.out.(io.Closer); ok {
		l.out = nil
		return c.Close()
	}
	return nil
}

func (l *Log) IsRecording() bool { return l.mode == modeRecording }
func (l *Log) IsPlayback() bool  { return l.mode == modePlayback }
func (l *Log) IsInjecting() bool { return l.injecting }

func (l *Log) canRecord() bool {
	return l.mode == modeRecording && !l.injecting && l.out != nil
}

// write appends a formatted record line and tracks the frame/offset it
// ends at, so a later TruncateAfter can cut the file back precisely.
func (l *Log) write(frame uint64, format string, args ...interface{}) {
	n, err := fmt.Fprintf(l.out, format, args...)
	if err != nil {
		logger.Logf(logger.Allow, "inputrecord", "writing event: %v", err)
		return
	}
	l.offset += int64(n)
	l.records = append(l.records, recordMark{frame: frame, offset: l.offset})
}

// RecordJoypad appends a joypad event. No-op outside live recording.
func (l *Log) RecordJoypad(frame uint64, port, id uint, pressed bool) {
	if !l.canRecord() {
		return
	}
	l.write(frame, "F %d J %d %d %d\n", frame, port, id, boolInt(pressed))
}

// RecordKey appends a key event. No-op outside live recording.
func (l *Log) RecordKey(frame uint64, keycode uint, character uint32, modifiers uint16, pressed bool) {
	if !l.canRecord() {
		return
	}
	l.write(frame, "F %d K %d %d %d %d\n", frame, keycode, character, modifiers, boolInt(pressed))
}

// RecordClear appends a clear-all-joypad-state event. No-op outside live
// recording.
func (l *Log) RecordClear(frame uint64) {
	if !l.canRecord() {
		return
	}
	l.write(frame, "F %d C\n", frame)
}

// RecordUIKey appends a UI key event. No-op outside live recording.
func (l *Log) RecordUIKey(frame uint64, keycode uint, pressed bool) {
	if !l.canRecord() {
		return
	}
	l.write(frame, "F %d U %d %d\n", frame, keycode, boolInt(pressed))
}

// TruncateAfter drops every recorded event with Frame > frame and truncates
// the already-flushed on-disk file to match, discarding the forgotten
// future a live-recording session's seek-drag release leaves behind. A
// no-op outside live recording, matching the retain-everything behaviour
// playback requires.
func (l *Log) TruncateAfter(frame uint64) error {
	if l.mode != modeRecording || l.out == nil {
		return nil
	}

	keep := l.headerOffset
	n := 0
	for n < len(l.records) && l.records[n].frame <= frame {
		keep = l.records[n].offset
		n++
	}
	l.records = l.records[:n]
	l.offset = keep

	f, ok := l.out.(*os.File)
	if !ok {
		return nil
	}
	if err := f.Truncate(keep); err != nil {
		return curated.Errorf("inputrecord: truncating record file: %v", err)
	}
	if _, err := f.Seek(keep, io.SeekStart); err != nil {
		return curated.Errorf("inputrecord: seeking record file: %v", err)
	}
	return nil
}

// Apply delivers every event at exactly this frame number that hasn't been
// delivered yet, advancing the internal cursor. Outside playback, this is
// a no-op.
func (l *Log) Apply(frame uint64) {
	if l.mode != modePlayback {
		return
	}

	for l.cursor < len(l.events) && l.events[l.cursor].Frame < frame {
		l.cursor++
	}
	if l.cursor >= len(l.events) || l.events[l.cursor].Frame != frame {
		return
	}

	l.injecting = true
	defer func() { l.injecting = false }()

	for l.cursor < len(l.events) && l.events[l.cursor].Frame == frame {
		l.dispatch(l.events[l.cursor])
		l.cursor++
	}
}

func (l *Log) dispatch(ev Event) {
	switch ev.Kind {
	case Joypad:
		if l.sink != nil {
			l.sink.SetJoypadState(ev.Port, ev.ID, ev.Pressed)
		}
	case Key:
		if l.sink != nil {
			l.sink.SendKeyEvent(ev.Keycode, ev.Character, ev.Modifiers, ev.Pressed)
		}
	case Clear:
		if l.sink != nil {
			l.sink.ClearJoypadState()
		}
	case UIKey:
		l.HandleUIKey(ev.Keycode, ev.Pressed)
	}
}

// HandleUIKey drives the checkpoint controller on a key-down UI event. Key
// releases are ignored, matching the original's "if (!pressed) return".
func (l *Log) HandleUIKey(keycode uint, pressed bool) {
	if !pressed || l.checkpoints == nil {
		return
	}
	switch rune(keycode) {
	case KeyToggleCheckpoints:
		l.checkpoints.SetEnabled(!l.checkpoints.Enabled())
	case KeyResetCheckpoints:
		l.checkpoints.Reset()
	case KeyDumpCheckpoints:
		if l.dumpTo != nil {
			l.checkpoints.Dump(l.dumpTo)
		}
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseEvents reads an E9K_INPUT_V1 file, skipping the header line and any
// line that fails to parse, and returns the events in file order (which
// Init relies on already being frame-monotone).
func parseEvents(r io.Reader) ([]Event, error) {
	var events []Event

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == header {
			continue
		}
		ev, ok := parseLine(line)
		if ok {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func parseLine(line string) (Event, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 || fields[0] != "F" {
		return Event{}, false
	}

	var frame uint64
	if _, err := fmt.Sscanf(fields[1], "%d", &frame); err != nil {
		return Event{}, false
	}

	switch fields[2] {
	case "J":
		var port, id, pressed uint
		if len(fields) != 6 {
			return Event{}, false
		}
		if _, err := fmt.Sscanf(fields[3]+" "+fields[4]+" "+fields[5], "%d %d %d", &port, &id, &pressed); err != nil {
			return Event{}, false
		}
		return Event{Frame: frame, Kind: Joypad, Port: port, ID: id, Pressed: pressed != 0}, true

	case "K":
		var keycode, character, modifiers, pressed uint
		if len(fields) != 7 {
			return Event{}, false
		}
		if _, err := fmt.Sscanf(strings.Join(fields[3:7], " "), "%d %d %d %d", &keycode, &character, &modifiers, &pressed); err != nil {
			return Event{}, false
		}
		return Event{Frame: frame, Kind: Key, Keycode: keycode, Character: uint32(character), Modifiers: uint16(modifiers), Pressed: pressed != 0}, true

	case "C":
		return Event{Frame: frame, Kind: Clear}, true

	case "U":
		var keycode, pressed uint
		if len(fields) != 5 {
			return Event{}, false
		}
		if _, err := fmt.Sscanf(fields[3]+" "+fields[4], "%d %d", &keycode, &pressed); err != nil {
			return Event{}, false
		}
		return Event{Frame: frame, Kind: UIKey, Keycode: keycode, Pressed: pressed != 0}, true
	}

	return Event{}, false
}
