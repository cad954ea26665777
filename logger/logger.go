package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Permission gates whether a particular Log/Logf call is recorded. Passing
// Allow always records the entry; a caller-defined type can implement this
// to mute a class of log lines (e.g. a debug build vs. a release build).
type Permission interface {
	AllowLogging() bool
}

type allowPermission struct{}

func (allowPermission) AllowLogging() bool { return true }

// Allow is the permission value that always records.
var Allow Permission = allowPermission{}

// entry is one recorded log line.
type entry struct {
	when time.Time
	tag  string
	text string
}

func (e entry) String() string {
	return fmt.Sprintf("%s: %s\n", e.tag, e.text)
}

// Logger is a fixed-capacity ring of log entries. The zero value is not
// usable; construct with NewLogger.
type Logger struct {
	mu      sync.Mutex
	entries []entry
	max     int
	echo    io.Writer
}

// NewLogger creates a Logger that retains at most max entries, discarding
// the oldest when full.
func NewLogger(max int) *Logger {
	if max < 1 {
		max = 1
	}
	return &Logger{
		entries: make([]entry, 0, max),
		max:     max,
	}
}

// SetEcho additionally writes every accepted entry to w as it is logged
// (e.g. os.Stderr during development). Pass nil to disable.
func (l *Logger) SetEcho(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = w
}

func detailString(detail interface{}) string {
	switch v := detail.(type) {
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Log records detail under tag, subject to perm. detail may be an error
// (logged via Error()), a fmt.Stringer (logged via String()), or anything
// else (logged via the %v verb).
func (l *Logger) Log(perm Permission, tag string, detail interface{}) {
	if perm == nil || !perm.AllowLogging() {
		return
	}
	l.append(tag, detailString(detail))
}

// Logf is like Log but formats detail from pattern/args, in the manner of
// fmt.Sprintf.
func (l *Logger) Logf(perm Permission, tag string, pattern string, args ...interface{}) {
	if perm == nil || !perm.AllowLogging() {
		return
	}
	l.append(tag, fmt.Sprintf(pattern, args...))
}

func (l *Logger) append(tag string, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := entry{when: stamp(), tag: tag, text: text}

	if len(l.entries) == l.max {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, e)

	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

// Write writes every retained entry, oldest first.
func (l *Logger) Write(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		io.WriteString(w, e.String())
	}
}

// Tail writes the most recent n entries, oldest first. Asking for more
// entries than are retained, or for zero, is not an error.
func (l *Logger) Tail(w io.Writer, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 {
		return
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}

	for _, e := range l.entries[len(l.entries)-n:] {
		io.WriteString(w, e.String())
	}
}

// WriteRecent writes every entry logged at or after since.
func (l *Logger) WriteRecent(w io.Writer, since time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if !e.when.Before(since) {
			io.WriteString(w, e.String())
		}
	}
}

// TimeOfLast returns the timestamp of the most recently recorded entry, or
// the zero time if nothing has been logged yet.
func (l *Logger) TimeOfLast() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return time.Time{}
	}
	return l.entries[len(l.entries)-1].when
}

// Clear discards every retained entry.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

// Copy returns the retained entries rendered as strings, oldest first.
func (l *Logger) Copy() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = strings.TrimSuffix(e.String(), "\n")
	}
	return out
}

// stamp is a seam over time.Now so that tests can be deterministic if ever
// needed; production code always uses the real clock.
var stamp = time.Now

// central is the package-level default logger used by the free functions
// below, sized generously enough to survive a long debugging session.
var central = NewLogger(2000)

func Log(perm Permission, tag string, detail interface{})                    { central.Log(perm, tag, detail) }
func Logf(perm Permission, tag, pattern string, args ...interface{})         { central.Logf(perm, tag, pattern, args...) }
func SetEcho(w io.Writer)                                                    { central.SetEcho(w) }
func Write(w io.Writer)                                                      { central.Write(w) }
func Tail(w io.Writer, n int)                                                { central.Tail(w, n) }
func WriteRecent(w io.Writer, since time.Time)                               { central.WriteRecent(w, since) }
func TimeOfLast() time.Time                                                  { return central.TimeOfLast() }
func Clear()                                                                 { central.Clear() }
func Copy() []string                                                         { return central.Copy() }
