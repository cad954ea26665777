package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/e9kdbg/e9kdbg/machine"
)

// Model hashes the observable state of a machine.Model: its registers and
// callstack addresses. Two models with the same Model digest agree on
// everything a debugger session can display, even if the underlying
// snapshot bytes differ (e.g. padding, plug-in-internal timing counters
// that don't affect the next frame's observable behaviour).
func Model(m *machine.Model) string {
	h := sha256.New()

	for _, r := range m.Registers() {
		fmt.Fprintf(h, "%s=%016x;", strings.ToUpper(r.Name), r.Value)
	}
	h.Write([]byte("|"))
	for _, f := range m.Callstack() {
		fmt.Fprintf(h, "%d:%06x;", f.Level, f.Addr)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Bytes hashes an opaque byte buffer (a serialized snapshot, or an audio/
// video frame), for tests that need to confirm two buffers are identical
// without holding both in memory for a direct comparison.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
