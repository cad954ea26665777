package symbolizer_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/e9kdbg/e9kdbg/symbolizer"
)

// fakeAddr2Line writes a minimal shell script that mimics "addr2line -f -C
// -e <elf>": for every "0x..." line read on stdin, it writes back a
// function name line and a "file:line" line, looking the address up in a
// small built-in table. Anything unknown resolves to "??:0".
func fakeAddr2Line(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake addr2line script requires a POSIX shell")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-addr2line")
	script := `#!/bin/sh
while IFS= read -r addr; do
  case "$addr" in
    0x1000) echo "main"; echo "game.c:42" ;;
    0xffe) echo "helper"; echo "game.c:10" ;;
    *) echo "??"; echo "??:0" ;;
  esac
done
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake addr2line: %v", err)
	}
	return path
}

func newTestClient(t *testing.T) *symbolizer.Client {
	t.Helper()
	bin := fakeAddr2Line(t)
	// NewClient appends "addr2line" to the prefix, so pass everything
	// except that suffix as the prefix.
	prefix := bin[:len(bin)-len("addr2line")]
	c := symbolizer.NewClient(prefix)
	if err := c.Start("unused.elf"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

func TestResolveDirectHit(t *testing.T) {
	c := newTestClient(t)

	file, line, ok := c.Resolve(context.Background(), 0x1000)
	if !ok {
		t.Fatal("expected a resolved address")
	}
	if file != "game.c" || line != 42 {
		t.Fatalf("unexpected result: %s:%d", file, line)
	}
}

func TestResolveRetriesAtMinusTwo(t *testing.T) {
	c := newTestClient(t)

	// 0x1002 itself misses in the fake table, but 0x1002-2 = 0x1000 hits.
	file, line, ok := c.Resolve(context.Background(), 0x1002)
	if !ok {
		t.Fatal("expected the addr-2 retry to resolve")
	}
	if file != "game.c" || line != 42 {
		t.Fatalf("unexpected result: %s:%d", file, line)
	}
}

func TestResolveUnknownAddressFails(t *testing.T) {
	c := newTestClient(t)

	_, _, ok := c.Resolve(context.Background(), 0x9999)
	if ok {
		t.Fatal("expected an unresolvable address to fail")
	}
}

func TestStartIsIdempotentForSameELF(t *testing.T) {
	bin := fakeAddr2Line(t)
	prefix := bin[:len(bin)-len("addr2line")]
	c := symbolizer.NewClient(prefix)
	defer c.Stop()

	if err := c.Start("game.elf"); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := c.Start("game.elf"); err != nil {
		t.Fatalf("second Start: %v", err)
	}
}

func TestFailedSpawnDisablesResolution(t *testing.T) {
	c := symbolizer.NewClient("/nonexistent/toolchain/prefix-")
	if err := c.Start("game.elf"); err == nil {
		t.Fatal("expected Start against a missing binary to fail")
	}

	if err := c.Start("game.elf"); err == nil {
		t.Fatal("expected Start to stay disabled after a failed spawn")
	}

	_, _, ok := c.Resolve(context.Background(), 0x1000)
	if ok {
		t.Fatal("expected Resolve to fail once disabled")
	}
}
