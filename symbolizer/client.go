package symbolizer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/e9kdbg/e9kdbg/curated"
	"github.com/e9kdbg/e9kdbg/logger"
)

// defaultTimeout bounds a single resolve round-trip. The child is assumed
// dead if it hasn't answered by then.
const defaultTimeout = 500 * time.Millisecond

// Client manages a single addr2line-family child process and the pipe pair
// used to query it. A Client is not safe for concurrent use; the core's
// single-threaded frame loop is its only caller.
type Client struct {
	mu sync.Mutex

	toolchainPrefix string
	binary          string

	elfPath string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader

	// disabled is set once a spawn fails or a pipe breaks. Per the
	// failure semantics, resolution stays off for the rest of the
	// session; there is no auto-restart.
	disabled bool
}

// NewClient returns a Client that will invoke "<toolchainPrefix>addr2line"
// on Start. An empty prefix uses the host's plain "addr2line".
func NewClient(toolchainPrefix string) *Client {
	return &Client{
		toolchainPrefix: toolchainPrefix,
		binary:          toolchainPrefix + "addr2line",
	}
}

// Start launches the helper for elfPath. It is idempotent if already running
// for the same ELF. On a different ELF it stops the old child first.
func (c *Client) Start(elfPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled {
		return curated.Errorf("symbolizer: disabled after a previous failure")
	}
	if c.cmd != nil && c.elfPath == elfPath {
		return nil
	}
	if c.cmd != nil {
		c.stopLocked()
	}

	cmd := exec.Command(c.binary, "-f", "-C", "-e", elfPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.disabled = true
		return curated.Errorf("symbolizer: stdin pipe: %v", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.disabled = true
		return curated.Errorf("symbolizer: stdout pipe: %v", err)
	}

	if err := cmd.Start(); err != nil {
		c.disabled = true
		return curated.Errorf("symbolizer: spawn %s: %v", c.binary, err)
	}

	go func() {
		_ = cmd.Wait()
	}()

	c.cmd = cmd
	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)
	c.elfPath = elfPath

	logger.Logf(logger.Allow, "symbolizer", "started %s for %s", c.binary, filepath.Base(elfPath))
	return nil
}

// Resolve looks up addr and returns (file, line, true) on success. It
// returns ok=false on any parse failure, timeout, or child error. A
// timeout or child error also disables the client permanently — matching
// "a failed spawn or a broken pipe disables resolution for the remainder
// of the session"; an unparseable answer does not.
//
// If the first lookup yields nothing and addr >= 2, Resolve retries once at
// addr-2, to account for a return address landing just past the call
// instruction it followed.
func (c *Client) Resolve(ctx context.Context, addr uint32) (file string, line int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled || c.cmd == nil {
		return "", 0, false
	}

	file, line, ok = c.queryLocked(ctx, addr)
	if !ok && addr >= 2 {
		file, line, ok = c.queryLocked(ctx, addr-2)
	}
	return file, line, ok
}

func (c *Client) queryLocked(ctx context.Context, addr uint32) (string, int, bool) {
	if _, err := fmt.Fprintf(c.stdin, "0x%x\n", addr); err != nil {
		c.failLocked(err)
		return "", 0, false
	}

	type line struct {
		text string
		err  error
	}
	lines := make(chan line, 2)
	go func() {
		for i := 0; i < 2; i++ {
			text, err := c.stdout.ReadString('\n')
			lines <- line{text, err}
			if err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var function, loc string
	for i := 0; i < 2; i++ {
		select {
		case l := <-lines:
			if l.err != nil {
				c.failLocked(l.err)
				return "", 0, false
			}
			if i == 0 {
				function = strings.TrimSpace(l.text)
			} else {
				loc = strings.TrimSpace(l.text)
			}
		case <-ctx.Done():
			c.failLocked(ctx.Err())
			return "", 0, false
		}
	}
	_ = function

	file, lineNo, ok := parseFileLine(loc)
	if !ok {
		return "", 0, false
	}
	return file, lineNo, true
}

func parseFileLine(s string) (string, int, bool) {
	if s == "" || s == "??:0" || s == "??:?" {
		return "", 0, false
	}
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return "", 0, false
	}
	file, lineStr := s[:idx], s[idx+1:]
	n, err := strconv.Atoi(lineStr)
	if err != nil || file == "??" {
		return "", 0, false
	}
	return filepath.Base(file), n, true
}

func (c *Client) failLocked(err error) {
	logger.Logf(logger.Allow, "symbolizer", "disabling resolution after pipe error: %v", err)
	c.disabled = true
	c.stopLocked()
}

// Stop closes the pipes and reaps the child. Safe to call even if Start was
// never called or already failed.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Client) stopLocked() {
	if c.stdin != nil {
		_ = c.stdin.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil
}
