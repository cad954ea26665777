package execctl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/e9kdbg/e9kdbg/curated"
	"github.com/e9kdbg/e9kdbg/emuhost"
	"github.com/e9kdbg/e9kdbg/inputrecord"
	"github.com/e9kdbg/e9kdbg/logger"
	"github.com/e9kdbg/e9kdbg/machine"
	"github.com/e9kdbg/e9kdbg/statering"
	"github.com/e9kdbg/e9kdbg/symbolizer"
)

// warpMultiplier is the speed multiplier applied in Live mode when warp is
// toggled on (original: debugger_toggleSpeed, a plain 1/10 flip).
const warpMultiplier = 10

// Controller is the per-frame orchestrator: it reads playback input, ticks
// the Emulator Host, pushes snapshots to the State Ring, refreshes the
// Machine Model on pause/breakpoint, and dispatches seek requests
// (spec.md §4.6). The zero value is not usable; construct with New.
type Controller struct {
	host  *emuhost.Host
	ring  *statering.Ring
	input *inputrecord.Log
	model *machine.Model
	sym   *symbolizer.Client

	sourceDir string

	mode         Mode
	restoreMode  Mode
	warp         bool
	hasFrame     bool
	lastFrame    uint64
	pendingSteps int

	seekTarget    statering.Record
	haveSeekBytes bool

	// OnPause fires when a tick leaves the controller Paused, after a
	// breakpoint hit or a frame-step completing has refreshed the Model.
	// SetMode(Paused) does not fire it.
	OnPause func()

	// SmokeTestExitCode, when set by a headless terminating condition,
	// takes priority over every other exit-code rule.
	SmokeTestExitCode *int
	// RestartRequested is set by a UI action that asks the process to
	// relaunch after shutdown.
	RestartRequested bool
}

// New builds a Controller over already-constructed collaborators. The
// Host's OnDebugBase hook is wired straight into the Model so relocated
// section bases reported by the plug-in are available to resolve
// (spec.md §9's "onSetDebugBaseFromCore" relocation support).
func New(host *emuhost.Host, ring *statering.Ring, input *inputrecord.Log, model *machine.Model, sym *symbolizer.Client, sourceDir string) *Controller {
	c := &Controller{
		host:      host,
		ring:      ring,
		input:     input,
		model:     model,
		sym:       sym,
		sourceDir: sourceDir,
		mode:      Paused,
	}
	host.OnDebugBase = func(section int, base uint32) {
		bases := model.Bases()
		switch section {
		case 0:
			bases.Text = base
		case 1:
			bases.Data = base
		case 2:
			bases.BSS = base
		}
		model.SetBases(bases)
	}
	return c
}

// Mode reports the controller's current run mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// SetMode transitions to a new top-level mode. Entering Live or Headless
// from a state where the program counter sits on an enabled breakpoint
// arms a one-shot suppression so execution can actually leave it
// (spec.md §4.6, "Suppress-breakpoint-at-PC").
func (c *Controller) SetMode(m Mode) {
	if (m == Live || m == Headless) && c.pcOnEnabledBreakpoint() {
		c.host.SuppressBreakpointAtPC()
	}
	c.mode = m
}

// SetWarp toggles the ×10 speed multiplier used in Live mode (original:
// debugger_toggleSpeed).
func (c *Controller) SetWarp(on bool) {
	c.warp = on
}

func (c *Controller) pcOnEnabledBreakpoint() bool {
	pc, ok := c.model.FindRegister("PC")
	if !ok {
		return false
	}
	addr := c.model.System().Mask(uint32(pc.Value))
	bp, found := c.model.FindBreakpointByAddr(addr)
	return found && bp.Enabled
}

// Step requests exactly one forward frame and returns to Paused once it
// completes, regardless of mode.
func (c *Controller) Step() {
	c.mode = FrameStep
	c.pendingSteps = 1
}

// Tick runs the frame-loop body once (spec.md §4.6, "Frame loop
// skeleton"). Callers drive their own poll/yield cadence between calls;
// Tick itself never sleeps.
func (c *Controller) Tick(ctx context.Context) error {
	switch c.mode {
	case Paused, Restore:
		return nil
	case FrameStep:
		if c.pendingSteps <= 0 {
			c.mode = Paused
			return nil
		}
		if err := c.runOnce(ctx); err != nil {
			return err
		}
		c.pendingSteps--
		if c.pendingSteps <= 0 && c.mode != Paused {
			c.mode = Paused
			c.refreshAndNotify(ctx)
		}
		return nil
	case Live:
		steps := 1
		if c.warp {
			steps = warpMultiplier
		}
		for i := 0; i < steps; i++ {
			if err := c.runOnce(ctx); err != nil {
				return err
			}
			if c.mode == Paused {
				return nil
			}
		}
		return nil
	case Headless:
		return c.runOnce(ctx)
	default:
		panic(fmt.Sprintf("execctl: Tick: unsupported mode (%v)", c.mode))
	}
}

// runOnce executes steps 2-7 of the per-tick algorithm for a single
// frame.
func (c *Controller) runOnce(ctx context.Context) error {
	next := c.lastFrame + 1
	if !c.hasFrame {
		next = 0
	}

	c.input.Apply(next)

	result, err := c.host.RunOneFrame()
	if err != nil {
		return err
	}

	if result.Vblank {
		if err := c.pushSnapshot(next); err != nil {
			logger.Logf(logger.Allow, "execctl", "snapshot push failed at frame %d: %v", next, err)
		}
	}

	c.lastFrame = next
	c.hasFrame = true

	if result.BreakpointHit {
		c.mode = Paused
		c.refreshAndNotify(ctx)
	}
	return nil
}

func (c *Controller) pushSnapshot(frame uint64) error {
	data, err := c.host.Serialize()
	if err != nil {
		return err
	}
	return c.ring.Push(frame, data)
}

// refreshAndNotify rebuilds the Machine Model from the Host's current
// register/callstack reads and fires OnPause.
func (c *Controller) refreshAndNotify(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		logger.Logf(logger.Allow, "execctl", "refresh failed: %v", err)
	}
	if c.OnPause != nil {
		c.OnPause()
	}
}

// Refresh pulls registers and the return-address trail from the Host and
// rebuilds the Machine Model, resolving each frame's address via the
// Symbolizer and the configured source directory.
func (c *Controller) Refresh(ctx context.Context) error {
	regs, err := c.host.ReadRegisters()
	if err != nil {
		return err
	}
	returnAddrs, err := c.host.ReadCallstack()
	if err != nil {
		return err
	}

	c.model.Refresh(regs, returnAddrs, c.resolve(ctx))
	return nil
}

// resolve builds a machine.Resolver backed by the Symbolizer Client and
// one cached source line read per address. Queries are offset by the
// plug-in-reported text section base, so a relocatable/PIE core's
// addresses still line up with the ELF the symbolizer was started
// against (spec.md §9, "onSetDebugBaseFromCore").
func (c *Controller) resolve(ctx context.Context) machine.Resolver {
	textBase := c.model.Bases().Text
	return func(addr uint32) (string, int, string) {
		if c.sym == nil {
			return "", 0, ""
		}
		file, line, ok := c.sym.Resolve(ctx, addr-textBase)
		if !ok {
			return "", 0, ""
		}
		source := c.readSourceLine(file, line)
		return file, line, source
	}
}

func (c *Controller) readSourceLine(file string, line int) string {
	if file == "" || line <= 0 || c.sourceDir == "" {
		return ""
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.sourceDir, file)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	n := 1
	start := 0
	for i, b := range data {
		if n == line {
			end := i
			for end < len(data) && data[end] != '\n' {
				end++
			}
			return string(data[start:end])
		}
		if b == '\n' {
			n++
			start = i + 1
		}
	}
	return ""
}

// BeginSeekDrag pauses the State Ring and enters Restore mode, preserving
// the mode to return to on EndSeekDrag.
func (c *Controller) BeginSeekDrag() {
	c.ring.SetPaused(true)
	c.restoreMode = c.mode
	c.mode = Restore
}

// SeekDrag restores the snapshot at percent without advancing emulation,
// for live preview while the user scrubs a seek bar.
func (c *Controller) SeekDrag(ctx context.Context, percent float64) error {
	if c.mode != Restore {
		panic(fmt.Sprintf("execctl: SeekDrag: unsupported mode (%v)", c.mode))
	}

	rec, ok := c.ring.FrameAtPercent(percent)
	if !ok {
		return curated.Errorf("execctl: seek on an empty state ring")
	}
	if err := c.host.Unserialize(rec.Bytes); err != nil {
		return err
	}
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	c.seekTarget = rec
	c.haveSeekBytes = true
	c.lastFrame = rec.Frame
	c.hasFrame = true
	return nil
}

// EndSeekDrag trims the ring's forgotten future, unpauses it, and returns
// to the mode active before BeginSeekDrag. When the session is
// live-recording, the recorded input file's forgotten future is discarded
// the same way; a playback session retains every recorded event, since
// re-deriving the user's intent from a truncated recording under replay
// would silently diverge from what was actually played.
func (c *Controller) EndSeekDrag() {
	if c.haveSeekBytes {
		c.ring.TrimAfter(c.seekTarget.Frame)
		if c.input.IsRecording() {
			if err := c.input.TruncateAfter(c.seekTarget.Frame); err != nil {
				logger.Logf(logger.Allow, "execctl", "truncating input record: %v", err)
			}
		}
	}
	c.haveSeekBytes = false
	c.ring.SetPaused(false)
	c.mode = c.restoreMode
}

// Shutdown interrupts the loop after the current tick (the caller must
// not call Tick again after this returns), stops the Symbolizer, and
// always calls through to the Host's own shutdown.
func (c *Controller) Shutdown() {
	if c.sym != nil {
		c.sym.Stop()
	}
	c.host.Shutdown()
}
