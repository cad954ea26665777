package execctl_test

import (
	"context"
	"io"
	"testing"

	"github.com/e9kdbg/e9kdbg/emuhost"
	"github.com/e9kdbg/e9kdbg/execctl"
	"github.com/e9kdbg/e9kdbg/inputrecord"
	"github.com/e9kdbg/e9kdbg/machine"
	"github.com/e9kdbg/e9kdbg/profiler"
	"github.com/e9kdbg/e9kdbg/statering"
)

func newTestController() *execctl.Controller {
	host := emuhost.NewHost()
	ring := statering.NewRing(1 << 20)
	model := machine.NewModel(machine.NeoGeo)
	log := inputrecord.New(host, profiler.NewCheckpoints(), io.Discard)
	return execctl.New(host, ring, log, model, nil, "")
}

func TestTickIsNoopWhilePaused(t *testing.T) {
	c := newTestController()
	if c.Mode() != execctl.Paused {
		t.Fatalf("expected a fresh controller to start Paused, got %v", c.Mode())
	}
	if err := c.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error while paused: %v", err)
	}
}

func TestTickPropagatesHostErrorsWhenUnloaded(t *testing.T) {
	c := newTestController()
	c.SetMode(execctl.Live)

	if err := c.Tick(context.Background()); err == nil {
		t.Fatal("expected an error driving an unloaded host")
	}
}

func TestStepEntersFrameStepMode(t *testing.T) {
	c := newTestController()
	c.Step()
	if c.Mode() != execctl.FrameStep {
		t.Fatalf("expected FrameStep mode after Step, got %v", c.Mode())
	}
}

func TestSetModeSuppressesBreakpointAtCurrentPC(t *testing.T) {
	host := emuhost.NewHost()
	ring := statering.NewRing(1 << 20)
	model := machine.NewModel(machine.NeoGeo)
	log := inputrecord.New(host, profiler.NewCheckpoints(), io.Discard)
	c := execctl.New(host, ring, log, model, nil, "")

	model.Refresh([]machine.Register{{Name: "PC", Value: 0x4000}}, nil, nil)
	model.AddBreakpoint(0x4000, true)
	host.SetBreakpoint(0x4000, true)

	c.SetMode(execctl.Live)

	if host.Breakpoints().Test(0x4000) {
		t.Fatal("expected the breakpoint at the current PC to be suppressed once")
	}
	if !host.Breakpoints().Test(0x4000) {
		t.Fatal("expected the breakpoint to be reinstated on the next test")
	}
}

func TestSetModeDoesNotSuppressWhenPCHasNoBreakpoint(t *testing.T) {
	c := newTestController()
	c.SetMode(execctl.Live) // must not panic with no PC register set
	if c.Mode() != execctl.Live {
		t.Fatalf("expected Live mode, got %v", c.Mode())
	}
}

func TestModeString(t *testing.T) {
	cases := map[execctl.Mode]string{
		execctl.Live:      "live",
		execctl.FrameStep:  "frame-step",
		execctl.Paused:    "paused",
		execctl.Restore:   "restore",
		execctl.Headless:  "headless",
	}
	for mode, want := range cases {
		if got := mode.String(); got != want {
			t.Fatalf("Mode(%d).String() = %q, want %q", mode, got, want)
		}
	}
}
