package machine_test

import (
	"testing"

	"github.com/e9kdbg/e9kdbg/machine"
)

func TestBreakpointIdempotentOnAddress(t *testing.T) {
	m := machine.NewModel(machine.NeoGeo)

	a := m.AddBreakpoint(0x001234, true)
	b := m.AddBreakpoint(0x001234, true)
	if a.ID != b.ID {
		t.Fatalf("expected re-adding an address to return the same id, got %d and %d", a.ID, b.ID)
	}
	if len(m.Breakpoints()) != 1 {
		t.Fatalf("expected exactly one breakpoint, got %d", len(m.Breakpoints()))
	}
}

func TestBreakpointAddressMasking(t *testing.T) {
	m := machine.NewModel(machine.NeoGeo)

	bp := m.AddBreakpoint(0xFF001234, true)
	if bp.Addr != 0x001234 {
		t.Fatalf("expected address to be masked to 24 bits, got %#x", bp.Addr)
	}
}

func TestReAddingDisabledBreakpointReenables(t *testing.T) {
	m := machine.NewModel(machine.NeoGeo)

	bp := m.AddBreakpoint(0x001234, true)
	m.SetBreakpointEnabled(bp.ID, false)

	again := m.AddBreakpoint(0x001234, true)
	if !again.Enabled {
		t.Fatal("expected re-adding a disabled breakpoint to re-enable it")
	}
}

func TestBreakpointIdsNeverReused(t *testing.T) {
	m := machine.NewModel(machine.NeoGeo)

	a := m.AddBreakpoint(0x001000, true)
	m.RemoveBreakpointByAddr(0x001000)
	b := m.AddBreakpoint(0x002000, true)

	if b.ID == a.ID {
		t.Fatalf("expected a fresh id after removal, got reused id %d", a.ID)
	}
	if b.ID <= a.ID {
		t.Fatalf("expected ids to increase monotonically, got %d then %d", a.ID, b.ID)
	}
}

func TestFindRegisterCaseInsensitive(t *testing.T) {
	m := machine.NewModel(machine.NeoGeo)
	m.Refresh([]machine.Register{{Name: "PC", Value: 0x1234}}, nil, nil)

	r, ok := m.FindRegister("pc")
	if !ok || r.Value != 0x1234 {
		t.Fatalf("expected case-insensitive lookup to find PC, got %+v ok=%v", r, ok)
	}
}

func TestRefreshBuildsCallstackFromPCAndReturnAddrs(t *testing.T) {
	m := machine.NewModel(machine.NeoGeo)

	resolved := map[uint32]string{
		0x1000: "main.s",
		0x2000: "caller.s",
	}
	resolve := func(addr uint32) (string, int, string) {
		return resolved[addr], 10, "; some source line"
	}

	m.Refresh(
		[]machine.Register{{Name: "PC", Value: 0x1000}},
		[]uint32{0x2000},
		resolve,
	)

	cs := m.Callstack()
	if len(cs) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(cs))
	}
	if cs[0].Level != 0 || cs[0].Addr != 0x1000 || cs[0].File != "main.s" {
		t.Fatalf("unexpected frame 0: %+v", cs[0])
	}
	if cs[1].Level != 1 || cs[1].Addr != 0x2000 || cs[1].File != "caller.s" {
		t.Fatalf("unexpected frame 1: %+v", cs[1])
	}
}

func TestBreakpointsSurviveRefresh(t *testing.T) {
	m := machine.NewModel(machine.NeoGeo)
	m.AddBreakpoint(0x001234, true)

	m.Refresh([]machine.Register{{Name: "PC", Value: 1}}, nil, nil)

	if len(m.Breakpoints()) != 1 {
		t.Fatalf("expected breakpoint to survive a refresh, got %d", len(m.Breakpoints()))
	}
}
