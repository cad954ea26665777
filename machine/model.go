package machine

import "strings"

// Register is one named CPU register and its current value. Comparison by
// name is case-insensitive (spec.md §3).
type Register struct {
	Name  string
	Value uint64
}

// Frame is one resolved callstack entry. Level 0 is always the innermost
// frame (the program counter); deeper levels are saved return addresses.
type Frame struct {
	Level  int
	Addr   uint32
	File   string
	Line   int
	Source string // cached source line text, empty if unavailable
}

// Breakpoint is a single code-address breakpoint. Ids are assigned
// monotonically starting at 1 and are never reused.
type Breakpoint struct {
	ID      int
	Enabled bool
	Addr    uint32
}

// Bases holds the relocated section base addresses the plug-in may report
// at runtime (original_source debugger_onSetDebugBaseFromCore).
type Bases struct {
	Text uint32
	Data uint32
	BSS  uint32
}

// Resolver resolves a code address to a displayable (file, line, source
// text) triple. The Execution Controller wires this to the Symbolizer
// Client plus a source-directory file read; tests can supply a stub.
type Resolver func(addr uint32) (file string, line int, source string)

// Model is the passive mirror of the emulated CPU's state as of the last
// Refresh. Breakpoints persist across refreshes; everything else is
// replaced wholesale.
type Model struct {
	system System

	regs   []Register
	frames []Frame
	bases  Bases

	breakpoints      []Breakpoint
	nextBreakpointID int

	running bool
}

// NewModel creates an empty Model for the given system.
func NewModel(system System) *Model {
	return &Model{
		system:           system,
		nextBreakpointID: 1,
	}
}

// System returns the system this model was created for.
func (m *Model) System() System {
	return m.system
}

// SetBases records the plug-in-reported section base addresses.
func (m *Model) SetBases(b Bases) {
	m.bases = b
}

// Bases returns the last-reported section base addresses.
func (m *Model) Bases() Bases {
	return m.bases
}

// SetRunning records whether the emulator is currently running (as opposed
// to paused). It does not itself start or stop anything; the Execution
// Controller is the source of truth for mode and calls this to keep the
// Model's view in sync for display purposes.
func (m *Model) SetRunning(running bool) {
	m.running = running
}

// Running reports the last value passed to SetRunning.
func (m *Model) Running() bool {
	return m.running
}

// Refresh replaces the register array and rebuilds the callstack: frame 0
// from the PC register, frames 1..N from returnAddrs (deepest first,
// outermost last, matching the Emulator Host's read_callstack order).
// resolve is consulted for every frame's (file, line, source); it may be
// nil, in which case frames carry only their address.
func (m *Model) Refresh(regs []Register, returnAddrs []uint32, resolve Resolver) {
	m.regs = append(m.regs[:0:0], regs...)

	pc, ok := m.FindRegister("PC")
	var pcAddr uint32
	if ok {
		pcAddr = m.system.Mask(uint32(pc.Value))
	}

	frames := make([]Frame, 0, len(returnAddrs)+1)
	frames = append(frames, m.resolveFrame(0, pcAddr, resolve))
	for i, addr := range returnAddrs {
		frames = append(frames, m.resolveFrame(i+1, m.system.Mask(addr), resolve))
	}
	m.frames = frames
}

func (m *Model) resolveFrame(level int, addr uint32, resolve Resolver) Frame {
	f := Frame{Level: level, Addr: addr}
	if resolve != nil {
		f.File, f.Line, f.Source = resolve(addr)
	}
	return f
}

// Registers returns the current register snapshot, in the order reported
// by the last Refresh.
func (m *Model) Registers() []Register {
	return m.regs
}

// Callstack returns the current resolved callstack, innermost first.
func (m *Model) Callstack() []Frame {
	return m.frames
}

// FindRegister looks up a register by name, case-insensitively.
func (m *Model) FindRegister(name string) (Register, bool) {
	for _, r := range m.regs {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Register{}, false
}

// Breakpoints returns every breakpoint, in the order they were added.
func (m *Model) Breakpoints() []Breakpoint {
	return m.breakpoints
}

// FindBreakpointByAddr looks up a breakpoint by its masked address.
func (m *Model) FindBreakpointByAddr(addr uint32) (*Breakpoint, bool) {
	addr = m.system.Mask(addr)
	for i := range m.breakpoints {
		if m.breakpoints[i].Addr == addr {
			return &m.breakpoints[i], true
		}
	}
	return nil, false
}

// FindBreakpointByID looks up a breakpoint by its id.
func (m *Model) FindBreakpointByID(id int) (*Breakpoint, bool) {
	for i := range m.breakpoints {
		if m.breakpoints[i].ID == id {
			return &m.breakpoints[i], true
		}
	}
	return nil, false
}

// AddBreakpoint is idempotent on address: re-adding an address that already
// has a breakpoint returns the existing record, re-enabling it if it was
// disabled. Otherwise a fresh, never-reused id is assigned.
func (m *Model) AddBreakpoint(addr uint32, enabled bool) Breakpoint {
	addr = m.system.Mask(addr)

	if bp, ok := m.FindBreakpointByAddr(addr); ok {
		if enabled {
			bp.Enabled = true
		}
		return *bp
	}

	bp := Breakpoint{
		ID:      m.nextBreakpointID,
		Enabled: enabled,
		Addr:    addr,
	}
	m.nextBreakpointID++
	m.breakpoints = append(m.breakpoints, bp)
	return bp
}

// SetBreakpointEnabled toggles the enabled flag of the breakpoint with the
// given id. It returns the breakpoint's masked address and true on success,
// or false if no breakpoint has that id.
func (m *Model) SetBreakpointEnabled(id int, enabled bool) (uint32, bool) {
	bp, ok := m.FindBreakpointByID(id)
	if !ok {
		return 0, false
	}
	bp.Enabled = enabled
	return bp.Addr, true
}

// RemoveBreakpointByAddr removes the breakpoint at addr, if any, compacting
// the slice. The id is retired, never reused.
func (m *Model) RemoveBreakpointByAddr(addr uint32) bool {
	addr = m.system.Mask(addr)
	for i := range m.breakpoints {
		if m.breakpoints[i].Addr == addr {
			m.breakpoints = append(m.breakpoints[:i], m.breakpoints[i+1:]...)
			return true
		}
	}
	return false
}

// ClearBreakpoints removes every breakpoint. Ids already issued are never
// reused by subsequent AddBreakpoint calls.
func (m *Model) ClearBreakpoints() {
	m.breakpoints = m.breakpoints[:0]
}
