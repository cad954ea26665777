package emuhost

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/go-audio/audio"

	"github.com/e9kdbg/e9kdbg/curated"
	"github.com/e9kdbg/e9kdbg/logger"
)

// State is one node of the Host's lifecycle state machine (spec.md §4.4).
type State int

const (
	Unloaded State = iota
	Loaded
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// RunResult reports what happened during one Host.RunOneFrame call.
type RunResult struct {
	// BreakpointHit is true if the instruction hook reported a hit during
	// this frame; the Host has already transitioned to Paused.
	BreakpointHit bool
	// Vblank is true if the plug-in's vblank callback fired during this
	// frame, meaning the caller should capture and push a snapshot.
	Vblank bool
}

// Host owns a single loaded emulator plug-in. It is the module's only
// FFI/unsafe boundary: every exported method above this package deals in
// plain Go types.
type Host struct {
	mu sync.Mutex

	path  string
	state State

	handle uintptr

	// Required exports.
	pluginSetEnvironment func(cb uintptr)
	pluginInit           func()
	pluginLoadGame       func(path string) bool
	pluginRun            func()
	pluginSerializeSize  func() uintptr
	pluginSerialize      func(buf uintptr, size uintptr) bool
	pluginUnserialize    func(buf uintptr, size uintptr) bool
	pluginDeinit         func()

	// Optional debug-extension exports; nil when the plug-in doesn't
	// export them.
	pluginReadRegisters       func(buf uintptr, cap uintptr) uintptr
	pluginReadCallstack       func(buf uintptr, cap uintptr) uintptr
	pluginReadVRAM            func(buf uintptr, cap uintptr) uintptr
	pluginChecksRead          func(buf uintptr, cap uintptr) uintptr
	pluginSetJoypadState      func(port uint32, id uint32, pressed bool)
	pluginSendKeyEvent        func(keycode uint32, character uint32, modifiers uint16, pressed bool)
	pluginClearJoypadState    func()
	pluginReadFramebuffer     func(buf uintptr, cap uintptr, width uintptr, height uintptr) uintptr
	pluginReadAudio           func(buf uintptr, cap uintptr) uintptr
	pluginSetInstructionHook  func(cb uintptr)
	pluginSetVBlankCallback   func(cb uintptr)
	pluginSetDebugBaseHook    func(cb uintptr)

	envCallback      uintptr
	instructionHook  uintptr
	vblankCallback   uintptr
	debugBaseHook    uintptr

	catalogue Catalogue
	systemDir string
	saveDir   string
	overrides map[string]string

	breakpoints *BreakpointSet

	scratch []byte

	framebuffer       []byte
	framebufferWidth  uint32
	framebufferHeight uint32
	audioSink         *audio.FloatBuffer

	breakHit  bool
	vblankHit bool

	// OnPause is invoked whenever the host transitions to Paused, whether
	// from a breakpoint hit or an explicit caller request.
	OnPause func()
	// OnDebugBase is invoked when the plug-in reports a debug-section
	// base address (text=0, data=1, bss=2, matching the original core's
	// convention).
	OnDebugBase func(section int, base uint32)

	cstrings map[string][]byte
}

// NewHost returns an unloaded Host ready for Load or Probe.
func NewHost() *Host {
	return &Host{
		state:       Unloaded,
		breakpoints: NewBreakpointSet(),
		overrides:   make(map[string]string),
		cstrings:    make(map[string][]byte),
	}
}

// State reports the Host's current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Breakpoints exposes the Host's authoritative breakpoint set.
func (h *Host) Breakpoints() *BreakpointSet {
	return h.breakpoints
}

// SetDirectories configures the paths returned to the plug-in by the
// get-system-directory / get-save-directory environment commands.
func (h *Host) SetDirectories(systemDir, saveDir string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.systemDir = systemDir
	h.saveDir = saveDir
}

// SetOverride records an explicit value for a core option key, taking
// precedence over the catalogue default in subsequent get-variable calls.
func (h *Host) SetOverride(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.overrides[key] = value
}

// Catalogue returns a copy of the currently known option catalogue.
func (h *Host) Catalogue() Catalogue {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.catalogue
}

// dlopen loads the shared library at path and resolves the required
// libretro-style entry points, leaving the optional debug-extension
// exports bound wherever the plug-in provides them.
func (h *Host) dlopen(path string) error {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return curated.Errorf("emuhost: load %s: %v", path, err)
	}
	h.handle = handle
	h.path = path

	purego.RegisterLibFunc(&h.pluginSetEnvironment, handle, "set_environment")
	purego.RegisterLibFunc(&h.pluginInit, handle, "init")
	purego.RegisterLibFunc(&h.pluginLoadGame, handle, "load_game")
	purego.RegisterLibFunc(&h.pluginRun, handle, "run")
	purego.RegisterLibFunc(&h.pluginSerializeSize, handle, "serialize_size")
	purego.RegisterLibFunc(&h.pluginSerialize, handle, "serialize")
	purego.RegisterLibFunc(&h.pluginUnserialize, handle, "unserialize")
	purego.RegisterLibFunc(&h.pluginDeinit, handle, "deinit")

	registerOptional(handle, "read_registers", &h.pluginReadRegisters)
	registerOptional(handle, "read_callstack", &h.pluginReadCallstack)
	registerOptional(handle, "read_vram", &h.pluginReadVRAM)
	registerOptional(handle, "checkpoints_read", &h.pluginChecksRead)
	registerOptional(handle, "set_joypad_state", &h.pluginSetJoypadState)
	registerOptional(handle, "send_key_event", &h.pluginSendKeyEvent)
	registerOptional(handle, "clear_joypad_state", &h.pluginClearJoypadState)
	registerOptional(handle, "read_framebuffer", &h.pluginReadFramebuffer)
	registerOptional(handle, "read_audio", &h.pluginReadAudio)
	registerOptional(handle, "set_instruction_hook", &h.pluginSetInstructionHook)
	registerOptional(handle, "set_vblank_callback", &h.pluginSetVBlankCallback)
	registerOptional(handle, "set_debug_base_callback", &h.pluginSetDebugBaseHook)

	return nil
}

// registerOptional binds fptr to the named symbol if the library exports
// it, and is a no-op otherwise; it lets the Host work with plug-ins that
// implement only the required libretro surface.
func registerOptional(handle uintptr, name string, fptr interface{}) {
	if _, err := purego.Dlsym(handle, name); err != nil {
		return
	}
	purego.RegisterLibFunc(fptr, handle, name)
}

// Probe runs the environment handshake without starting the emulator, to
// enumerate the plug-in's core options before commit (spec.md §4.4,
// "Probe mode"). init() is only called if no option definitions were
// captured during set_environment, mirroring core configuration probes
// that ingest their catalogue eagerly.
func (h *Host) Probe(path, systemDir, saveDir string) (Catalogue, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.dlopen(path); err != nil {
		return Catalogue{}, err
	}
	defer func() {
		purego.Dlclose(h.handle)
		h.handle = 0
		h.state = Unloaded
	}()

	h.systemDir = systemDir
	h.saveDir = saveDir
	h.catalogue = Catalogue{}

	h.activateEnvironment()

	h.pluginSetEnvironment(h.envCallback)
	if len(h.catalogue.Options) == 0 {
		h.pluginInit()
	}

	logger.Logf(logger.Allow, "emuhost", "probed %s: %d options", path, len(h.catalogue.Options))
	return h.catalogue, nil
}

// Load resolves the plug-in's entry points without running the handshake;
// Start completes the transition to Running.
func (h *Host) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Unloaded {
		return curated.Errorf("emuhost: Load called from state %v", h.state)
	}
	if err := h.dlopen(path); err != nil {
		return err
	}
	h.state = Loaded
	return nil
}

// Start completes the environment handshake, initializes the plug-in, and
// loads romPath, transitioning Loaded -> Running.
func (h *Host) Start(romPath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Loaded {
		return curated.Errorf("emuhost: Start called from state %v", h.state)
	}

	h.activateEnvironment()
	h.pluginSetEnvironment(h.envCallback)
	h.pluginInit()

	if h.pluginSetInstructionHook != nil {
		h.instructionHook = purego.NewCallback(func(addr uint32) bool {
			hit := h.breakpoints.Test(addr)
			if hit {
				h.breakHit = true
			}
			return hit
		})
		h.pluginSetInstructionHook(h.instructionHook)
	}
	if h.pluginSetVBlankCallback != nil {
		h.vblankCallback = purego.NewCallback(func() {
			h.vblankHit = true
		})
		h.pluginSetVBlankCallback(h.vblankCallback)
	}
	if h.pluginSetDebugBaseHook != nil {
		h.debugBaseHook = purego.NewCallback(func(section uint32, base uint32) {
			if h.OnDebugBase != nil {
				h.OnDebugBase(int(section), base)
			}
		})
		h.pluginSetDebugBaseHook(h.debugBaseHook)
	}

	if !h.pluginLoadGame(romPath) {
		return curated.Errorf("emuhost: load_game failed for %s", romPath)
	}

	h.state = Running
	logger.Logf(logger.Allow, "emuhost", "started %s with %s", h.path, romPath)
	return nil
}

func (h *Host) activateEnvironment() {
	if h.envCallback == 0 {
		h.envCallback = purego.NewCallback(func(cmd uint32, data uintptr) bool {
			return h.environment(cmd, data)
		})
	}
}

// RunOneFrame advances the emulator by exactly one frame (spec.md §4.4,
// "Run-one-frame"). Input delivery is the caller's responsibility and must
// happen before this call; RunOneFrame only drives run(), drains audio,
// publishes the framebuffer, and reports whether a breakpoint or vblank
// fired.
func (h *Host) RunOneFrame() (RunResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Running && h.state != Paused {
		return RunResult{}, curated.Errorf("emuhost: RunOneFrame called from state %v", h.state)
	}

	h.breakHit = false
	h.vblankHit = false

	h.pluginRun()

	h.drainAudioLocked()
	h.publishFramebufferLocked()

	// A plug-in that never registered a vblank callback has no way to
	// tell the host a frame boundary was reached; per spec.md §4.4 treat
	// every run() as its own vblank in that case so snapshots still get
	// pushed every frame.
	vblank := h.vblankHit || h.pluginSetVBlankCallback == nil

	result := RunResult{BreakpointHit: h.breakHit, Vblank: vblank}
	if result.BreakpointHit {
		h.state = Paused
		if h.OnPause != nil {
			h.OnPause()
		}
	} else {
		h.state = Running
	}
	return result, nil
}

// Pause transitions Running -> Paused without a breakpoint hit, e.g. a
// user-requested pause.
func (h *Host) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Running {
		h.state = Paused
		if h.OnPause != nil {
			h.OnPause()
		}
	}
}

// Resume transitions Paused -> Running.
func (h *Host) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Paused {
		h.state = Running
	}
}

// SerializeSize returns the current snapshot size in bytes.
func (h *Host) SerializeSize() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pluginSerializeSize == nil {
		return 0, curated.Errorf("emuhost: plug-in not loaded")
	}
	return int(h.pluginSerializeSize()), nil
}

// Serialize captures the current machine state into the Host's reused
// scratch buffer (grown upward only, per spec.md §5) and returns a byte
// slice the caller must treat as valid only until the next Serialize call.
func (h *Host) Serialize() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := int(h.pluginSerializeSize())
	if cap(h.scratch) < size {
		h.scratch = make([]byte, size)
	}
	h.scratch = h.scratch[:size]

	if size == 0 {
		return h.scratch, nil
	}
	if !h.pluginSerialize(uintptr(unsafe.Pointer(&h.scratch[0])), uintptr(size)) {
		return nil, curated.Errorf("emuhost: serialize failed")
	}
	return h.scratch, nil
}

// Unserialize restores a previously captured snapshot.
func (h *Host) Unserialize(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(data) == 0 {
		return curated.Errorf("emuhost: unserialize called with empty snapshot")
	}
	if !h.pluginUnserialize(uintptr(unsafe.Pointer(&data[0])), uintptr(len(data))) {
		return curated.Errorf("emuhost: unserialize rejected snapshot")
	}
	return nil
}

// Shutdown tears the plug-in down and unloads the library. It is reachable
// from any state and always unloads (spec.md §4.4 lifecycle diagram).
func (h *Host) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Unloaded && h.pluginDeinit != nil {
		h.pluginDeinit()
	}
	if h.handle != 0 {
		purego.Dlclose(h.handle)
		h.handle = 0
	}
	h.catalogue.Free()
	h.state = Unloaded
	logger.Logf(logger.Allow, "emuhost", "shut down %s", h.path)
}

func (h *Host) drainAudioLocked() {
	if h.pluginReadAudio == nil || h.audioSink == nil {
		return
	}
	const maxFrames = 1 << 16
	buf := make([]int16, maxFrames*2)
	n := int(h.pluginReadAudio(uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)*2)))
	if n <= 0 {
		return
	}
	frames := n / 2
	for i := 0; i < frames*2 && i < len(buf); i++ {
		h.audioSink.Data = append(h.audioSink.Data, float64(buf[i])/32768.0)
	}
}

func (h *Host) publishFramebufferLocked() {
	if h.pluginReadFramebuffer == nil {
		return
	}
	const maxBytes = 4 << 20
	if cap(h.framebuffer) < maxBytes {
		h.framebuffer = make([]byte, maxBytes)
	}
	h.framebuffer = h.framebuffer[:maxBytes]

	var width, height uint32
	n := int(h.pluginReadFramebuffer(
		uintptr(unsafe.Pointer(&h.framebuffer[0])),
		uintptr(len(h.framebuffer)),
		uintptr(unsafe.Pointer(&width)),
		uintptr(unsafe.Pointer(&height)),
	))
	if n < 0 {
		n = 0
	}
	h.framebuffer = h.framebuffer[:n]
	h.framebufferWidth = width
	h.framebufferHeight = height
}

// Framebuffer returns the most recently published frame and its
// dimensions.
func (h *Host) Framebuffer() (data []byte, width, height uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.framebuffer, h.framebufferWidth, h.framebufferHeight
}

// SetAudioSink configures the buffer audio samples are appended to during
// RunOneFrame; pass nil to disable audio draining.
func (h *Host) SetAudioSink(sink *audio.FloatBuffer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.audioSink = sink
}

// cString returns an owned, null-terminated copy of s, pinned in a Go map
// keyed by s so the returned address stays valid for the life of the
// Host. Repeated calls with the same string reuse the same buffer.
func (h *Host) cString(s string) uintptr {
	return h.cStringFor(s, s)
}

// cStringFor is like cString but stores the pinned buffer under key
// rather than under value, so a later call for the same key reuses and
// overwrites the same backing array (replacing it only when the new value
// does not fit) instead of growing the map per call.
func (h *Host) cStringFor(key, value string) uintptr {
	buf := h.cstrings[key]
	if cap(buf) < len(value)+1 {
		buf = make([]byte, len(value)+1)
	}
	buf = buf[:len(value)+1]
	copy(buf, value)
	buf[len(value)] = 0
	h.cstrings[key] = buf
	return uintptr(unsafe.Pointer(&buf[0]))
}
