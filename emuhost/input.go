package emuhost

// Host implements inputrecord.Sink directly: playback/recording delivers
// events by calling these methods, which forward immediately to the
// plug-in's optional input-injection exports. Per spec.md §5's ordering
// guarantee ("input events for frame N are delivered before run() for
// frame N"), InputRecord.Apply is always called before RunOneFrame, so no
// internal queueing is needed here.

// SetJoypadState forwards a joypad button change to the plug-in.
func (h *Host) SetJoypadState(port, id uint, pressed bool) {
	h.mu.Lock()
	fn := h.pluginSetJoypadState
	h.mu.Unlock()
	if fn != nil {
		fn(uint32(port), uint32(id), pressed)
	}
}

// SendKeyEvent forwards a key event to the plug-in.
func (h *Host) SendKeyEvent(keycode uint, character uint32, modifiers uint16, pressed bool) {
	h.mu.Lock()
	fn := h.pluginSendKeyEvent
	h.mu.Unlock()
	if fn != nil {
		fn(uint32(keycode), character, modifiers, pressed)
	}
}

// ClearJoypadState forwards a clear-all-input request to the plug-in.
func (h *Host) ClearJoypadState() {
	h.mu.Lock()
	fn := h.pluginClearJoypadState
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetBreakpoint adds or updates a breakpoint in the Host's authoritative
// set; the plug-in never holds its own copy, it only calls back into the
// instruction hook that consults this set.
func (h *Host) SetBreakpoint(addr uint32, enabled bool) {
	h.breakpoints.Set(addr, enabled)
}

// RemoveBreakpoint clears a breakpoint.
func (h *Host) RemoveBreakpoint(addr uint32) {
	h.breakpoints.Remove(addr)
}

// SuppressBreakpointAtPC arms a one-shot suppression so that resuming
// execution from a breakpoint the program counter already sits on does
// not immediately re-break.
func (h *Host) SuppressBreakpointAtPC() {
	h.breakpoints.SuppressOnce()
}
