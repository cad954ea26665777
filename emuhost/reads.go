package emuhost

import (
	"encoding/binary"
	"unsafe"

	"github.com/e9kdbg/e9kdbg/curated"
	"github.com/e9kdbg/e9kdbg/machine"
)

// Debug-read wire formats (spec.md §4.4, "Debug read operations"). These
// are the host's own contract with the debug extension's optional
// exports — the spec leaves the byte layout unspecified beyond "opaque",
// so a conforming plug-in is expected to follow this encoding for the
// two structured reads (registers, callstack); VRAM and checkpoint reads
// stay genuinely opaque and are passed through untouched.
//
// read_registers: uint32 count, then count * (uint8 nameLen, name bytes,
// uint64 value little-endian).
//
// read_callstack: uint32 count, then count * uint32 return address
// (deepest call first, matching the plug-in's unwind order).
const maxDebugReadBytes = 1 << 16

func (h *Host) debugRead(fn func(buf uintptr, cap uintptr) uintptr) ([]byte, error) {
	if fn == nil {
		return nil, nil
	}
	buf := make([]byte, maxDebugReadBytes)
	n := int(fn(uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf))))
	if n < 0 {
		return nil, curated.Errorf("emuhost: debug read failed")
	}
	if n > len(buf) {
		n = len(buf)
	}
	return buf[:n], nil
}

// ReadRegisters fetches and decodes the plug-in's current register file.
func (h *Host) ReadRegisters() ([]machine.Register, error) {
	h.mu.Lock()
	fn := h.pluginReadRegisters
	h.mu.Unlock()

	raw, err := h.debugRead(fn)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeRegisters(raw)
}

func decodeRegisters(raw []byte) ([]machine.Register, error) {
	if len(raw) < 4 {
		return nil, nil
	}
	count := binary.LittleEndian.Uint32(raw)
	raw = raw[4:]

	regs := make([]machine.Register, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(raw) < 1 {
			return nil, curated.Errorf("emuhost: truncated register record")
		}
		nameLen := int(raw[0])
		raw = raw[1:]
		if len(raw) < nameLen+8 {
			return nil, curated.Errorf("emuhost: truncated register record")
		}
		name := string(raw[:nameLen])
		raw = raw[nameLen:]
		value := binary.LittleEndian.Uint64(raw)
		raw = raw[8:]
		regs = append(regs, machine.Register{Name: name, Value: value})
	}
	return regs, nil
}

// ReadCallstack fetches the plug-in's return-address trail, deepest
// frame first.
func (h *Host) ReadCallstack() ([]uint32, error) {
	h.mu.Lock()
	fn := h.pluginReadCallstack
	h.mu.Unlock()

	raw, err := h.debugRead(fn)
	if err != nil || raw == nil {
		return nil, err
	}
	return decodeCallstack(raw)
}

func decodeCallstack(raw []byte) ([]uint32, error) {
	if len(raw) < 4 {
		return nil, nil
	}
	count := binary.LittleEndian.Uint32(raw)
	raw = raw[4:]

	addrs := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(raw) < 4 {
			return nil, curated.Errorf("emuhost: truncated callstack record")
		}
		addrs = append(addrs, binary.LittleEndian.Uint32(raw))
		raw = raw[4:]
	}
	return addrs, nil
}

// ReadVRAM returns the plug-in's video memory, untouched.
func (h *Host) ReadVRAM() ([]byte, error) {
	h.mu.Lock()
	fn := h.pluginReadVRAM
	h.mu.Unlock()
	return h.debugRead(fn)
}

// ReadCheckpoints returns the raw profiler checkpoint histogram bytes,
// opaque to the Host — profiler.DecodeReadBuffer interprets them.
func (h *Host) ReadCheckpoints() ([]byte, error) {
	h.mu.Lock()
	fn := h.pluginChecksRead
	h.mu.Unlock()
	return h.debugRead(fn)
}
