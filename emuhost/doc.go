// Package emuhost loads a libretro-family emulator core as a shared
// library and adapts its C-ABI surface to the rest of the debugger: the
// environment-callback handshake, per-frame execution, serialize/restore,
// and a small debug extension (breakpoints, register/callstack/VRAM/
// checkpoint reads) that well-behaved cores export alongside the standard
// libretro entry points.
//
// Dynamic loading goes through github.com/ebitengine/purego rather than
// cgo, so this package (host.go, environment.go and reads.go in
// particular) is the module's one FFI/unsafe boundary; everything above
// it works with plain Go types.
package emuhost
