// Package execctl is the frame-driven run loop: it interleaves Emulator
// Host stepping, input playback, snapshot capture into the State Ring,
// and Machine Model refreshes on pause or breakpoint, and dispatches the
// seek-bar drag protocol (spec.md §4.6).
package execctl
