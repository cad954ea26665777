// Package machine holds the passive in-memory mirror of the emulated CPU's
// state as of the last refresh: registers, a resolved callstack, and the
// persistent breakpoint set.
//
// Grounded on the teacher's coprocessor/developer/callstack.go (callstack
// as an ordered slice of frames) and debugger/breakpoints.go (monotonic,
// never-reused breakpoint ids), and on original_source/e9k-debugger/
// machine.c for the exact operations and 24-bit address masking.
package machine
