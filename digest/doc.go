// Package digest computes a short deterministic fingerprint of observable
// machine state (registers and callstack), so that tests exercising the
// round-trip laws in spec.md §8 ("record then playback produces
// byte-identical register/callstack readings", "seeking to a frame that was
// visited before produces the same state") can compare "the same observable
// state was reached" without comparing opaque serialized snapshot bytes.
//
// The concept is grounded on the teacher's own digest package (a Digest
// interface producing a hash from emulation output to detect divergence
// between runs); this version hashes a different, higher-level shape
// (registers + callstack addresses) since the core never interprets
// snapshot bytes itself.
package digest
