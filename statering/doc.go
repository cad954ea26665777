// Package statering implements the bounded-memory time-travel snapshot
// buffer: an append-only byte arena holding serialized machine snapshots,
// indexed by monotonically increasing frame number, with FIFO eviction
// once the arena exceeds its configured capacity.
package statering
