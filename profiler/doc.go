// Package profiler maintains the checkpoint histogram referenced by
// spec.md §4.4's checkpoints_read debug export: a fixed bank of named
// timing slots, each rolling min/max/count/average statistics over the
// ticks accumulated while it was the active slot.
//
// The histogram itself is plug-in-resident state; this package owns the
// host-side mirror used by the dump/reset UI-key handlers wired through
// inputrecord.Checkpoints, and the optional statsview dashboard in
// dashboard.go.
package profiler
