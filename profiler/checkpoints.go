package profiler

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/e9kdbg/e9kdbg/curated"
)

// Count is the fixed number of checkpoint slots, matching the plug-in
// side's histogram bank.
const Count = 64

// none is the sentinel "no active checkpoint" value, mirroring the -1
// used on the plug-in side.
const none = -1

// fieldsPerCheckpoint is how many uint64 fields each checkpoint record
// serializes to in both the state and read wire formats.
const fieldsPerCheckpoint = 6

// Checkpoint is one named timing slot's rolling statistics.
type Checkpoint struct {
	Current     uint64
	Accumulator uint64
	Count       uint64
	Average     uint64
	Minimum     uint64
	Maximum     uint64
}

// Checkpoints is the host-side mirror of the plug-in's checkpoint
// histogram. The zero value is not usable; construct with NewCheckpoints.
type Checkpoints struct {
	mu      sync.Mutex
	data    [Count]Checkpoint
	active  int
	enabled bool
}

// NewCheckpoints returns a disabled, empty histogram.
func NewCheckpoints() *Checkpoints {
	return &Checkpoints{active: none}
}

// Reset clears every slot and deactivates the current checkpoint, without
// changing the enabled flag.
func (c *Checkpoints) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = [Count]Checkpoint{}
	c.active = none
}

// SetEnabled toggles collection. Disabling also deactivates the current
// checkpoint so a stray Tick after disable has nowhere to accumulate.
func (c *Checkpoints) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !c.enabled {
		c.active = none
	}
}

// Enabled reports whether collection is active.
func (c *Checkpoints) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Write marks index as the newly active checkpoint, first rolling the
// previous active checkpoint's accumulated current sample into its
// min/max/count/accumulator/average.
func (c *Checkpoints) Write(index uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || int(index) >= Count {
		return
	}

	if c.active >= 0 {
		prev := &c.data[c.active]
		sample := prev.Current
		if prev.Count == 0 {
			prev.Minimum = sample
			prev.Maximum = sample
		} else {
			if sample < prev.Minimum {
				prev.Minimum = sample
			}
			if sample > prev.Maximum {
				prev.Maximum = sample
			}
		}
		prev.Count++
		prev.Accumulator += sample
		if prev.Count != 0 {
			prev.Average = prev.Accumulator / prev.Count
		}
		prev.Current = 0
	}

	c.active = int(index)
	c.data[index].Current = 0
}

// Tick adds ticks to the active checkpoint's running sample; a no-op if
// disabled or no checkpoint is active.
func (c *Checkpoints) Tick(ticks uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled || c.active < 0 {
		return
	}
	c.data[c.active].Current += ticks
}

// Read returns a copy of every slot, in index order.
func (c *Checkpoints) Read() [Count]Checkpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

// EncodeState serializes the full histogram, including the enabled flag
// and active index, for a State Ring snapshot round trip.
func (c *Checkpoints) EncodeState() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf := make([]byte, 0, 1+4+Count*fieldsPerCheckpoint*8)
	if c.enabled {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = appendUint32(buf, uint32(int32(c.active)))
	for _, cp := range c.data {
		buf = appendCheckpoint(buf, cp)
	}
	return buf
}

// DecodeState restores a histogram previously produced by EncodeState,
// clamping a corrupt active index back to "none" the way the original
// load path does.
func (c *Checkpoints) DecodeState(buf []byte) error {
	if len(buf) < 1+4 {
		return curated.Errorf("profiler: state buffer too short")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = buf[0] != 0
	active := int32(binary.LittleEndian.Uint32(buf[1:5]))
	buf = buf[5:]

	data, err := decodeCheckpointArray(buf)
	if err != nil {
		return err
	}
	c.data = data

	c.active = int(active)
	if !c.enabled {
		c.active = none
	}
	if c.active < none || c.active >= Count {
		c.active = none
	}
	return nil
}

// DecodeReadBuffer decodes the raw, header-less transport format returned
// by the plug-in's checkpoints_read export: just the Count checkpoint
// records back to back, with no enabled/active prefix. This is distinct
// from EncodeState/DecodeState, which round-trip the host's own snapshot
// format.
func DecodeReadBuffer(buf []byte) ([Count]Checkpoint, error) {
	return decodeCheckpointArray(buf)
}

func decodeCheckpointArray(buf []byte) ([Count]Checkpoint, error) {
	var out [Count]Checkpoint
	want := Count * fieldsPerCheckpoint * 8
	if len(buf) < want {
		return out, curated.Errorf("profiler: checkpoint buffer too short (got %d, want %d)", len(buf), want)
	}
	for i := 0; i < Count; i++ {
		out[i].Current = readUint64(buf)
		buf = buf[8:]
		out[i].Accumulator = readUint64(buf)
		buf = buf[8:]
		out[i].Count = readUint64(buf)
		buf = buf[8:]
		out[i].Average = readUint64(buf)
		buf = buf[8:]
		out[i].Minimum = readUint64(buf)
		buf = buf[8:]
		out[i].Maximum = readUint64(buf)
		buf = buf[8:]
	}
	return out, nil
}

func appendCheckpoint(buf []byte, cp Checkpoint) []byte {
	buf = appendUint64(buf, cp.Current)
	buf = appendUint64(buf, cp.Accumulator)
	buf = appendUint64(buf, cp.Count)
	buf = appendUint64(buf, cp.Average)
	buf = appendUint64(buf, cp.Minimum)
	buf = appendUint64(buf, cp.Maximum)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func readUint64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// Dump writes a human-readable table of every checkpoint with a non-zero
// sample count, satisfying inputrecord.Checkpoints so the UI-key dump
// handler can write straight into it.
func (c *Checkpoints) Dump(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(w, "checkpoints: enabled=%v active=%d\n", c.enabled, c.active)
	for i, cp := range c.data {
		if cp.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %2d: count=%d avg=%d min=%d max=%d\n", i, cp.Count, cp.Average, cp.Minimum, cp.Maximum)
	}
}
