package statering

import (
	"os"
	"strconv"
	"sync"

	"github.com/e9kdbg/e9kdbg/curated"
)

// DefaultCapacityBytes is the arena size used when no override is given.
const DefaultCapacityBytes = 512 * 1024 * 1024

// CapacityEnvVar overrides DefaultCapacityBytes when set to a positive
// integer byte count.
const CapacityEnvVar = "E9KDBG_STATE_RING_BYTES"

// CapacityFromEnv returns the configured capacity, reading CapacityEnvVar
// and falling back to DefaultCapacityBytes if it is unset or invalid.
func CapacityFromEnv() int {
	if v := os.Getenv(CapacityEnvVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultCapacityBytes
}

// record indexes one snapshot's position in the arena.
type record struct {
	frame  uint64
	offset int
	length int
}

// Record is a read-only view of one stored snapshot.
type Record struct {
	Frame uint64
	Bytes []byte
}

// Ring is the bounded-memory snapshot buffer. The zero value is not usable;
// construct with NewRing.
type Ring struct {
	mu sync.Mutex

	capacity int
	arena    []byte
	records  []record

	hasLast   bool
	lastFrame uint64

	paused        bool
	rollingPaused bool
}

// NewRing creates an empty Ring with the given byte capacity.
func NewRing(capacityBytes int) *Ring {
	if capacityBytes < 1 {
		capacityBytes = 1
	}
	return &Ring{capacity: capacityBytes}
}

// Push appends a snapshot for frame, evicting the oldest records as needed
// to keep total stored bytes within capacity; the newest record is never
// evicted, so a single snapshot larger than capacity is kept on its own
// and the total then exceeds capacity. It is silently dropped while
// paused or rolling-paused, and returns an error if frame does not strictly
// follow the last pushed frame (the caller is expected to continue running
// without recording that frame, not treat this as fatal).
func (r *Ring) Push(frame uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused || r.rollingPaused {
		return nil
	}
	if r.hasLast && frame <= r.lastFrame {
		return curated.Errorf("statering: push frame %d does not follow last frame %d", frame, r.lastFrame)
	}

	offset := len(r.arena)
	r.arena = append(r.arena, data...)
	r.records = append(r.records, record{frame: frame, offset: offset, length: len(data)})
	r.lastFrame = frame
	r.hasLast = true

	r.evict()
	return nil
}

func (r *Ring) totalBytes() int {
	total := 0
	for _, rec := range r.records {
		total += rec.length
	}
	return total
}

// evict drops the oldest records (but always keeps the most recent one)
// until the live total fits within capacity, then compacts the arena.
func (r *Ring) evict() {
	evicted := false
	for r.totalBytes() > r.capacity && len(r.records) > 1 {
		r.records = r.records[1:]
		evicted = true
	}
	if evicted {
		r.compact()
	}
}

// compact rewrites the arena to hold only the bytes of the live records,
// contiguously, reassigning their offsets.
func (r *Ring) compact() {
	newArena := make([]byte, 0, r.totalBytes())
	for i := range r.records {
		old := r.records[i]
		data := r.arena[old.offset : old.offset+old.length]
		r.records[i].offset = len(newArena)
		newArena = append(newArena, data...)
	}
	r.arena = newArena
}

// FrameAtPercent returns the record at index floor(p*(N-1)) where N is the
// current record count, clamping p to [0,1]. ok is false if the ring is
// empty.
func (r *Ring) FrameAtPercent(p float64) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.records)
	if n == 0 {
		return Record{}, false
	}
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}

	idx := int(p * float64(n-1))
	return r.recordAtLocked(idx), true
}

func (r *Ring) recordAtLocked(idx int) Record {
	rec := r.records[idx]
	bytes := make([]byte, rec.length)
	copy(bytes, r.arena[rec.offset:rec.offset+rec.length])
	return Record{Frame: rec.frame, Bytes: bytes}
}

// CurrentFrame returns the frame number of the newest record, and false if
// the ring is empty.
func (r *Ring) CurrentFrame() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasLast {
		return 0, false
	}
	return r.lastFrame, true
}

// Len reports how many records are currently live.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// TrimAfter discards every record with frame > k, freeing their arena
// bytes. A subsequent Push must use a frame >= k+1.
func (r *Ring) TrimAfter(k uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cut := len(r.records)
	for i, rec := range r.records {
		if rec.frame > k {
			cut = i
			break
		}
	}
	if cut == len(r.records) {
		return
	}

	r.records = r.records[:cut]
	r.compact()

	if len(r.records) == 0 {
		r.hasLast = false
		r.lastFrame = 0
	} else {
		r.lastFrame = r.records[len(r.records)-1].frame
	}
}

// SetPaused controls whether Push is silently dropped, used while the user
// is scrubbing the seek bar so the buffer doesn't grow during the drag.
func (r *Ring) SetPaused(paused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = paused
}

// SetRollingPaused is a hard off switch for non-interactive modes
// (smoke-test / headless / --no-rolling), independent of SetPaused.
func (r *Ring) SetRollingPaused(paused bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollingPaused = paused
}
