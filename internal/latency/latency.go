// Package latency implements the lock-free latency histogram spec.md §5
// requires: any goroutine may record a capture-to-injection duration
// without blocking another recorder or a concurrent reader (the optional
// TUI, spec.md §2.4).
package latency

import "sync/atomic"

// bucketBoundsUs are the upper bound (inclusive) of each histogram
// bucket in microseconds. The daemon's own target is "<100us for the
// 95th percentile" (original_source's event_loop.rs doc comment), so the
// buckets are dense below 100us and coarse above it.
var bucketBoundsUs = [...]uint64{10, 25, 50, 75, 100, 250, 500, 1000, 5000, 10000}

const overflowBucket = len(bucketBoundsUs)
const bucketCount = len(bucketBoundsUs) + 1 // + overflow, for anything past the last bound

// Recorder is a fixed-bucket atomic histogram: Record takes no lock (a
// few atomic adds, plus a CAS loop only for the running max), matching
// spec.md §5's "any thread may record" requirement on the daemon's hot path.
type Recorder struct {
	buckets [bucketCount]atomic.Uint64
	count   atomic.Uint64
	sum     atomic.Uint64
	max     atomic.Uint64
}

// New returns an empty Recorder.
func New() *Recorder { return &Recorder{} }

// Record adds one observed latency in microseconds.
func (r *Recorder) Record(us uint64) {
	idx := overflowBucket
	for i, bound := range bucketBoundsUs {
		if us <= bound {
			idx = i
			break
		}
	}
	r.buckets[idx].Add(1)
	r.count.Add(1)
	r.sum.Add(us)
	casMax(&r.max, us)
}

func casMax(slot *atomic.Uint64, v uint64) {
	for {
		cur := slot.Load()
		if v <= cur {
			return
		}
		if slot.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Snapshot is a point-in-time copy of the histogram's state, safe to read
// without racing concurrent Record calls (each field is loaded
// independently; a Snapshot may observe a count slightly ahead of sum
// under concurrent writes, which is acceptable for a diagnostics display).
type Snapshot struct {
	Count   uint64
	SumUs   uint64
	MaxUs   uint64
	Buckets [bucketCount]uint64
}

// Mean returns the arithmetic mean latency in microseconds, or 0 if
// nothing has been recorded yet.
func (s Snapshot) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.SumUs) / float64(s.Count)
}

// PercentileUs estimates the given percentile (0-100) in microseconds by
// walking the cumulative bucket counts and reporting the bound of the
// first bucket that reaches it. This is a coarse estimate bounded by
// bucket granularity, not an exact order statistic — acceptable for a
// live diagnostics display, not for alerting thresholds.
func (s Snapshot) PercentileUs(p float64) uint64 {
	if s.Count == 0 {
		return 0
	}
	target := uint64(p / 100 * float64(s.Count))
	if target == 0 {
		target = 1
	}
	var cumulative uint64
	for i, c := range s.Buckets {
		cumulative += c
		if cumulative >= target {
			if i < len(bucketBoundsUs) {
				return bucketBoundsUs[i]
			}
			return s.MaxUs
		}
	}
	return s.MaxUs
}

// Snapshot takes a consistent-enough read of the histogram for display.
func (r *Recorder) Snapshot() Snapshot {
	var s Snapshot
	s.Count = r.count.Load()
	s.SumUs = r.sum.Load()
	s.MaxUs = r.max.Load()
	for i := range r.buckets {
		s.Buckets[i] = r.buckets[i].Load()
	}
	return s
}
