package latency

import (
	"sync"
	"testing"
)

func TestRecordBucketsByUpperBound(t *testing.T) {
	r := New()
	r.Record(5)
	r.Record(100)
	r.Record(50000)

	s := r.Snapshot()
	if s.Count != 3 {
		t.Fatalf("expected count 3, got %d", s.Count)
	}
	if s.Buckets[0] != 1 {
		t.Fatalf("expected the 5us sample in the first bucket, got %+v", s.Buckets)
	}
	if s.Buckets[overflowBucket] != 1 {
		t.Fatalf("expected the 50000us sample in the overflow bucket, got %+v", s.Buckets)
	}
}

func TestMaxTracksLargestSample(t *testing.T) {
	r := New()
	r.Record(10)
	r.Record(900)
	r.Record(40)

	if got := r.Snapshot().MaxUs; got != 900 {
		t.Fatalf("expected max 900, got %d", got)
	}
}

func TestMeanAndPercentileOnEmptyRecorderAreZero(t *testing.T) {
	s := New().Snapshot()
	if s.Mean() != 0 {
		t.Fatalf("expected mean 0 on an empty recorder, got %v", s.Mean())
	}
	if s.PercentileUs(95) != 0 {
		t.Fatalf("expected p95 0 on an empty recorder, got %v", s.PercentileUs(95))
	}
}

func TestPercentileTracksDominantBucket(t *testing.T) {
	r := New()
	for i := 0; i < 99; i++ {
		r.Record(10)
	}
	r.Record(5000)

	s := r.Snapshot()
	if p95 := s.PercentileUs(95); p95 != 10 {
		t.Fatalf("expected p95 to land in the dominant 10us bucket, got %d", p95)
	}
	if p100 := s.PercentileUs(100); p100 != 5000 {
		t.Fatalf("expected p100 to reach the outlier's bucket bound, got %d", p100)
	}
}

// TestConcurrentRecordIsRaceFree exercises Record from many goroutines at
// once; run with -race to verify the lock-free claim actually holds.
func TestConcurrentRecordIsRaceFree(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				r.Record(uint64(n*i + 1))
			}
		}(g)
	}
	wg.Wait()

	if got := r.Snapshot().Count; got != 8000 {
		t.Fatalf("expected 8000 recorded samples, got %d", got)
	}
}
