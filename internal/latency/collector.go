// Package latency records per-operation duration samples and computes
// percentile statistics for SLO assertions. A Collector is owned by a
// single worker and holds no internal locking; tests that stress the
// remote system from N goroutines give each goroutine its own Collector.
package latency

import (
	"errors"
	"sort"
	"time"
)

// ErrNoSamples is returned by Stats when nothing has been recorded yet.
var ErrNoSamples = errors.New("no samples collected")

// Sample is a single elapsed-duration measurement tagged with the name of
// the operation that produced it. The authoritative value is the integer
// nanosecond count; millisecond floats are derived only for reporting.
type Sample struct {
	Op      string
	Elapsed time.Duration
}

// Stats is an immutable snapshot derived from the recorded samples.
// Percentiles use nearest-rank selection on the sorted sample list.
// All values are reported as milliseconds.
type Stats struct {
	Count  int
	MinMS  float64
	MaxMS  float64
	P50MS  float64
	P95MS  float64
	P99MS  float64
	MeanMS float64
}

// Collector accumulates latency samples. Not safe for concurrent use.
type Collector struct {
	samples []Sample
}

// New creates an empty Collector.
func New() *Collector {
	return &Collector{}
}

// Measure times fn and records exactly one sample, whether fn succeeds
// or fails. fn's error is returned unchanged so callers can assert on it;
// timing is never skipped on error.
func (c *Collector) Measure(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.samples = append(c.samples, Sample{Op: op, Elapsed: time.Since(start)})
	return err
}

// Record appends a sample that was measured externally, e.g. the latency
// of a successful poll attempt reported by the consistency poller.
func (c *Collector) Record(op string, elapsed time.Duration) {
	c.samples = append(c.samples, Sample{Op: op, Elapsed: elapsed})
}

// Count returns the number of recorded samples.
func (c *Collector) Count() int {
	return len(c.samples)
}

// Operations returns the distinct operation names seen so far, sorted.
func (c *Collector) Operations() []string {
	seen := make(map[string]bool, len(c.samples))
	var ops []string
	for _, s := range c.samples {
		if !seen[s.Op] {
			seen[s.Op] = true
			ops = append(ops, s.Op)
		}
	}
	sort.Strings(ops)
	return ops
}

// Stats computes statistics over all recorded samples. It is
// side-effect-free and may be called repeatedly as samples accrue.
// Returns ErrNoSamples if nothing has been recorded.
func (c *Collector) Stats() (Stats, error) {
	durs := make([]time.Duration, len(c.samples))
	for i, s := range c.samples {
		durs[i] = s.Elapsed
	}
	return compute(durs)
}

// StatsFor computes statistics over the samples recorded for a single
// operation. Returns ErrNoSamples if that operation has no samples.
func (c *Collector) StatsFor(op string) (Stats, error) {
	var durs []time.Duration
	for _, s := range c.samples {
		if s.Op == op {
			durs = append(durs, s.Elapsed)
		}
	}
	return compute(durs)
}

func compute(durs []time.Duration) (Stats, error) {
	n := len(durs)
	if n == 0 {
		return Stats{}, ErrNoSamples
	}

	sorted := make([]time.Duration, n)
	copy(sorted, durs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, d := range sorted {
		sum += d.Nanoseconds()
	}

	return Stats{
		Count:  n,
		MinMS:  toMS(sorted[0]),
		MaxMS:  toMS(sorted[n-1]),
		P50MS:  toMS(sorted[rank(50, n)]),
		P95MS:  toMS(sorted[rank(95, n)]),
		P99MS:  toMS(sorted[rank(99, n)]),
		MeanMS: float64(sum) / float64(n) / 1e6,
	}, nil
}

// rank returns the nearest-rank index for percentile p over n sorted
// samples: ceil(p/100*n)-1, clamped to [0, n-1]. For five samples this
// puts p50 at index 2 and p95/p99 at index 4.
func rank(p, n int) int {
	idx := (p*n + 99) / 100 // integer ceil(p*n/100)
	idx--
	if idx < 0 {
		return 0
	}
	if idx > n-1 {
		return n - 1
	}
	return idx
}

func toMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
