// Package poll observes an eventually-consistent remote system until a
// caller-defined condition holds or a deadline expires.
//
// The remote indexing pipeline is asynchronous and offers no push
// notification, so the only way to assert on a write becoming visible is
// to re-query on an interval. A pure fixed-interval poll hides nothing
// but wastes time; a pure direct-lookup strategy hides real indexing
// latency. Poll combines both and reports which path produced the
// result, so a test can distinguish "search is eventually consistent
// and slow" from "search is broken but direct reads still work".
package poll

import (
	"context"
	"fmt"
	"time"
)

// Probe performs one query attempt against the remote system, returning
// a candidate set of records. A transport or decode error is treated by
// Poll as "no match this iteration", never as fatal.
type Probe[T any] func(ctx context.Context) ([]T, error)

// Options configures a single Poll run.
type Options[T any] struct {
	// Probe is the primary query path, typically a search. Required.
	Probe Probe[T]

	// Match decides whether a candidate set satisfies the expectation.
	// Required. It is applied to both primary and fallback results.
	Match func([]T) bool

	// Fallback is an optional direct lookup (e.g. fetch by identifier)
	// attempted at most once after FallbackAfter has elapsed without a
	// primary match, and once more on deadline expiry if still untried.
	Fallback Probe[T]

	// Interval is the sleep between probe attempts. Must be positive.
	Interval time.Duration

	// Deadline bounds the total wall-clock time of the run. A deadline
	// that has already passed still permits exactly one probe attempt.
	Deadline time.Duration

	// FallbackAfter is the grace period before the fallback is tried.
	FallbackAfter time.Duration

	// Target names what is being polled for, used in error context.
	Target string
}

// Outcome is the result of one Poll run. Absence of a match is a valid
// outcome, not an error: Records is empty and Found reports false.
type Outcome[T any] struct {
	// Records is the accepted candidate set, empty on timeout.
	Records []T

	// Latency is the duration of the probe attempt that succeeded.
	Latency time.Duration

	// ViaFallback reports whether Records came from the fallback lookup
	// rather than the primary query path.
	ViaFallback bool

	// Attempts counts primary probe attempts made.
	Attempts int

	// Elapsed is the total wall-clock time of the run.
	Elapsed time.Duration
}

// Found reports whether the poll produced any accepted records.
func (o Outcome[T]) Found() bool {
	return len(o.Records) > 0
}

// NonEmpty is a Match function accepting any non-empty candidate set.
func NonEmpty[T any](records []T) bool {
	return len(records) > 0
}

// Poll runs the probe loop. It blocks the calling goroutine, sleeping
// Interval between attempts, and returns no later than roughly
// Deadline plus one Interval. The only errors returned are invalid
// arguments and context cancellation; deadline exhaustion yields an
// empty Outcome with a nil error.
func Poll[T any](ctx context.Context, opts Options[T]) (Outcome[T], error) {
	if opts.Probe == nil {
		return Outcome[T]{}, fmt.Errorf("poll %s: probe is required", opts.Target)
	}
	if opts.Match == nil {
		return Outcome[T]{}, fmt.Errorf("poll %s: match is required", opts.Target)
	}
	if opts.Interval <= 0 {
		return Outcome[T]{}, fmt.Errorf("poll %s: interval must be positive, got %s", opts.Target, opts.Interval)
	}

	start := time.Now()
	var out Outcome[T]
	fallbackTried := false

	tryFallback := func() bool {
		fallbackTried = true
		t0 := time.Now()
		records, err := opts.Fallback(ctx)
		// A fallback that errors or returns an unaccepted set is
		// inconclusive and indistinguishable here from "still polling".
		if err != nil || !opts.Match(records) || len(records) == 0 {
			return false
		}
		out.Records = records
		out.Latency = time.Since(t0)
		out.ViaFallback = true
		return true
	}

	for {
		out.Attempts++
		t0 := time.Now()
		records, err := opts.Probe(ctx)
		if err == nil && opts.Match(records) {
			out.Records = records
			out.Latency = time.Since(t0)
			out.Elapsed = time.Since(start)
			return out, nil
		}

		if opts.Fallback != nil && !fallbackTried && time.Since(start) >= opts.FallbackAfter {
			if tryFallback() {
				out.Elapsed = time.Since(start)
				return out, nil
			}
		}

		if time.Since(start) >= opts.Deadline {
			// One last chance on the direct path before reporting absence.
			if opts.Fallback != nil && !fallbackTried && tryFallback() {
				out.Elapsed = time.Since(start)
				return out, nil
			}
			out.Elapsed = time.Since(start)
			return out, nil
		}

		select {
		case <-ctx.Done():
			out.Elapsed = time.Since(start)
			return out, fmt.Errorf("poll %s: %w", opts.Target, ctx.Err())
		case <-time.After(opts.Interval):
		}
	}
}
