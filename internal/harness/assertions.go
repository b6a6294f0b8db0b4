package harness

import (
	"github.com/latticefs/lattice-e2e/internal/client"
	"github.com/latticefs/lattice-e2e/internal/latency"
	"github.com/latticefs/lattice-e2e/internal/poll"
)

// AssertFound fails the test if the poll produced no accepted records.
func (e *Environment) AssertFound(out poll.Outcome[client.Entry]) {
	e.T.Helper()
	if !out.Found() {
		e.T.Errorf("expected records, got none after %d attempts in %s", out.Attempts, out.Elapsed)
	}
}

// AssertNotFound fails the test if the poll found anything. Absence is
// a first-class outcome: the poller reports it without error.
func (e *Environment) AssertNotFound(out poll.Outcome[client.Entry]) {
	e.T.Helper()
	if out.Found() {
		e.T.Errorf("expected no records, got %d (via_fallback=%v)", len(out.Records), out.ViaFallback)
	}
}

// AssertPrimaryPath fails the test unless the result came from the
// search path, i.e. the index caught up within the grace period.
func (e *Environment) AssertPrimaryPath(out poll.Outcome[client.Entry]) {
	e.T.Helper()
	e.AssertFound(out)
	if out.ViaFallback {
		e.T.Errorf("expected result via primary search path, got fallback after %s", out.Elapsed)
	}
}

// AssertFallbackPath fails the test unless the result came from the
// direct-fetch fallback, i.e. search lagged but reads worked.
func (e *Environment) AssertFallbackPath(out poll.Outcome[client.Entry]) {
	e.T.Helper()
	e.AssertFound(out)
	if !out.ViaFallback {
		e.T.Errorf("expected result via fallback path, got primary on attempt %d", out.Attempts)
	}
}

// AssertP95Below fails the test if the collector's p95 exceeds the
// given bound in milliseconds.
func (e *Environment) AssertP95Below(c *latency.Collector, maxMS float64) {
	e.T.Helper()
	stats, err := c.Stats()
	if err != nil {
		e.T.Fatalf("latency stats: %v", err)
	}
	if stats.P95MS > maxMS {
		e.T.Errorf("p95 %.2fms exceeds budget %.2fms (n=%d, max=%.2fms)",
			stats.P95MS, maxMS, stats.Count, stats.MaxMS)
	}
}
