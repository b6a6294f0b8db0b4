// Package report persists per-run harness results as YAML artifacts so
// a CI job can archive what each poll observed, the latency envelope of
// every operation, and which faults were injected, without re-running
// with verbose logging.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/latticefs/lattice-e2e/internal/latency"
	"github.com/latticefs/lattice-e2e/internal/poll"
)

// PollRecord captures one consistency-poll outcome.
type PollRecord struct {
	Target      string  `yaml:"target"`
	Found       bool    `yaml:"found"`
	ViaFallback bool    `yaml:"via_fallback"`
	Attempts    int     `yaml:"attempts"`
	LatencyMS   float64 `yaml:"latency_ms"`
	ElapsedMS   float64 `yaml:"elapsed_ms"`
}

// LatencyRecord is the persisted form of latency.Stats.
type LatencyRecord struct {
	Count  int     `yaml:"count"`
	MinMS  float64 `yaml:"min_ms"`
	MaxMS  float64 `yaml:"max_ms"`
	P50MS  float64 `yaml:"p50_ms"`
	P95MS  float64 `yaml:"p95_ms"`
	P99MS  float64 `yaml:"p99_ms"`
	MeanMS float64 `yaml:"mean_ms"`
}

// FaultRecord captures one injected fault.
type FaultRecord struct {
	Name     string    `yaml:"name"`
	Applied  time.Time `yaml:"applied"`
	Restored time.Time `yaml:"restored"`
}

// Report is one harness run.
type Report struct {
	RunID      string                   `yaml:"run_id"`
	Target     string                   `yaml:"target"`
	StartedAt  time.Time                `yaml:"started_at"`
	FinishedAt time.Time                `yaml:"finished_at,omitempty"`
	Polls      []PollRecord             `yaml:"polls,omitempty"`
	Latencies  map[string]LatencyRecord `yaml:"latencies,omitempty"`
	Faults     []FaultRecord            `yaml:"faults,omitempty"`
}

// NewReport starts a report for a fresh run against the given target.
func NewReport(target string) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Target:    target,
		StartedAt: time.Now().UTC(),
		Latencies: make(map[string]LatencyRecord),
	}
}

// AddPoll appends a poll outcome.
func AddPoll[T any](r *Report, target string, out poll.Outcome[T]) {
	r.Polls = append(r.Polls, PollRecord{
		Target:      target,
		Found:       out.Found(),
		ViaFallback: out.ViaFallback,
		Attempts:    out.Attempts,
		LatencyMS:   float64(out.Latency.Nanoseconds()) / 1e6,
		ElapsedMS:   float64(out.Elapsed.Nanoseconds()) / 1e6,
	})
}

// AddLatency records the stats snapshot of a collector under a name.
func (r *Report) AddLatency(name string, stats latency.Stats) {
	r.Latencies[name] = LatencyRecord{
		Count:  stats.Count,
		MinMS:  stats.MinMS,
		MaxMS:  stats.MaxMS,
		P50MS:  stats.P50MS,
		P95MS:  stats.P95MS,
		P99MS:  stats.P99MS,
		MeanMS: stats.MeanMS,
	}
}

// AddFault appends an injected-fault record.
func (r *Report) AddFault(name string, applied, restored time.Time) {
	r.Faults = append(r.Faults, FaultRecord{Name: name, Applied: applied, Restored: restored})
}

// Store reads and writes reports under <base>/.lattice-e2e/runs/<run-id>/.
type Store struct {
	basePath string
}

// NewStore creates a report store rooted at the given base path.
func NewStore(basePath string) *Store {
	return &Store{basePath: basePath}
}

func (s *Store) runDir(runID string) string {
	return filepath.Join(s.basePath, ".lattice-e2e", "runs", runID)
}

// Write finalizes and persists the report as report.yaml in its run
// directory.
func (s *Store) Write(r *Report) error {
	r.FinishedAt = time.Now().UTC()

	dir := s.runDir(r.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Read loads a previously written report by run ID.
func (s *Store) Read(runID string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(s.runDir(runID), "report.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// List returns the run IDs with a persisted report, newest directory
// entries last.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, ".lattice-e2e", "runs"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []string
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	return runs, nil
}
