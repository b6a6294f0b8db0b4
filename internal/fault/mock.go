package fault

import (
	"context"
	"sync"
)

// MockRunner implements Runner for tests. It records every call and can
// be scripted to fail specific operations.
type MockRunner struct {
	mu sync.Mutex

	// Errors to return per operation, keyed by "stop", "start",
	// "disconnect", "connect".
	Errs map[string]error

	// Call records, in order.
	Calls []MockCall
}

// MockCall records one Runner invocation.
type MockCall struct {
	Op      string
	Name    string
	Network string
}

// NewMockRunner creates a MockRunner with no scripted failures.
func NewMockRunner() *MockRunner {
	return &MockRunner{Errs: make(map[string]error)}
}

func (m *MockRunner) record(op, name, network string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Op: op, Name: name, Network: network})
	return m.Errs[op]
}

// CallsFor returns the recorded calls for one operation.
func (m *MockRunner) CallsFor(op string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MockCall
	for _, c := range m.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Stop records a stop call.
func (m *MockRunner) Stop(ctx context.Context, name string) (ExecResult, error) {
	return ExecResult{}, m.record("stop", name, "")
}

// Start records a start call.
func (m *MockRunner) Start(ctx context.Context, name string) (ExecResult, error) {
	return ExecResult{}, m.record("start", name, "")
}

// Disconnect records a disconnect call.
func (m *MockRunner) Disconnect(ctx context.Context, name, network string) (ExecResult, error) {
	return ExecResult{}, m.record("disconnect", name, network)
}

// Connect records a connect call.
func (m *MockRunner) Connect(ctx context.Context, name, network string) (ExecResult, error) {
	return ExecResult{}, m.record("connect", name, network)
}
