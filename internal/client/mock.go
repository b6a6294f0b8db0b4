package client

import (
	"context"
	"sync"
)

// MockClient implements Client for harness tests. Responses are
// scripted per method; calls are recorded for assertions.
type MockClient struct {
	mu sync.Mutex

	// CreateCredentialFunc overrides the mint response.
	CreateCredentialFunc func(req CreateCredentialRequest) (*CreateCredentialResponse, error)

	// SearchFunc overrides search responses. Called once per probe
	// attempt, so tests can model eventual consistency by counting.
	SearchFunc func(req SearchRequest) (*SearchResponse, error)

	// GetEntryFunc overrides direct lookups.
	GetEntryFunc func(zoneID, entryID string) (*Entry, error)

	// WhoAmIFunc overrides identity resolution.
	WhoAmIFunc func() (*Identity, error)

	searchCalls []SearchRequest
	getCalls    []string
	mintCalls   []CreateCredentialRequest
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a MockClient whose every method fails with
// not-found until scripted.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// SearchCalls returns the recorded search requests.
func (m *MockClient) SearchCalls() []SearchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SearchRequest(nil), m.searchCalls...)
}

// GetEntryCalls returns the recorded entry IDs fetched directly.
func (m *MockClient) GetEntryCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.getCalls...)
}

// MintCalls returns the recorded admin mint requests.
func (m *MockClient) MintCalls() []CreateCredentialRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreateCredentialRequest(nil), m.mintCalls...)
}

// CreateCredential implements Client.
func (m *MockClient) CreateCredential(ctx context.Context, req CreateCredentialRequest) (*CreateCredentialResponse, error) {
	m.mu.Lock()
	m.mintCalls = append(m.mintCalls, req)
	fn := m.CreateCredentialFunc
	m.mu.Unlock()
	if fn == nil {
		return nil, &RPCError{Code: CodeNotFound, Message: "admin api not available"}
	}
	return fn(req)
}

// SearchEntries implements Client.
func (m *MockClient) SearchEntries(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, req)
	fn := m.SearchFunc
	m.mu.Unlock()
	if fn == nil {
		return &SearchResponse{}, nil
	}
	return fn(req)
}

// GetEntry implements Client.
func (m *MockClient) GetEntry(ctx context.Context, zoneID, entryID string) (*Entry, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, entryID)
	fn := m.GetEntryFunc
	m.mu.Unlock()
	if fn == nil {
		return nil, &RPCError{Code: CodeNotFound, Message: "no such entry"}
	}
	return fn(zoneID, entryID)
}

// WhoAmI implements Client.
func (m *MockClient) WhoAmI(ctx context.Context) (*Identity, error) {
	m.mu.Lock()
	fn := m.WhoAmIFunc
	m.mu.Unlock()
	if fn == nil {
		return nil, &RPCError{Code: CodeUnauthorized, Message: "credential revoked"}
	}
	return fn()
}
