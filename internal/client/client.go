// Package client is a thin typed client for the Lattice server's
// HTTP/JSON-RPC API. It maps requests to responses and nothing more:
// retry, polling and latency accounting live in the harness packages
// that call it. Every RPC method has explicit tagged request/response
// structs rather than dynamic dict-shaped payloads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Client is the subset of the server API the harness consumes.
type Client interface {
	// CreateCredential mints a credential through the administrative
	// API. This is the preferred mint path.
	CreateCredential(ctx context.Context, req CreateCredentialRequest) (*CreateCredentialResponse, error)

	// SearchEntries queries the search index. This is the primary,
	// eventually-consistent read path.
	SearchEntries(ctx context.Context, req SearchRequest) (*SearchResponse, error)

	// GetEntry fetches a single entry by identifier. This is the
	// direct read path used as a polling fallback.
	GetEntry(ctx context.Context, zoneID, entryID string) (*Entry, error)

	// WhoAmI resolves the identity behind the client's token. Used to
	// check credential validity; a revoked credential fails with an
	// unauthorized error, a malformed one with a malformed-credential
	// error.
	WhoAmI(ctx context.Context) (*Identity, error)
}

// Entry is a filesystem entry as returned by the query APIs.
type Entry struct {
	ID        string    `json:"id"`
	ZoneID    string    `json:"zone_id"`
	Path      string    `json:"path"`
	Content   string    `json:"content,omitempty"`
	Score     float64   `json:"score,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCredentialRequest is the admin mint request.
type CreateCredentialRequest struct {
	Label     string `json:"label"`
	ZoneID    string `json:"zoneId"`
	SubjectID string `json:"subjectId"`
	IsAdmin   bool   `json:"isAdmin"`
}

// CreateCredentialResponse carries the raw token, returned exactly once.
type CreateCredentialResponse struct {
	RawToken string `json:"rawToken"`
	KeyID    string `json:"key"`
}

// SearchRequest queries the search index within a zone.
type SearchRequest struct {
	ZoneID string `json:"zoneId"`
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
}

// SearchResponse is the candidate set for one search.
type SearchResponse struct {
	Entries []Entry `json:"entries"`
}

// Identity describes the authenticated caller.
type Identity struct {
	SubjectID string `json:"subjectId"`
	ZoneID    string `json:"zoneId"`
	Admin     bool   `json:"admin"`
}

type getEntryRequest struct {
	ZoneID  string `json:"zoneId"`
	EntryID string `json:"entryId"`
}

// HTTPClient talks JSON-RPC 2.0 over a single POST endpoint. The
// request-ID counter is owned by the instance, not the process: two
// clients never share numbering.
type HTTPClient struct {
	baseURL string
	token   string
	httpc   *http.Client
	nextID  atomic.Uint64
}

var _ Client = (*HTTPClient)(nil)

// NewHTTP creates a client for the given base URL, authenticating with
// the given bearer token.
func NewHTTP(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateCredential mints a credential through the administrative API.
func (c *HTTPClient) CreateCredential(ctx context.Context, req CreateCredentialRequest) (*CreateCredentialResponse, error) {
	var resp CreateCredentialResponse
	if err := c.call(ctx, "admin.createCredential", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchEntries queries the search index.
func (c *HTTPClient) SearchEntries(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.call(ctx, "search.entries", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetEntry fetches a single entry by identifier.
func (c *HTTPClient) GetEntry(ctx context.Context, zoneID, entryID string) (*Entry, error) {
	var resp Entry
	if err := c.call(ctx, "fs.getEntry", getEntryRequest{ZoneID: zoneID, EntryID: entryID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WhoAmI resolves the identity behind the client's token.
func (c *HTTPClient) WhoAmI(ctx context.Context) (*Identity, error) {
	var resp Identity
	if err := c.call(ctx, "auth.whoami", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *HTTPClient) call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%s: failed to encode request: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", method, err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%s: failed to decode response (status %d): %w", method, httpResp.StatusCode, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: failed to decode result: %w", method, err)
		}
	}
	return nil
}
