// Package harness composes the verification primitives per test: it
// binds probes to a concrete client and target, picks retry budgets
// from configuration, and aggregates results into pass/fail. The
// algorithmic work lives in poll, latency, forge and fault; this layer
// is deliberately thin glue.
package harness

import (
	"context"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/latticefs/lattice-e2e/internal/client"
	"github.com/latticefs/lattice-e2e/internal/config"
	"github.com/latticefs/lattice-e2e/internal/credstore"
	"github.com/latticefs/lattice-e2e/internal/fault"
	"github.com/latticefs/lattice-e2e/internal/forge"
	"github.com/latticefs/lattice-e2e/internal/logging"
	"github.com/latticefs/lattice-e2e/internal/poll"
)

// Environment wires a test to one Lattice deployment. Create one per
// test (or per worker goroutine); environments share no mutable state.
type Environment struct {
	T        *testing.T
	Cfg      *config.Config
	Client   client.Client
	Forge    *forge.Forge
	Injector *fault.Injector
	Logger   *log.Logger
}

// adminMinter adapts the client's typed mint RPC to the forge's
// AdminMinter contract.
type adminMinter struct {
	c client.Client
}

func (m adminMinter) CreateCredential(ctx context.Context, zoneID, subjectID, label string, admin bool) (string, error) {
	resp, err := m.c.CreateCredential(ctx, client.CreateCredentialRequest{
		Label:     label,
		ZoneID:    zoneID,
		SubjectID: subjectID,
		IsAdmin:   admin,
	})
	if err != nil {
		return "", err
	}
	return resp.RawToken, nil
}

// New builds an Environment from a config, a client and an optional
// credential store. The store may be nil when a deployment exposes a
// working admin API; minting then has no direct-persistence fallback.
func New(t *testing.T, cfg *config.Config, c client.Client, store credstore.Store) *Environment {
	t.Helper()

	logger := logging.Discard()
	if testing.Verbose() {
		logger = logging.New("harness")
	}

	return &Environment{
		T:      t,
		Cfg:    cfg,
		Client: c,
		Forge: forge.New(forge.Options{
			Admin:  adminMinter{c: c},
			Store:  store,
			Salt:   cfg.Credentials.TokenSalt,
			Logger: logger,
		}),
		Injector: fault.NewInjector(logger),
		Logger:   logger,
	}
}

// SearchProbe builds a primary probe querying the search index for a
// zone-scoped query string.
func (e *Environment) SearchProbe(zoneID, query string) poll.Probe[client.Entry] {
	return func(ctx context.Context) ([]client.Entry, error) {
		resp, err := e.Client.SearchEntries(ctx, client.SearchRequest{ZoneID: zoneID, Query: query})
		if err != nil {
			return nil, err
		}
		return resp.Entries, nil
	}
}

// EntryProbe builds a fallback probe fetching one entry directly by ID.
func (e *Environment) EntryProbe(zoneID, entryID string) poll.Probe[client.Entry] {
	return func(ctx context.Context) ([]client.Entry, error) {
		entry, err := e.Client.GetEntry(ctx, zoneID, entryID)
		if err != nil {
			return nil, err
		}
		return []client.Entry{*entry}, nil
	}
}

// AwaitEntry polls until the search index returns an accepted result
// for the query, falling back to a direct fetch of entryID after the
// configured grace period. Budgets come from the environment's config.
func (e *Environment) AwaitEntry(ctx context.Context, zoneID, query, entryID string, match func([]client.Entry) bool) (poll.Outcome[client.Entry], error) {
	if match == nil {
		match = poll.NonEmpty[client.Entry]
	}
	return poll.Poll(ctx, poll.Options[client.Entry]{
		Probe:         e.SearchProbe(zoneID, query),
		Match:         match,
		Fallback:      e.EntryProbe(zoneID, entryID),
		Interval:      e.Cfg.Poll.Interval(),
		Deadline:      e.Cfg.Poll.Deadline(),
		FallbackAfter: e.Cfg.Poll.FallbackAfter(),
		Target:        zoneID + "/" + entryID,
	})
}
