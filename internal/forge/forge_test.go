package forge

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticefs/lattice-e2e/internal/credstore"
)

// stubMinter scripts the administrative RPC.
type stubMinter struct {
	token string
	err   error
	calls int
}

func (m *stubMinter) CreateCredential(ctx context.Context, zoneID, subjectID, label string, admin bool) (string, error) {
	m.calls++
	return m.token, m.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func openTestStore(t *testing.T) *credstore.SQLite {
	t.Helper()
	s, err := credstore.OpenSQLite(filepath.Join(t.TempDir(), "lattice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDigest_Deterministic(t *testing.T) {
	t.Parallel()

	d1 := Digest(DefaultSalt, "lat-token")
	d2 := Digest(DefaultSalt, "lat-token")
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64) // hex-encoded SHA-256
	assert.NotEqual(t, d1, Digest("other-salt", "lat-token"))
	assert.NotEqual(t, d1, Digest(DefaultSalt, "lat-other"))
}

func TestMint_AdminPathPreferred(t *testing.T) {
	t.Parallel()

	minter := &stubMinter{token: "srv-issued-token"}
	f := New(Options{Admin: minter, Logger: quietLogger()})

	cred, err := f.Mint(context.Background(), "z1", "u1", "test", false)
	require.NoError(t, err)

	assert.Equal(t, "srv-issued-token", cred.Token)
	assert.Equal(t, 1, minter.calls)
	assert.Empty(t, cred.KeyID) // server kept the key ID
}

func TestMint_FallbackPersistsDigestOnly(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	minter := &stubMinter{err: errors.New("admin api disabled")}
	f := New(Options{Admin: minter, Store: store, Logger: quietLogger()})
	ctx := context.Background()

	cred, err := f.Mint(ctx, "zone-alpha", "user-omega", "boundary", true)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(cred.Token, "lat-zone-alp_user-ome_"), "token %q", cred.Token)
	require.NotEmpty(t, cred.KeyID)

	row, err := store.GetCredential(ctx, cred.KeyID)
	require.NoError(t, err)

	// The stored digest must be exactly the keyed hash of the raw token,
	// and the raw token itself must not appear anywhere in the row.
	assert.Equal(t, Digest(DefaultSalt, cred.Token), row.KeyHash)
	assert.NotContains(t, row.KeyHash, cred.Token)
	assert.Equal(t, "user-omega", row.UserID)
	assert.Equal(t, "zone-alpha", row.ZoneID)
	assert.True(t, row.IsAdmin)
	assert.Equal(t, "boundary", row.Name)
	assert.False(t, row.Revoked)
}

func TestMint_TokenFormat(t *testing.T) {
	t.Parallel()

	f := New(Options{Store: openTestStore(t), Logger: quietLogger()})

	cred, err := f.Mint(context.Background(), "z1", "u1", "fmt", false)
	require.NoError(t, err)

	// lat-{zone8}_{subject8}_{keyid8}_{random32}: short identifiers are
	// kept whole rather than padded.
	parts := strings.Split(strings.TrimPrefix(cred.Token, "lat-"), "_")
	require.Len(t, parts, 4)
	assert.Equal(t, "z1", parts[0])
	assert.Equal(t, "u1", parts[1])
	assert.Len(t, parts[2], 8)
	assert.Len(t, parts[3], 32)
}

func TestMint_TokensAreUnique(t *testing.T) {
	t.Parallel()

	f := New(Options{Store: openTestStore(t), Logger: quietLogger()})
	ctx := context.Background()

	a, err := f.Mint(ctx, "z1", "u1", "a", false)
	require.NoError(t, err)
	b, err := f.Mint(ctx, "z1", "u1", "b", false)
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, a.KeyID, b.KeyID)
}

func TestMint_NoBackend(t *testing.T) {
	t.Parallel()

	f := New(Options{Logger: quietLogger()})
	_, err := f.Mint(context.Background(), "z1", "u1", "x", false)
	require.ErrorIs(t, err, ErrNoBackend)

	// A failing admin API with no store behind it is the same outcome.
	f = New(Options{Admin: &stubMinter{err: errors.New("404")}, Logger: quietLogger()})
	_, err = f.Mint(context.Background(), "z1", "u1", "x", false)
	require.ErrorIs(t, err, ErrNoBackend)
}

func TestGrantRelation(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	f := New(Options{Store: store, Logger: quietLogger()})
	ctx := context.Background()

	require.NoError(t, f.GrantRelation(ctx, "z1", "u1", "/docs/report.md", "reader"))
	require.NoError(t, f.GrantRelation(ctx, "z1", "u2", "/docs/report.md", "writer"))

	n, err := store.CountTuples(ctx, "z1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = New(Options{Logger: quietLogger()}).GrantRelation(ctx, "z1", "u1", "/x", "reader")
	require.ErrorIs(t, err, ErrNoBackend)
}

func TestRevokeZone_Cascade(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	f := New(Options{Store: store, Logger: quietLogger()})
	ctx := context.Background()

	cred, err := f.Mint(ctx, "z1", "u1", "doomed", false)
	require.NoError(t, err)
	require.NoError(t, f.GrantRelation(ctx, "z1", "u1", "/docs/a", "reader"))

	require.NoError(t, f.RevokeZone(ctx, "z1"))

	row, err := store.GetCredential(ctx, cred.KeyID)
	require.NoError(t, err)
	assert.True(t, row.Revoked)

	n, err := store.CountTuples(ctx, "z1")
	require.NoError(t, err)
	assert.Zero(t, n)

	// Revoking twice is a no-op, not an error.
	require.NoError(t, f.RevokeZone(ctx, "z1"))
}
