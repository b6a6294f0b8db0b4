// Package forge mints synthetic Lattice access credentials for
// permission-boundary tests. Minting prefers the administrative RPC so
// the suite stays decoupled from the server's token format; when that
// path is unavailable it forges a token locally and persists its digest
// straight into the server's relational backend, using the exact
// keyed-hash construction the server verifies against.
package forge

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/latticefs/lattice-e2e/internal/credstore"
)

// DefaultSalt is the server's fixed application-level salt. It is not a
// secret; the security of a credential rests entirely on the token's
// random suffix. Changing this breaks verification of forged tokens.
const DefaultSalt = "lattice-credential-v1"

// tokenPrefix marks forged tokens; the server accepts any token whose
// digest matches a stored key_hash, so the prefix is purely diagnostic.
const tokenPrefix = "lat"

// ErrNoBackend is returned when neither the administrative API nor a
// relational backend is configured. Callers are expected to skip the
// dependent test rather than proceed with a broken credential.
var ErrNoBackend = errors.New("no credential backend available")

// AdminMinter is the administrative "create credential" RPC contract.
// An empty raw token with a nil error means the endpoint exists but the
// feature is disabled; the forge then falls back to direct persistence.
type AdminMinter interface {
	CreateCredential(ctx context.Context, zoneID, subjectID, label string, admin bool) (rawToken string, err error)
}

// Credential is a freshly minted credential. Token is returned exactly
// once and is never persisted in cleartext.
type Credential struct {
	Token     string
	KeyID     string
	ZoneID    string
	SubjectID string
	Admin     bool
	CreatedAt time.Time
}

// Forge mints credentials and grants permissions for a target server.
type Forge struct {
	admin  AdminMinter
	store  credstore.Store
	salt   string
	logger *log.Logger
}

// Options configures a Forge. Admin and Store are each optional, but at
// least one must be set for Mint to succeed.
type Options struct {
	Admin  AdminMinter
	Store  credstore.Store
	Salt   string // defaults to DefaultSalt
	Logger *log.Logger
}

// New creates a Forge.
func New(opts Options) *Forge {
	salt := opts.Salt
	if salt == "" {
		salt = DefaultSalt
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Forge{
		admin:  opts.Admin,
		store:  opts.Store,
		salt:   salt,
		logger: logger,
	}
}

// Digest computes the server's keyed-hash over a raw token:
// hex(HMAC-SHA256(key=salt, msg=token)). This must stay bit-exact with
// the server's verification scheme or forged credentials are unusable.
func Digest(salt, token string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Mint produces a credential for the given zone and subject. The admin
// RPC is tried first; direct persistence is the fallback. If neither
// backend is available the error wraps ErrNoBackend.
func (f *Forge) Mint(ctx context.Context, zoneID, subjectID, label string, admin bool) (*Credential, error) {
	if f.admin != nil {
		token, err := f.admin.CreateCredential(ctx, zoneID, subjectID, label, admin)
		if err == nil && token != "" {
			return &Credential{
				Token:     token,
				ZoneID:    zoneID,
				SubjectID: subjectID,
				Admin:     admin,
				CreatedAt: time.Now().UTC(),
			}, nil
		}
		if err != nil {
			f.logger.Warn("admin credential mint unavailable, falling back to direct insert",
				"zone", zoneID, "subject", subjectID, "err", err)
		}
	}

	if f.store == nil {
		return nil, fmt.Errorf("mint credential for %s/%s: %w", zoneID, subjectID, ErrNoBackend)
	}

	keyID := uuid.NewString()
	token, err := buildToken(zoneID, subjectID, keyID)
	if err != nil {
		return nil, fmt.Errorf("mint credential for %s/%s: %w", zoneID, subjectID, err)
	}

	now := time.Now().UTC()
	if err := f.store.EnsureZone(ctx, zoneID, zoneID); err != nil {
		return nil, err
	}
	if err := f.store.InsertCredential(ctx, &credstore.Credential{
		KeyID:     keyID,
		KeyHash:   Digest(f.salt, token),
		UserID:    subjectID,
		ZoneID:    zoneID,
		IsAdmin:   admin,
		Name:      label,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &Credential{
		Token:     token,
		KeyID:     keyID,
		ZoneID:    zoneID,
		SubjectID: subjectID,
		Admin:     admin,
		CreatedAt: now,
	}, nil
}

// GrantRelation inserts a permission tuple directly, bypassing the
// permission-administration API during isolation tests.
func (f *Forge) GrantRelation(ctx context.Context, zoneID, subjectID, path, relation string) error {
	if f.store == nil {
		return fmt.Errorf("grant %s on %s for %s/%s: %w", relation, path, zoneID, subjectID, ErrNoBackend)
	}
	return f.store.InsertTuple(ctx, &credstore.RelationTuple{
		TupleID:     uuid.NewString(),
		ZoneID:      zoneID,
		SubjectType: "user",
		SubjectID:   subjectID,
		Relation:    relation,
		ObjectType:  "entry",
		ObjectID:    path,
		CreatedAt:   time.Now().UTC(),
	})
}

// RevokeZone terminates a zone, revoking every credential under it and
// deleting its permission tuples. Idempotent.
func (f *Forge) RevokeZone(ctx context.Context, zoneID string) error {
	if f.store == nil {
		return fmt.Errorf("revoke zone %s: %w", zoneID, ErrNoBackend)
	}
	return f.store.TerminateZone(ctx, zoneID)
}

// buildToken assembles lat-{zone8}_{subject8}_{keyid8}_{random32}.
// The truncated prefixes make a leaked token attributable at a glance;
// the 128-bit random suffix carries the actual entropy.
func buildToken(zoneID, subjectID, keyID string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s_%s_%s_%s",
		tokenPrefix,
		trunc8(zoneID),
		trunc8(subjectID),
		trunc8(strings.ReplaceAll(keyID, "-", "")),
		hex.EncodeToString(buf)), nil
}

func trunc8(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
