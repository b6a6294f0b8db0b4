// Package credstore persists forged credentials, relation tuples and
// zone records directly into the Lattice server's relational backend,
// bypassing the administrative API. The server runs against either a
// networked Postgres instance or an embedded SQLite file; both speak
// the same schema, so the harness exposes one Store interface with a
// concrete implementation per backend, selected once at startup from
// the configured URL.
package credstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// Zone lifecycle phases as stored in the zones table.
const (
	ZonePhaseActive     = "active"
	ZonePhaseTerminated = "terminated"
)

// Credential mirrors a row of the server's credentials table. Only the
// keyed-hash digest of the token is ever stored, never the raw token.
type Credential struct {
	KeyID     string
	KeyHash   string
	UserID    string
	ZoneID    string
	IsAdmin   bool
	Name      string
	CreatedAt time.Time
	Revoked   bool
}

// RelationTuple mirrors a row of the server's relation_tuples table.
type RelationTuple struct {
	TupleID     string
	ZoneID      string
	SubjectType string
	SubjectID   string
	Relation    string
	ObjectType  string
	ObjectID    string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
	Conditions  string
}

// Store is the dual-backend connector contract. Implementations are safe
// for concurrent use across distinct zones and subjects; concurrent
// mutation of the same credential or zone record is not supported.
type Store interface {
	// EnsureZone inserts a zone row in the active phase if none exists.
	EnsureZone(ctx context.Context, zoneID, name string) error

	// InsertCredential persists a credential digest row.
	InsertCredential(ctx context.Context, cred *Credential) error

	// GetCredential fetches a credential row by key ID.
	GetCredential(ctx context.Context, keyID string) (*Credential, error)

	// InsertTuple persists a permission tuple.
	InsertTuple(ctx context.Context, tuple *RelationTuple) error

	// CountTuples returns the number of tuples scoped to a zone.
	CountTuples(ctx context.Context, zoneID string) (int, error)

	// TerminateZone cascades: the zone row is marked terminated, every
	// credential under it is flagged revoked, and its tuples are
	// deleted. Credentials are soft-deleted only, to preserve audit
	// parity with the server's own revocation. Idempotent.
	TerminateZone(ctx context.Context, zoneID string) error

	Close() error
}

// Open selects and opens a backend from the connection URL. The scheme
// decides the backend exactly once, here; call sites never inspect the
// URL again. A postgres:// or postgresql:// URL opens the networked
// backend, a sqlite:// URL or a plain file path opens the embedded one.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case url == "":
		return nil, fmt.Errorf("credential store URL is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return OpenPostgres(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(strings.TrimPrefix(url, "sqlite://"))
	default:
		return OpenSQLite(url)
	}
}
