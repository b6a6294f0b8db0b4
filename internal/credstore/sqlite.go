package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// schemaSQL matches the server's embedded-backend schema for the three
// tables the harness writes. CREATE IF NOT EXISTS keeps opening a
// database the server has already initialized a no-op.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS zones (
	zone_id    TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	phase      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	deleted_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS credentials (
	key_id     TEXT PRIMARY KEY,
	key_hash   TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	zone_id    TEXT NOT NULL,
	is_admin   INTEGER NOT NULL DEFAULT 0,
	name       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	revoked    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS relation_tuples (
	tuple_id     TEXT PRIMARY KEY,
	zone_id      TEXT NOT NULL,
	subject_type TEXT NOT NULL,
	subject_id   TEXT NOT NULL,
	relation     TEXT NOT NULL,
	object_type  TEXT NOT NULL,
	object_id    TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	expires_at   TIMESTAMP,
	conditions   TEXT NOT NULL DEFAULT ''
);
`

// SQLite is the embedded file-backed Store implementation.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the embedded database at path.
// Use ":memory:" for a throwaway in-memory database in tests.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite supports a single writer; keep one connection so an
	// in-memory database is shared across calls as well.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// EnsureZone inserts a zone row in the active phase if none exists.
func (s *SQLite) EnsureZone(ctx context.Context, zoneID, name string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO zones (zone_id, name, phase, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (zone_id) DO NOTHING`,
		zoneID, name, ZonePhaseActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to ensure zone %s: %w", zoneID, err)
	}
	return nil
}

// InsertCredential persists a credential digest row.
func (s *SQLite) InsertCredential(ctx context.Context, cred *Credential) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (key_id, key_hash, user_id, zone_id, is_admin, name, created_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cred.KeyID, cred.KeyHash, cred.UserID, cred.ZoneID,
		cred.IsAdmin, cred.Name, cred.CreatedAt.UTC(), cred.Revoked)
	if err != nil {
		return fmt.Errorf("failed to insert credential %s: %w", cred.KeyID, err)
	}
	return nil
}

// GetCredential fetches a credential row by key ID.
func (s *SQLite) GetCredential(ctx context.Context, keyID string) (*Credential, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key_id, key_hash, user_id, zone_id, is_admin, name, created_at, revoked
		 FROM credentials WHERE key_id = ?`, keyID)

	var cred Credential
	err := row.Scan(&cred.KeyID, &cred.KeyHash, &cred.UserID, &cred.ZoneID,
		&cred.IsAdmin, &cred.Name, &cred.CreatedAt, &cred.Revoked)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("credential %s: %w", keyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential %s: %w", keyID, err)
	}
	return &cred, nil
}

// InsertTuple persists a permission tuple.
func (s *SQLite) InsertTuple(ctx context.Context, tuple *RelationTuple) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relation_tuples
		 (tuple_id, zone_id, subject_type, subject_id, relation, object_type, object_id, created_at, expires_at, conditions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tuple.TupleID, tuple.ZoneID, tuple.SubjectType, tuple.SubjectID,
		tuple.Relation, tuple.ObjectType, tuple.ObjectID,
		tuple.CreatedAt.UTC(), tuple.ExpiresAt, tuple.Conditions)
	if err != nil {
		return fmt.Errorf("failed to insert tuple %s: %w", tuple.TupleID, err)
	}
	return nil
}

// CountTuples returns the number of tuples scoped to a zone.
func (s *SQLite) CountTuples(ctx context.Context, zoneID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relation_tuples WHERE zone_id = ?`, zoneID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tuples for zone %s: %w", zoneID, err)
	}
	return n, nil
}

// TerminateZone cascades revocation across the three tables. Running it
// against an already-terminated zone changes nothing and returns nil.
func (s *SQLite) TerminateZone(ctx context.Context, zoneID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin terminate of zone %s: %w", zoneID, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE zones SET phase = ?, updated_at = ?, deleted_at = ?
		 WHERE zone_id = ? AND phase != ?`,
		ZonePhaseTerminated, now, now, zoneID, ZonePhaseTerminated); err != nil {
		return fmt.Errorf("failed to terminate zone %s: %w", zoneID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE credentials SET revoked = 1 WHERE zone_id = ?`, zoneID); err != nil {
		return fmt.Errorf("failed to revoke credentials for zone %s: %w", zoneID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM relation_tuples WHERE zone_id = ?`, zoneID); err != nil {
		return fmt.Errorf("failed to delete tuples for zone %s: %w", zoneID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit terminate of zone %s: %w", zoneID, err)
	}
	return nil
}

// ZonePhase returns the stored phase of a zone, for test assertions.
func (s *SQLite) ZonePhase(ctx context.Context, zoneID string) (string, error) {
	var phase string
	err := s.db.QueryRowContext(ctx,
		`SELECT phase FROM zones WHERE zone_id = ?`, zoneID).Scan(&phase)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("zone %s: %w", zoneID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get zone %s: %w", zoneID, err)
	}
	return phase, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
