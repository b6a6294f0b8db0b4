package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the networked Store implementation, backed by a pgx
// connection pool. The server owns the schema on this backend; the
// harness only ever inserts and updates rows.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool for the given URL. Connections
// are established lazily, so this succeeds without a reachable server;
// the first query surfaces connectivity problems.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Ping verifies the server is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// EnsureZone inserts a zone row in the active phase if none exists.
func (p *Postgres) EnsureZone(ctx context.Context, zoneID, name string) error {
	now := time.Now().UTC()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO zones (zone_id, name, phase, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (zone_id) DO NOTHING`,
		zoneID, name, ZonePhaseActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to ensure zone %s: %w", zoneID, err)
	}
	return nil
}

// InsertCredential persists a credential digest row.
func (p *Postgres) InsertCredential(ctx context.Context, cred *Credential) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO credentials (key_id, key_hash, user_id, zone_id, is_admin, name, created_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cred.KeyID, cred.KeyHash, cred.UserID, cred.ZoneID,
		cred.IsAdmin, cred.Name, cred.CreatedAt.UTC(), cred.Revoked)
	if err != nil {
		return fmt.Errorf("failed to insert credential %s: %w", cred.KeyID, err)
	}
	return nil
}

// GetCredential fetches a credential row by key ID.
func (p *Postgres) GetCredential(ctx context.Context, keyID string) (*Credential, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT key_id, key_hash, user_id, zone_id, is_admin, name, created_at, revoked
		 FROM credentials WHERE key_id = $1`, keyID)

	var cred Credential
	err := row.Scan(&cred.KeyID, &cred.KeyHash, &cred.UserID, &cred.ZoneID,
		&cred.IsAdmin, &cred.Name, &cred.CreatedAt, &cred.Revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("credential %s: %w", keyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential %s: %w", keyID, err)
	}
	return &cred, nil
}

// InsertTuple persists a permission tuple.
func (p *Postgres) InsertTuple(ctx context.Context, tuple *RelationTuple) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO relation_tuples
		 (tuple_id, zone_id, subject_type, subject_id, relation, object_type, object_id, created_at, expires_at, conditions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tuple.TupleID, tuple.ZoneID, tuple.SubjectType, tuple.SubjectID,
		tuple.Relation, tuple.ObjectType, tuple.ObjectID,
		tuple.CreatedAt.UTC(), tuple.ExpiresAt, tuple.Conditions)
	if err != nil {
		return fmt.Errorf("failed to insert tuple %s: %w", tuple.TupleID, err)
	}
	return nil
}

// CountTuples returns the number of tuples scoped to a zone.
func (p *Postgres) CountTuples(ctx context.Context, zoneID string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM relation_tuples WHERE zone_id = $1`, zoneID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tuples for zone %s: %w", zoneID, err)
	}
	return n, nil
}

// TerminateZone cascades revocation across the three tables. Idempotent.
func (p *Postgres) TerminateZone(ctx context.Context, zoneID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin terminate of zone %s: %w", zoneID, err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE zones SET phase = $1, updated_at = $2, deleted_at = $2
		 WHERE zone_id = $3 AND phase != $1`,
		ZonePhaseTerminated, now, zoneID); err != nil {
		return fmt.Errorf("failed to terminate zone %s: %w", zoneID, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE credentials SET revoked = TRUE WHERE zone_id = $1`, zoneID); err != nil {
		return fmt.Errorf("failed to revoke credentials for zone %s: %w", zoneID, err)
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM relation_tuples WHERE zone_id = $1`, zoneID); err != nil {
		return fmt.Errorf("failed to delete tuples for zone %s: %w", zoneID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit terminate of zone %s: %w", zoneID, err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
