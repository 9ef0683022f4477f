package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Schema is the single table backing PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS roadmap_records (
    record_key TEXT PRIMARY KEY,
    user_id    INTEGER NOT NULL,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_roadmap_records_user ON roadmap_records (user_id);
`

const upsertRecord = `
INSERT INTO roadmap_records (record_key, user_id, payload, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (record_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`

// PgxConn is the subset of *pgxpool.Pool used by the store.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type postgresBackend struct {
	db PgxConn
}

func NewPostgresStore(db PgxConn, logger *zap.Logger) *Store {
	return newStore(&postgresBackend{db: db}, logger)
}

// EnsureSchema creates roadmap_records if it does not exist.
func EnsureSchema(ctx context.Context, db PgxConn) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *postgresBackend) name() string { return "postgres" }

func (p *postgresBackend) get(ctx context.Context, key recordKey) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRow(ctx,
		`SELECT payload FROM roadmap_records WHERE record_key = $1`,
		key.String(),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return payload, err
}

func (p *postgresBackend) put(ctx context.Context, key recordKey, payload []byte) error {
	_, err := p.db.Exec(ctx, upsertRecord, key.String(), key.UserID, payload)
	return err
}

func (p *postgresBackend) apply(ctx context.Context, b batch) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if b.ResetUser {
		if _, err := tx.Exec(ctx, `DELETE FROM roadmap_records WHERE user_id = $1`, b.UserID); err != nil {
			return fmt.Errorf("reset user records: %w", err)
		}
	}
	for _, w := range b.Writes {
		if _, err := tx.Exec(ctx, upsertRecord, w.Key.String(), w.Key.UserID, w.Payload); err != nil {
			return fmt.Errorf("write %s: %w", w.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
