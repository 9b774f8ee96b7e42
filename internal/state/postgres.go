package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists checkpoints in a Postgres table so syncs resume
// across process restarts.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the checkpoint table
// exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("state store dsn is required")
	}

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect state store: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS stream_checkpoints (
	source     TEXT NOT NULL,
	stream     TEXT NOT NULL,
	state      JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (source, stream)
);`
	if _, err := s.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("ensure checkpoint table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, source, stream string) (map[string]string, error) {
	stmt := `SELECT state FROM stream_checkpoints WHERE source = $1 AND stream = $2`

	var state map[string]string
	if err := s.db.QueryRow(ctx, stmt, source, stream).Scan(&state); err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("load checkpoint %s/%s: %w", source, stream, err)
	}
	if state == nil {
		state = map[string]string{}
	}
	return state, nil
}

func (s *PostgresStore) Save(ctx context.Context, source, stream string, state map[string]string) error {
	if state == nil {
		state = map[string]string{}
	}
	stmt := `INSERT INTO stream_checkpoints (source, stream, state)
VALUES ($1, $2, $3)
ON CONFLICT (source, stream) DO UPDATE SET
	state = EXCLUDED.state,
	updated_at = now();`

	if _, err := s.db.Exec(ctx, stmt, source, stream, state); err != nil {
		return fmt.Errorf("save checkpoint %s/%s: %w", source, stream, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}
