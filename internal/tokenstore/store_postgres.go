package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"forkful/pkg/platform/sentinel"
)

// Schema for the postgres backend. Applied by EnsureSchema.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS client_tokens (
	namespace  TEXT        NOT NULL,
	name       TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (namespace, name)
)`

// PostgresStore persists tokens in a client_tokens table.
type PostgresStore struct {
	db        *sql.DB
	namespace string
	clock     func() time.Time
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresNamespace scopes rows under ns.
func WithPostgresNamespace(ns string) PostgresOption {
	return func(s *PostgresStore) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithPostgresClock sets the clock used for updated_at.
func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed token store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, namespace: "default", clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// EnsureSchema creates the client_tokens table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create client_tokens: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_tokens WHERE namespace = $1 AND name = $2`,
		s.namespace, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("token %s: %w", name, sentinel.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("select token: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, name, value string) error {
	if err := validateName(name); err != nil {
		return err
	}
	query := `
		INSERT INTO client_tokens (namespace, name, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.namespace, name, value, s.clock()); err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// Delete removes names with a single statement.
func (s *PostgresStore) Delete(ctx context.Context, names ...string) error {
	if err := validateNames(names); err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM client_tokens WHERE namespace = $1 AND name = ANY($2)`,
		s.namespace, pq.Array(names),
	)
	if err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}
