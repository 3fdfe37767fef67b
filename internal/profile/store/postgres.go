package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres keeps profile entries in the profile_entries table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the profile_entries table when it does not exist yet.
func (s *Postgres) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS profile_entries (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating profile_entries: %w", err)
	}

	return nil
}

func (s *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM profile_entries WHERE key = $1`

	var value string

	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("getting entry: %w", err)
	}

	return value, true, nil
}

func (s *Postgres) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO profile_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("setting entry: %w", err)
	}

	return nil
}

func (s *Postgres) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM profile_entries WHERE key = $1`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}

	return nil
}

func (s *Postgres) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profile_entries`); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}

	return nil
}
