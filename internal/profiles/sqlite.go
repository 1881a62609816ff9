package profiles

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

const schema = `
CREATE TABLE IF NOT EXISTS printer_profiles (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    host TEXT NOT NULL,
    port INTEGER NOT NULL,
    paper_width INTEGER NOT NULL,
    copies INTEGER NOT NULL,
    enabled INTEGER NOT NULL,
    label TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_printer_profiles_host ON printer_profiles(host);
`

const routingKey = "routing_enabled"

// SQLiteStore persists profiles in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at dbPath, creating parent directories
// and running migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) List(ctx context.Context) ([]Profile, error) {
	return listProfiles(ctx, s.db)
}

func listProfiles(ctx context.Context, q querier) ([]Profile, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, host, port, paper_width, copies, enabled, label FROM printer_profiles ORDER BY position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var list []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Host, &p.Port, &p.PaperWidth, &p.Copies, &p.Enabled, &p.Label); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return list, nil
}

func (s *SQLiteStore) Save(ctx context.Context, list []Profile) error {
	return s.Update(ctx, func([]Profile) ([]Profile, error) {
		return list, nil
	})
}

// Update runs fn inside one transaction. The pool holds a single
// connection, so concurrent updates queue behind it.
func (s *SQLiteStore) Update(ctx context.Context, fn func([]Profile) ([]Profile, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := listProfiles(ctx, tx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	prepared, err := Prepare(next)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM printer_profiles"); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	for i, p := range prepared {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO printer_profiles (id, position, host, port, paper_width, copies, enabled, label) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			p.ID, i, p.Host, p.Port, p.PaperWidth, p.Copies, p.Enabled, p.Label,
		)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FeatureFlag(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", routingKey).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read feature flag: %w", err)
	}
	return value == "true", nil
}

func (s *SQLiteStore) SetFeatureFlag(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		routingKey, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write feature flag: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
