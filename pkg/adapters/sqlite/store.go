// Package sqlite persists render artifacts in a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS artifacts (
	path       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	size       INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store implements ports.ObjectStore and ports.ObjectLister on SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) an artifact database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Exists reports whether an artifact row is present.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	var one int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM artifacts WHERE path = ?`, path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check artifact: %w", err)
	}
	return true, nil
}

// Get loads an artifact.
func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT data FROM artifacts WHERE path = ?`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}
	return data, nil
}

// Put upserts an artifact.
func (s *Store) Put(ctx context.Context, path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("artifact path is required")
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO artifacts (path, data, size, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET data = excluded.data, size = excluded.size, updated_at = excluded.updated_at`,
		path, data, len(data), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put artifact: %w", err)
	}
	return nil
}

// Delete removes an artifact row.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM artifacts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

// List returns the artifact paths starting with prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT path FROM artifacts WHERE substr(path, 1, ?) = ? ORDER BY path`,
		len(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return paths, nil
}

// Size returns the number of artifacts and their total byte size.
func (s *Store) Size(ctx context.Context) (count int, bytes int64, err error) {
	err = s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM artifacts`).Scan(&count, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("size artifacts: %w", err)
	}
	return count, bytes, nil
}
