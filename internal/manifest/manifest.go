// Package manifest persists the index of files materialized in a vault.
// The manifest, not a directory listing, decides what the vault holds.
package manifest

import (
	"context"
	"embed"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"losslessvault/internal/photo"
	"losslessvault/internal/sqlstore"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Dir is the vault-relative directory holding vault bookkeeping.
const Dir = ".lsvault"

// Entry records one content-addressed file.
type Entry struct {
	ContentHash string
	Format      photo.Format
}

// Store is a manifest backed by SQLite inside the vault.
type Store struct {
	db   *sqlx.DB
	path string
}

// PathFor returns the manifest database location for a vault root.
func PathFor(vaultRoot string) string {
	return filepath.Join(vaultRoot, Dir, "manifest.db")
}

// Open opens or creates the manifest for vaultRoot.
func Open(ctx context.Context, vaultRoot string) (*Store, error) {
	path := PathFor(vaultRoot)
	db, err := sqlstore.Open(ctx, path, migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type entryRow struct {
	ContentHash string `db:"content_hash"`
	Format      string `db:"format"`
}

// List returns every entry ordered by hash.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	var rows []entryRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT content_hash, format FROM vault_files ORDER BY content_hash"); err != nil {
		return nil, fmt.Errorf("list manifest: %w", err)
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		format, err := photo.ParseFormat(row.Format)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %s: %w", row.ContentHash, err)
		}
		entries = append(entries, Entry{ContentHash: row.ContentHash, Format: format})
	}
	return entries, nil
}

// Insert records hash. Recording an existing hash is a no-op.
func (s *Store) Insert(ctx context.Context, hash string, format photo.Format) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO vault_files (content_hash, format, recorded_at) VALUES (?, ?, ?) ON CONFLICT(content_hash) DO NOTHING",
		hash, format.String(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert manifest entry %s: %w", hash, err)
	}
	return nil
}

// Remove deletes hash. Removing an absent hash is a no-op.
func (s *Store) Remove(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM vault_files WHERE content_hash = ?", hash); err != nil {
		return fmt.Errorf("remove manifest entry %s: %w", hash, err)
	}
	return nil
}

// Count returns the number of recorded entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(1) FROM vault_files"); err != nil {
		return 0, fmt.Errorf("count manifest: %w", err)
	}
	return n, nil
}
