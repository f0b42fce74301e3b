package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"losslessvault/internal/photo"
	"losslessvault/internal/sqlstore"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Catalog manages catalog persistence backed by SQLite.
type Catalog struct {
	db   *sqlx.DB
	path string
}

// Open initializes or connects to the catalog database and applies migrations.
func Open(ctx context.Context, path string) (*Catalog, error) {
	db, err := sqlstore.Open(ctx, path, migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Path returns the database file location.
func (c *Catalog) Path() string {
	return c.path
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// AddSource registers dir. The returned bool is false when the directory was
// already registered, in which case the existing row is returned.
func (c *Catalog) AddSource(ctx context.Context, dir string) (photo.Source, bool, error) {
	dir = filepath.Clean(dir)
	res, err := c.db.ExecContext(ctx,
		"INSERT INTO sources (path, added_at) VALUES (?, ?) ON CONFLICT(path) DO NOTHING",
		dir, now(),
	)
	if err != nil {
		return photo.Source{}, false, fmt.Errorf("insert source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return photo.Source{}, false, fmt.Errorf("rows affected: %w", err)
	}

	var row sourceRow
	if err := c.db.GetContext(ctx, &row, "SELECT id, path, added_at, last_scanned FROM sources WHERE path = ?", dir); err != nil {
		return photo.Source{}, false, fmt.Errorf("load source: %w", err)
	}
	return row.toSource(), affected > 0, nil
}

// ListSources returns every source ordered by id.
func (c *Catalog) ListSources(ctx context.Context) ([]photo.Source, error) {
	var rows []sourceRow
	if err := c.db.SelectContext(ctx, &rows, "SELECT id, path, added_at, last_scanned FROM sources ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	out := make([]photo.Source, len(rows))
	for i, row := range rows {
		out[i] = row.toSource()
	}
	return out, nil
}

// GetSource returns the source with id or ErrNotFound.
func (c *Catalog) GetSource(ctx context.Context, id int64) (photo.Source, error) {
	var row sourceRow
	err := c.db.GetContext(ctx, &row, "SELECT id, path, added_at, last_scanned FROM sources WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return photo.Source{}, fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return photo.Source{}, fmt.Errorf("get source: %w", err)
	}
	return row.toSource(), nil
}

// MarkScanned stamps the source's last scan time.
func (c *Catalog) MarkScanned(ctx context.Context, id int64, at time.Time) error {
	res, err := c.db.ExecContext(ctx, "UPDATE sources SET last_scanned = ? WHERE id = ?", at.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("mark scanned: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListPhotos returns photos ordered by id, limited to one source when
// sourceID is non-nil.
func (c *Catalog) ListPhotos(ctx context.Context, sourceID *int64) ([]photo.Photo, error) {
	query := "SELECT " + photoColumns + " FROM photos"
	var args []any
	if sourceID != nil {
		query += " WHERE source_id = ?"
		args = append(args, *sourceID)
	}
	query += " ORDER BY id"

	var rows []photoRow
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return toPhotos(rows)
}

// GetPhoto returns the photo with id or ErrNotFound.
func (c *Catalog) GetPhoto(ctx context.Context, id int64) (photo.Photo, error) {
	var row photoRow
	err := c.db.GetContext(ctx, &row, "SELECT "+photoColumns+" FROM photos WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return photo.Photo{}, fmt.Errorf("photo %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return photo.Photo{}, fmt.Errorf("get photo: %w", err)
	}
	return row.toPhoto()
}

func toPhotos(rows []photoRow) ([]photo.Photo, error) {
	out := make([]photo.Photo, 0, len(rows))
	for _, row := range rows {
		p, err := row.toPhoto()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UpsertPhoto inserts p or updates the row with the same path, returning the
// row id. Ids are stable across rescans of an unchanged path.
func (c *Catalog) UpsertPhoto(ctx context.Context, p photo.Photo) (int64, error) {
	var id int64
	err := c.db.QueryRowxContext(ctx, `INSERT INTO photos (
            source_id, path, size, format, content_hash, ahash, dhash, mtime,
            capture_date, camera_make, camera_model, gps_lat, gps_lon, width, height
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            source_id = excluded.source_id,
            size = excluded.size,
            format = excluded.format,
            content_hash = excluded.content_hash,
            ahash = excluded.ahash,
            dhash = excluded.dhash,
            mtime = excluded.mtime,
            capture_date = excluded.capture_date,
            camera_make = excluded.camera_make,
            camera_model = excluded.camera_model,
            gps_lat = excluded.gps_lat,
            gps_lon = excluded.gps_lon,
            width = excluded.width,
            height = excluded.height
        RETURNING id`, photoArgs(p)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert photo %s: %w", p.Path, err)
	}
	return id, nil
}

// DeleteMissing removes photos of sourceID whose path is not in keep and
// returns how many were removed. Group rows referencing them cascade away;
// the next grouping pass rebuilds the rest.
func (c *Catalog) DeleteMissing(ctx context.Context, sourceID int64, keep []string) (int, error) {
	present := make(map[string]struct{}, len(keep))
	for _, p := range keep {
		present[p] = struct{}{}
	}

	removed := 0
	err := sqlstore.WithTx(ctx, c.db, func(tx *sqlx.Tx) error {
		var rows []struct {
			ID   int64  `db:"id"`
			Path string `db:"path"`
		}
		if err := tx.SelectContext(ctx, &rows, "SELECT id, path FROM photos WHERE source_id = ?", sourceID); err != nil {
			return fmt.Errorf("list source photos: %w", err)
		}
		for _, row := range rows {
			if _, ok := present[row.Path]; ok {
				continue
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", row.ID); err != nil {
				return fmt.Errorf("delete photo %d: %w", row.ID, err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Setting returns the value stored under key.
func (c *Catalog) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores value under key.
func (c *Catalog) SetSetting(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// Stats summarizes the catalog.
func (c *Catalog) Stats(ctx context.Context) (photo.Stats, error) {
	var row struct {
		Sources    int   `db:"source_count"`
		Photos     int   `db:"photo_count"`
		Groups     int   `db:"group_count"`
		Duplicates int   `db:"duplicate_count"`
		TotalBytes int64 `db:"total_bytes"`
	}
	err := c.db.GetContext(ctx, &row, `SELECT
            (SELECT COUNT(1) FROM sources) AS source_count,
            (SELECT COUNT(1) FROM photos) AS photo_count,
            (SELECT COUNT(1) FROM duplicate_groups) AS group_count,
            (SELECT COUNT(1) FROM duplicate_members m
                JOIN duplicate_groups g ON g.id = m.group_id
                WHERE m.photo_id != g.source_of_truth) AS duplicate_count,
            (SELECT COALESCE(SUM(size), 0) FROM photos) AS total_bytes`)
	if err != nil {
		return photo.Stats{}, fmt.Errorf("catalog stats: %w", err)
	}
	return photo.Stats{
		Sources:    row.Sources,
		Photos:     row.Photos,
		Groups:     row.Groups,
		Duplicates: row.Duplicates,
		TotalBytes: row.TotalBytes,
	}, nil
}
