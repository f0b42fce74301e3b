package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"losslessvault/internal/photo"
)

// Setting keys persisted in the settings table.
const (
	SettingVaultPath  = "vault_path"
	SettingExportPath = "export_path"
)

type sourceRow struct {
	ID          int64          `db:"id"`
	Path        string         `db:"path"`
	AddedAt     string         `db:"added_at"`
	LastScanned sql.NullString `db:"last_scanned"`
}

func (r sourceRow) toSource() photo.Source {
	src := photo.Source{ID: r.ID, Path: r.Path}
	if r.LastScanned.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, r.LastScanned.String); err == nil {
			src.LastScanned = &ts
		}
	}
	return src
}

type photoRow struct {
	ID          int64           `db:"id"`
	SourceID    int64           `db:"source_id"`
	Path        string          `db:"path"`
	Size        int64           `db:"size"`
	Format      string          `db:"format"`
	ContentHash string          `db:"content_hash"`
	AHash       sql.NullInt64   `db:"ahash"`
	DHash       sql.NullInt64   `db:"dhash"`
	ModTime     int64           `db:"mtime"`
	CaptureDate sql.NullString  `db:"capture_date"`
	CameraMake  sql.NullString  `db:"camera_make"`
	CameraModel sql.NullString  `db:"camera_model"`
	GPSLat      sql.NullFloat64 `db:"gps_lat"`
	GPSLon      sql.NullFloat64 `db:"gps_lon"`
	Width       sql.NullInt64   `db:"width"`
	Height      sql.NullInt64   `db:"height"`
}

const photoColumns = `id, source_id, path, size, format, content_hash, ahash, dhash, mtime,
    capture_date, camera_make, camera_model, gps_lat, gps_lon, width, height`

// Fingerprint halves are stored as the int64 with the same bit pattern,
// because SQLite integers are signed.
func (r photoRow) toPhoto() (photo.Photo, error) {
	format, err := photo.ParseFormat(r.Format)
	if err != nil {
		return photo.Photo{}, fmt.Errorf("photo %d: %w", r.ID, err)
	}
	p := photo.Photo{
		ID:          r.ID,
		SourceID:    r.SourceID,
		Path:        r.Path,
		Size:        r.Size,
		Format:      format,
		ContentHash: r.ContentHash,
		ModTime:     r.ModTime,
	}
	if r.AHash.Valid && r.DHash.Valid {
		p.Fingerprint = &photo.Fingerprint{AHash: uint64(r.AHash.Int64), DHash: uint64(r.DHash.Int64)}
	}
	meta := photo.Metadata{
		CaptureDate: r.CaptureDate.String,
		CameraMake:  r.CameraMake.String,
		CameraModel: r.CameraModel.String,
		Width:       int(r.Width.Int64),
		Height:      int(r.Height.Int64),
	}
	if r.GPSLat.Valid {
		lat := r.GPSLat.Float64
		meta.GPSLat = &lat
	}
	if r.GPSLon.Valid {
		lon := r.GPSLon.Float64
		meta.GPSLon = &lon
	}
	if !meta.Empty() {
		p.Metadata = &meta
	}
	return p, nil
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func photoArgs(p photo.Photo) []any {
	var ahash, dhash sql.NullInt64
	if p.Fingerprint != nil {
		ahash = sql.NullInt64{Int64: int64(p.Fingerprint.AHash), Valid: true}
		dhash = sql.NullInt64{Int64: int64(p.Fingerprint.DHash), Valid: true}
	}
	var meta photo.Metadata
	if p.Metadata != nil {
		meta = *p.Metadata
	}
	return []any{
		p.SourceID,
		p.Path,
		p.Size,
		p.Format.String(),
		p.ContentHash,
		ahash,
		dhash,
		p.ModTime,
		nullableString(meta.CaptureDate),
		nullableString(meta.CameraMake),
		nullableString(meta.CameraModel),
		nullableFloat(meta.GPSLat),
		nullableFloat(meta.GPSLon),
		nullableInt(meta.Width),
		nullableInt(meta.Height),
	}
}

func nullableString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullableInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
