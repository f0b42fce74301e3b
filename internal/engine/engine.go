package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"losslessvault/internal/catalog"
	"losslessvault/internal/config"
	"losslessvault/internal/export"
	"losslessvault/internal/hashing"
	"losslessvault/internal/logging"
	"losslessvault/internal/metadata"
)

// ErrLocked is returned when another process holds the catalog lock.
var ErrLocked = errors.New("catalog is locked by another lsvault process")

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithExtractor replaces the metadata extractor chosen from config.
func WithExtractor(ex metadata.Extractor) Option {
	return func(e *Engine) {
		e.extractor = ex
	}
}

// WithConverter replaces the export converter chosen from config.
func WithConverter(c export.Converter) Option {
	return func(e *Engine) {
		e.converter = c
	}
}

// WithHasher replaces the perceptual hasher.
func WithHasher(h *hashing.Hasher) Option {
	return func(e *Engine) {
		e.hasher = h
	}
}

// Engine coordinates passes over one catalog.
type Engine struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	logger    *slog.Logger
	lock      *flock.Flock
	extractor metadata.Extractor
	exifTool  *metadata.ExifToolExtractor
	converter export.Converter
	hasher    *hashing.Hasher
	workers   int
}

// Open acquires the catalog lock and opens the catalog. ErrLocked is
// returned when another writer holds the lock.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires config")
	}
	e := &Engine{cfg: cfg, workers: cfg.Hashing.Workers}
	if e.workers == 0 {
		e.workers = hashing.DefaultWorkers()
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = logging.NewComponentLogger(e.logger, "engine")

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	e.lock = flock.New(cfg.LockPath())
	ok, err := e.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, cfg.LockPath())
	}

	cat, err := catalog.Open(ctx, cfg.Paths.Catalog)
	if err != nil {
		_ = e.lock.Unlock()
		return nil, err
	}
	e.catalog = cat

	if e.extractor == nil {
		e.extractor = e.defaultExtractor()
	}
	if e.converter == nil {
		e.converter = export.NewSips(
			export.WithBinary(cfg.Export.Converter),
			export.WithTimeout(cfg.ConverterTimeout()),
		)
	}
	return e, nil
}

// defaultExtractor prefers goexif and falls back to exiftool when it is
// enabled and installed.
func (e *Engine) defaultExtractor() metadata.Extractor {
	chain := metadata.Chain{metadata.EXIFExtractor{}}
	if !e.cfg.Hashing.ExifTool {
		return chain
	}
	if _, err := exec.LookPath("exiftool"); err != nil {
		e.logger.Debug("exiftool not installed; RAW and HEIC metadata limited to EXIF", logging.Error(err))
		return chain
	}
	et, err := metadata.NewExifTool()
	if err != nil {
		logging.WarnWithContext(e.logger, "exiftool unavailable", "exiftool_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "CR3, HEIC and RAF files are catalogued without metadata"),
		)
		return chain
	}
	e.exifTool = et
	return append(chain, et)
}

// Catalog exposes the underlying catalog for read-only queries.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Close releases the catalog, the exiftool process and the lock.
func (e *Engine) Close() error {
	var errs []error
	if e.exifTool != nil {
		if err := e.exifTool.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close exiftool: %w", err))
		}
		e.exifTool = nil
	}
	if e.catalog != nil {
		if err := e.catalog.Close(); err != nil {
			errs = append(errs, err)
		}
		e.catalog = nil
	}
	if e.lock != nil {
		if err := e.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
		e.lock = nil
	}
	return errors.Join(errs...)
}

// begin tags ctx with a fresh run id.
func (e *Engine) begin(ctx context.Context, phase string) (context.Context, string, *slog.Logger) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx = logging.WithPhase(ctx, phase)
	return ctx, runID, logging.WithContext(ctx, e.logger)
}
