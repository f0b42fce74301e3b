package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"losslessvault/internal/hashing"
	"losslessvault/internal/logging"
	"losslessvault/internal/photo"
	"losslessvault/internal/progress"
	"losslessvault/internal/scanner"
)

// ScanReport summarizes a scan pass.
type ScanReport struct {
	Sources   int
	Missing   int
	Files     int
	Hashed    int
	Unchanged int
	Failed    int
	Removed   int
}

// Scan walks every registered source, hashes new and modified files and
// refreshes the catalog. Files whose size and modification time match the
// catalog are not re-read. Catalog rows for files that disappeared are
// dropped. A source directory that cannot be read is reported and left
// untouched so an unmounted drive never empties the catalog. Cancellation
// keeps whatever was hashed before it and skips the removal step.
func (e *Engine) Scan(ctx context.Context, observer progress.Observer) (ScanReport, error) {
	ctx, runID, logger := e.begin(ctx, "scan")
	obs := progress.OrNop(observer)
	var report ScanReport

	sources, err := e.catalog.ListSources(ctx)
	if err != nil {
		return report, err
	}
	report.Sources = len(sources)

	exclude, err := e.excludedRoots(ctx)
	if err != nil {
		return report, err
	}
	walker := scanner.New(scanner.Options{Exclude: exclude, Logger: e.logger})
	pool := hashing.NewPool(hashing.PoolOptions{
		Workers:    e.workers,
		Perceptual: e.cfg.Hashing.Perceptual,
		Hasher:     e.hasher,
		Extractor:  e.extractor,
		Logger:     e.logger,
	})

	obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseScan, Kind: progress.KindStart, Total: len(sources)})
	var tally progress.Tally
	complete := func() {
		obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseScan, Kind: progress.KindComplete, Total: len(sources), Counts: tally.Counts()})
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			complete()
			return report, err
		}
		err := e.scanSource(ctx, runID, src, walker, pool, obs, &report)
		switch {
		case err == nil:
			obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseScan, Kind: progress.KindItem, Outcome: tally.Add(progress.OutcomeScanned), Path: src.Path})
		case errors.Is(err, errSourceUnavailable):
			report.Missing++
			logging.WarnWithContext(logger, "source unavailable", "source_unavailable",
				logging.String("source", src.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "mount or reconnect the source directory"),
				logging.String(logging.FieldImpact, "catalog entries for this source are kept unchanged"),
			)
			obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseScan, Kind: progress.KindItem, Outcome: tally.Add(progress.OutcomeFailed), Path: src.Path, Err: err})
		default:
			complete()
			return report, err
		}
	}
	complete()

	logger.Info("scan complete",
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.Int("sources", report.Sources),
		logging.Int("files", report.Files),
		logging.Int("hashed", report.Hashed),
		logging.Int("unchanged", report.Unchanged),
		logging.Int("failed", report.Failed),
		logging.Int("removed", report.Removed),
	)
	return report, nil
}

var errSourceUnavailable = errors.New("source unavailable")

func (e *Engine) scanSource(ctx context.Context, runID string, src photo.Source, walker *scanner.Scanner, pool *hashing.Pool, obs progress.Observer, report *ScanReport) error {
	files, err := walker.Scan(ctx, src.Path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", errSourceUnavailable, err)
	}
	report.Files += len(files)

	existing, err := e.catalog.ListPhotos(ctx, &src.ID)
	if err != nil {
		return err
	}
	known := make(map[string]photo.Photo, len(existing))
	for _, p := range existing {
		known[p.Path] = p
	}

	keep := make([]string, 0, len(files))
	pending := make([]photo.ScannedFile, 0, len(files))
	for _, f := range files {
		keep = append(keep, f.Path)
		if prev, ok := known[f.Path]; ok && e.unchanged(prev, f) {
			report.Unchanged++
			continue
		}
		pending = append(pending, f)
	}

	results, hashErr := pool.Hash(ctx, runID, pending, obs)
	for _, res := range results {
		if !res.OK() {
			report.Failed++
			continue
		}
		_, err := e.catalog.UpsertPhoto(ctx, photo.Photo{
			SourceID:    src.ID,
			Path:        res.File.Path,
			Size:        res.File.Size,
			Format:      res.File.Format,
			ContentHash: res.ContentHash,
			Fingerprint: res.Fingerprint,
			Metadata:    res.Metadata,
			ModTime:     res.File.ModTime,
		})
		if err != nil {
			return err
		}
		report.Hashed++
	}
	if hashErr != nil {
		return hashErr
	}

	removed, err := e.catalog.DeleteMissing(ctx, src.ID, keep)
	if err != nil {
		return err
	}
	report.Removed += removed
	return e.catalog.MarkScanned(ctx, src.ID, time.Now())
}

// unchanged reports whether a catalogued photo can be reused without
// reading the file again.
func (e *Engine) unchanged(prev photo.Photo, f photo.ScannedFile) bool {
	if prev.Size != f.Size || prev.ModTime != f.ModTime || prev.Format != f.Format || prev.ContentHash == "" {
		return false
	}
	if e.cfg.Hashing.Perceptual && f.Format.SupportsPerceptualHash() && !prev.HasFingerprint() {
		return false
	}
	return true
}

// excludedRoots keeps scans out of the vault and export trees.
func (e *Engine) excludedRoots(ctx context.Context) ([]string, error) {
	vaultRoot, err := VaultPath(ctx, e.catalog, e.cfg)
	if err != nil {
		return nil, err
	}
	exportRoot, err := ExportPath(ctx, e.catalog, e.cfg)
	if err != nil {
		return nil, err
	}
	return []string{vaultRoot, exportRoot}, nil
}
