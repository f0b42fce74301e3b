package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"losslessvault/internal/fileutil"
	"losslessvault/internal/logging"
	"losslessvault/internal/metadata"
	"losslessvault/internal/photo"
	"losslessvault/internal/progress"
	"losslessvault/internal/vault"
)

const (
	// DefaultQuality matches the sips default for photographic HEIC output.
	DefaultQuality = 85
	targetExt      = ".heic"
)

// ErrNoExportDir is returned when no export root has been configured.
var ErrNoExportDir = errors.New("no export directory configured")

// Options configures an Exporter.
type Options struct {
	Root      string
	Quality   int
	Converter Converter
	Logger    *slog.Logger
}

// Exporter converts export sets into the delivery tree.
type Exporter struct {
	root      string
	quality   int
	converter Converter
	logger    *slog.Logger
}

// New builds an Exporter. A zero quality selects DefaultQuality and a nil
// converter selects sips.
func New(opts Options) *Exporter {
	quality := opts.Quality
	if quality == 0 {
		quality = DefaultQuality
	}
	converter := opts.Converter
	if converter == nil {
		converter = NewSips()
	}
	return &Exporter{
		root:      opts.Root,
		quality:   quality,
		converter: converter,
		logger:    logging.NewComponentLogger(opts.Logger, "export"),
	}
}

// Report counts the outcomes of an export pass.
type Report struct {
	Converted int
	Skipped   int
	Failed    int
}

// TargetPath returns <root>/YYYY/MM/DD/<stem>.heic for the given date.
func TargetPath(root string, date time.Time, source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(root,
		fmt.Sprintf("%04d", date.Year()),
		fmt.Sprintf("%02d", int(date.Month())),
		fmt.Sprintf("%02d", date.Day()),
		stem+targetExt,
	)
}

// Run converts the export set derived from photos and groups. Targets that
// already exist are skipped. Conversion failures are counted and reported
// without stopping the pass; a missing converter aborts it.
func (e *Exporter) Run(ctx context.Context, runID string, photos []photo.Photo, groups []photo.DuplicateGroup, observer progress.Observer) (Report, error) {
	var report Report
	if strings.TrimSpace(e.root) == "" {
		return report, ErrNoExportDir
	}
	if e.quality < 1 || e.quality > 100 {
		return report, fmt.Errorf("export quality %d outside 1..100", e.quality)
	}
	if checker, ok := e.converter.(interface{ Available() error }); ok {
		if err := checker.Available(); err != nil {
			return report, err
		}
	}
	if err := os.MkdirAll(e.root, 0o755); err != nil {
		return report, fmt.Errorf("create export root: %w", err)
	}

	obs := progress.OrNop(observer)
	logger := logging.WithContext(ctx, e.logger)
	exportSet := vault.SelectExportSet(photos, groups)

	obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseExport, Kind: progress.KindStart, Total: len(exportSet)})
	var tally progress.Tally
	emit := func(outcome progress.Outcome, path, target string, err error) {
		obs.Observe(progress.Event{
			RunID:   runID,
			Phase:   progress.PhaseExport,
			Kind:    progress.KindItem,
			Outcome: tally.Add(outcome),
			Path:    path,
			Target:  target,
			Err:     err,
		})
	}
	defer func() {
		obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseExport, Kind: progress.KindComplete, Total: len(exportSet), Counts: tally.Counts()})
	}()

	for _, p := range exportSet {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		target := TargetPath(e.root, metadata.DateFor(p), p.Path)
		exists, err := fileutil.Exists(target)
		if err == nil && exists {
			report.Skipped++
			emit(progress.OutcomeSkipped, p.Path, target, nil)
			continue
		}
		if err == nil {
			err = e.convert(ctx, p.Path, target)
		}
		if err != nil {
			if errors.Is(err, ErrConverterUnavailable) {
				return report, err
			}
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Failed++
			logging.WarnWithContext(logger, "export conversion failed", "export_failed",
				logging.String("path", p.Path),
				logging.String("target", target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the converter supports the source format"),
				logging.String(logging.FieldImpact, "photo is missing from the export tree"),
			)
			emit(progress.OutcomeFailed, p.Path, target, err)
			continue
		}
		report.Converted++
		emit(progress.OutcomeConverted, p.Path, target, nil)
	}

	logger.Info("export complete",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.String("root", e.root),
		logging.Int("converted", report.Converted),
		logging.Int("skipped", report.Skipped),
		logging.Int("failed", report.Failed),
	)
	return report, nil
}

// convert writes into a temporary sibling so an interrupted conversion never
// leaves a target that later runs would skip.
func (e *Exporter) convert(ctx context.Context, src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	partial := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".partial"+targetExt)
	_ = os.Remove(partial)
	if err := e.converter.Convert(ctx, src, partial, e.quality); err != nil {
		_ = os.Remove(partial)
		return err
	}
	if _, err := os.Stat(partial); err != nil {
		return fmt.Errorf("converter produced no output: %w", err)
	}
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("finalize export: %w", err)
	}
	return nil
}
