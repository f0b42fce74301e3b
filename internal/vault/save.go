package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"losslessvault/internal/fileutil"
	"losslessvault/internal/logging"
	"losslessvault/internal/photo"
	"losslessvault/internal/preflight"
	"losslessvault/internal/progress"
)

var (
	// ErrNoVault is returned when no vault root has been configured.
	ErrNoVault = errors.New("no vault configured")
	// ErrInsufficientSpace is returned when the pending copies would not fit.
	ErrInsufficientSpace = errors.New("insufficient free space in vault")
)

// Options configures a Syncer.
type Options struct {
	Root string
	// Verify re-reads every fresh copy and compares its SHA-256.
	Verify bool
	// MinFreeBytes must remain free after all pending copies land.
	MinFreeBytes uint64
	Logger       *slog.Logger
}

// Syncer materializes an export set into a vault.
type Syncer struct {
	root    string
	verify  bool
	minFree uint64
	logger  *slog.Logger

	freeBytes func(string) (uint64, error)
}

// NewSyncer builds a Syncer for opts.Root.
func NewSyncer(opts Options) *Syncer {
	return &Syncer{
		root:      opts.Root,
		verify:    opts.Verify,
		minFree:   opts.MinFreeBytes,
		logger:    logging.NewComponentLogger(opts.Logger, "vault"),
		freeBytes: preflight.FreeBytes,
	}
}

// Root returns the vault directory.
func (s *Syncer) Root() string {
	return s.root
}

// SaveReport counts the outcomes of a save pass.
type SaveReport struct {
	Copied      int
	Skipped     int
	Removed     int
	Failed      int
	CopiedBytes int64
}

// Save copies the export set derived from photos and groups into the vault,
// records each present file in m, and then reconciles m against the export
// set. Per-file copy and removal failures are counted and reported; they do
// not stop the pass. Manifest failures do. Cancellation stops copying
// between files and skips reconciliation.
func (s *Syncer) Save(ctx context.Context, runID string, photos []photo.Photo, groups []photo.DuplicateGroup, m Manifest, observer progress.Observer) (SaveReport, error) {
	var report SaveReport
	if s.root == "" {
		return report, ErrNoVault
	}
	obs := progress.OrNop(observer)
	logger := logging.WithContext(ctx, s.logger)

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return report, fmt.Errorf("create vault root: %w", err)
	}
	if check := preflight.CheckDirectoryAccess("vault", s.root); !check.Passed {
		return report, fmt.Errorf("vault not writable: %s", check.Detail)
	}

	desired := Desired(SelectExportSet(photos, groups))
	if err := s.checkSpace(desired); err != nil {
		return report, err
	}

	obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseSave, Kind: progress.KindStart, Total: len(desired)})
	var tally progress.Tally
	emit := func(outcome progress.Outcome, path, target string, err error) {
		obs.Observe(progress.Event{
			RunID:   runID,
			Phase:   progress.PhaseSave,
			Kind:    progress.KindItem,
			Outcome: tally.Add(outcome),
			Path:    path,
			Target:  target,
			Err:     err,
		})
	}
	complete := func() {
		obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseSave, Kind: progress.KindComplete, Total: len(desired), Counts: tally.Counts()})
	}

	keep := make(map[string]struct{}, len(desired))
	for _, p := range desired {
		keep[p.ContentHash] = struct{}{}
	}
	recorded, err := recordedFormats(ctx, m)
	if err != nil {
		return report, err
	}

	for _, p := range desired {
		if err := ctx.Err(); err != nil {
			complete()
			return report, err
		}
		// A hash already archived under another extension keeps its
		// recorded path so the manifest row still names the file on disk.
		format := p.Format
		if prev, ok := recorded[p.ContentHash]; ok {
			format = prev
		}
		target := ContentPath(s.root, p.ContentHash, format)
		copied, err := fileutil.CopyIfAbsent(p.Path, target, s.verify)
		if err != nil {
			report.Failed++
			logging.WarnWithContext(logger, "vault copy failed", "vault_copy_failed",
				logging.String("path", p.Path),
				logging.String("target", target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the source is readable and the vault is writable"),
				logging.String(logging.FieldImpact, "photo is missing from the vault until the next save"),
			)
			emit(progress.OutcomeFailed, p.Path, target, err)
			continue
		}
		if err := m.Insert(ctx, p.ContentHash, format); err != nil {
			complete()
			return report, fmt.Errorf("record vault file: %w", err)
		}
		if copied {
			report.Copied++
			report.CopiedBytes += p.Size
			emit(progress.OutcomeCopied, p.Path, target, nil)
		} else {
			report.Skipped++
			emit(progress.OutcomeSkipped, p.Path, target, nil)
		}
	}

	_, err = Reconcile(ctx, s.root, keep, m, func(r Removal) {
		if r.Err != nil {
			report.Failed++
			logging.WarnWithContext(logger, "vault removal failed", "vault_remove_failed",
				logging.String("target", r.Path),
				logging.Error(r.Err),
				logging.String(logging.FieldImpact, "stale file stays in the vault until the next save"),
			)
			emit(progress.OutcomeFailed, "", r.Path, r.Err)
			return
		}
		report.Removed++
		emit(progress.OutcomeRemoved, "", r.Path, nil)
	})
	complete()
	if err != nil {
		return report, err
	}

	logger.Info("vault saved",
		logging.String(logging.FieldEventType, "vault_saved"),
		logging.String("root", s.root),
		logging.Int("copied", report.Copied),
		logging.Int("skipped", report.Skipped),
		logging.Int("removed", report.Removed),
		logging.Int("failed", report.Failed),
		logging.String("copied_bytes", humanize.IBytes(uint64(report.CopiedBytes))),
	)
	return report, nil
}

// checkSpace fails when the files not yet in the vault would eat into the
// free-space floor.
func (s *Syncer) checkSpace(desired []photo.Photo) error {
	var pending uint64
	for _, p := range desired {
		exists, err := fileutil.Exists(ContentPath(s.root, p.ContentHash, p.Format))
		if err != nil || exists {
			continue
		}
		if p.Size > 0 {
			pending += uint64(p.Size)
		}
	}
	if pending == 0 {
		return nil
	}
	free, err := s.freeBytes(s.root)
	if err != nil {
		return fmt.Errorf("check vault free space: %w", err)
	}
	if free < pending+s.minFree {
		return fmt.Errorf("%w: need %s plus %s reserve, %s available",
			ErrInsufficientSpace, humanize.IBytes(pending), humanize.IBytes(s.minFree), humanize.IBytes(free))
	}
	return nil
}

func recordedFormats(ctx context.Context, m Manifest) (map[string]photo.Format, error) {
	entries, err := m.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manifest: %w", err)
	}
	formats := make(map[string]photo.Format, len(entries))
	for _, entry := range entries {
		formats[entry.ContentHash] = entry.Format
	}
	return formats, nil
}
