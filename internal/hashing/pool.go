package hashing

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"losslessvault/internal/logging"
	"losslessvault/internal/photo"
	"losslessvault/internal/progress"
)

// MetadataExtractor attaches optional EXIF data to a hashed file.
type MetadataExtractor interface {
	Extract(path string, format photo.Format) (*photo.Metadata, error)
}

// Result is the outcome of hashing one scanned file.
type Result struct {
	File           photo.ScannedFile
	ContentHash    string
	Fingerprint    *photo.Fingerprint
	Metadata       *photo.Metadata
	Err            error
	FingerprintErr error
}

// OK reports whether the file produced a usable content hash.
func (r Result) OK() bool {
	return r.Err == nil && r.ContentHash != ""
}

// PoolOptions configures a Pool.
type PoolOptions struct {
	Workers    int
	Perceptual bool
	Hasher     *Hasher
	Extractor  MetadataExtractor
	Logger     *slog.Logger
}

// Pool hashes files in parallel. Each file is independent, so workers share
// no mutable state beyond their own result slot.
type Pool struct {
	workers    int
	perceptual bool
	hasher     *Hasher
	extractor  MetadataExtractor
	logger     *slog.Logger
}

// NewPool builds a pool. Zero workers selects DefaultWorkers.
func NewPool(opts PoolOptions) *Pool {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = NewHasher(nil)
	}
	return &Pool{
		workers:    workers,
		perceptual: opts.Perceptual,
		hasher:     hasher,
		extractor:  opts.Extractor,
		logger:     logging.NewComponentLogger(opts.Logger, "hashing"),
	}
}

// DefaultWorkers leaves a quarter of the CPUs free for I/O and the caller.
func DefaultWorkers() int {
	n := runtime.NumCPU() * 3 / 4
	if n < 1 {
		return 1
	}
	return n
}

// Workers returns the configured concurrency.
func (p *Pool) Workers() int {
	return p.workers
}

// Hash processes files and returns one Result per input, in input order.
// Per-file failures are recorded on the Result. Cancellation stops dispatch
// of further files; files already dispatched finish, and ctx.Err() is
// returned alongside the partial results.
func (p *Pool) Hash(ctx context.Context, runID string, files []photo.ScannedFile, observer progress.Observer) ([]Result, error) {
	obs := &lockedObserver{next: progress.OrNop(observer)}
	obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseHash, Kind: progress.KindStart, Total: len(files)})

	results := make([]Result, len(files))
	dispatched := make([]bool, len(files))
	var tally progress.Tally
	var tallyMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range files {
		if gctx.Err() != nil {
			break
		}
		dispatched[i] = true
		g.Go(func() error {
			res := p.hashOne(files[i])
			results[i] = res

			outcome := progress.OutcomeHashed
			if !res.OK() {
				outcome = progress.OutcomeFailed
			}
			tallyMu.Lock()
			tally.Add(outcome)
			tallyMu.Unlock()
			obs.Observe(progress.Event{
				RunID:   runID,
				Phase:   progress.PhaseHash,
				Kind:    progress.KindItem,
				Outcome: outcome,
				Path:    res.File.Path,
				Err:     res.Err,
			})
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]Result, 0, len(files))
	for i, ok := range dispatched {
		if ok {
			merged = append(merged, results[i])
		}
	}

	obs.Observe(progress.Event{RunID: runID, Phase: progress.PhaseHash, Kind: progress.KindComplete, Total: len(files), Counts: tally.Counts()})

	if err := ctx.Err(); err != nil {
		return merged, err
	}
	return merged, nil
}

func (p *Pool) hashOne(file photo.ScannedFile) Result {
	res := Result{File: file}

	sum, err := ContentHash(file.Path)
	if err != nil {
		res.Err = err
		logging.WarnWithContext(p.logger, "content hash failed", "hash_failed",
			logging.String("path", file.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file is readable"),
			logging.String(logging.FieldImpact, "file is not catalogued in this pass"),
		)
		return res
	}
	res.ContentHash = sum

	if p.perceptual && file.Format.SupportsPerceptualHash() {
		fp, err := p.hasher.Fingerprint(file.Path, file.Format)
		if err != nil {
			res.FingerprintErr = err
			if !errors.Is(err, ErrUnsupportedFormat) {
				logging.WarnWithContext(p.logger, "perceptual hash failed", "fingerprint_failed",
					logging.String("path", file.Path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "image may be truncated or corrupt"),
					logging.String(logging.FieldImpact, "photo matches by content hash only"),
				)
			}
		} else {
			res.Fingerprint = fp
		}
	}

	if p.extractor != nil {
		meta, err := p.extractor.Extract(file.Path, file.Format)
		if err != nil {
			p.logger.Debug("metadata extraction skipped", logging.String("path", file.Path), logging.Error(err))
		} else if meta != nil && !meta.Empty() {
			res.Metadata = meta
		}
	}
	return res
}

type lockedObserver struct {
	mu   sync.Mutex
	next progress.Observer
}

func (o *lockedObserver) Observe(e progress.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.next.Observe(e)
}
