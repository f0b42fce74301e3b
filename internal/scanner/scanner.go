// Package scanner finds supported photo files beneath a source directory.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"losslessvault/internal/logging"
	"losslessvault/internal/photo"
)

// Options configures a Scanner.
type Options struct {
	// Exclude lists directories that are never entered, such as a vault or
	// export root that lives inside a source.
	Exclude []string
	Logger  *slog.Logger
}

// Scanner walks directories, following symlinks.
type Scanner struct {
	exclude map[string]struct{}
	logger  *slog.Logger
	readDir func(string) ([]os.DirEntry, error)
}

// New builds a Scanner.
func New(opts Options) *Scanner {
	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if dir != "" {
			exclude[filepath.Clean(dir)] = struct{}{}
		}
	}
	return &Scanner{
		exclude: exclude,
		logger:  logging.NewComponentLogger(opts.Logger, "scanner"),
		readDir: os.ReadDir,
	}
}

type dirKey struct {
	dev uint64
	ino uint64
}

type walker struct {
	ctx     context.Context
	root    string
	s       *Scanner
	visited map[dirKey]struct{}
	files   []photo.ScannedFile
}

// Scan returns every supported file under root ordered by path. Entries
// below root that cannot be read are logged and skipped. A root that is
// missing, not a directory or unreadable is an error, so callers never
// mistake it for an empty source.
func (s *Scanner) Scan(ctx context.Context, root string) ([]photo.ScannedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", root)
	}

	w := &walker{ctx: ctx, root: filepath.Clean(root), s: s, visited: make(map[dirKey]struct{})}
	if err := w.walk(w.root); err != nil {
		return nil, err
	}
	sort.Slice(w.files, func(i, j int) bool { return w.files[i].Path < w.files[j].Path })
	return w.files, nil
}

func (w *walker) walk(dir string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	if _, skip := w.s.exclude[dir]; skip {
		return nil
	}

	var st unix.Stat_t
	if err := unix.Stat(dir, &st); err != nil {
		return w.unreadable(dir, err)
	}
	key := dirKey{dev: uint64(st.Dev), ino: uint64(st.Ino)}
	if _, seen := w.visited[key]; seen {
		w.s.logger.Debug("directory already visited", logging.String("path", dir))
		return nil
	}
	w.visited[key] = struct{}{}

	entries, err := w.s.readDir(dir)
	if err != nil {
		return w.unreadable(dir, err)
	}
	for _, entry := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())

		var info fs.FileInfo
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err = os.Stat(path)
		} else {
			info, err = entry.Info()
		}
		if err != nil {
			w.skip(path, err)
			continue
		}

		if info.IsDir() {
			if err := w.walk(path); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		format, ok := photo.FormatFromExtension(filepath.Ext(path))
		if !ok {
			continue
		}
		w.files = append(w.files, photo.ScannedFile{
			Path:    path,
			Size:    info.Size(),
			Format:  format,
			ModTime: info.ModTime().Unix(),
		})
	}
	return nil
}

// unreadable fails the scan for the root and skips any other directory.
func (w *walker) unreadable(dir string, err error) error {
	if dir == w.root {
		return fmt.Errorf("read source %s: %w", dir, err)
	}
	w.skip(dir, err)
	return nil
}

func (w *walker) skip(path string, err error) {
	logging.WarnWithContext(w.s.logger, "scan entry skipped", "scan_entry_skipped",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check permissions or broken symlinks"),
		logging.String(logging.FieldImpact, "entry is not catalogued"),
	)
}
