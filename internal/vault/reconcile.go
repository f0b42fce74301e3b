package vault

import (
	"context"
	"fmt"
	"path/filepath"

	"losslessvault/internal/fileutil"
	"losslessvault/internal/manifest"
	"losslessvault/internal/photo"
)

// Manifest is the index of archived files.
type Manifest interface {
	List(ctx context.Context) ([]manifest.Entry, error)
	Insert(ctx context.Context, hash string, format photo.Format) error
	Remove(ctx context.Context, hash string) error
}

// Removal describes one stale entry handled by Reconcile.
type Removal struct {
	Entry manifest.Entry
	Path  string
	Err   error
}

// Reconcile deletes every manifest entry whose hash is not in desired,
// together with its file. A file that cannot be deleted is reported with Err
// set and its manifest row is kept so the next pass retries it. Manifest
// errors are returned and end the pass. Each handled entry is passed to
// report as it completes. Cancellation is honored only before the pass
// starts; once entries are listed the pass runs to completion.
func Reconcile(ctx context.Context, root string, desired map[string]struct{}, m Manifest, report func(Removal)) ([]Removal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	entries, err := m.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list manifest: %w", err)
	}

	var removals []Removal
	for _, entry := range entries {
		if _, keep := desired[entry.ContentHash]; keep {
			continue
		}
		target := ContentPath(root, entry.ContentHash, entry.Format)
		removal := Removal{Entry: entry, Path: target}
		if err := fileutil.RemoveFile(target); err != nil {
			removal.Err = err
		} else {
			if err := m.Remove(ctx, entry.ContentHash); err != nil {
				return removals, fmt.Errorf("remove manifest entry: %w", err)
			}
			fileutil.PruneEmptyDirs(root, filepath.Dir(target))
		}
		removals = append(removals, removal)
		if report != nil {
			report(removal)
		}
	}
	return removals, nil
}
