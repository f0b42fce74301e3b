package vault

import (
	"path/filepath"

	"losslessvault/internal/photo"
)

// shardWidth is the number of leading hash characters naming the fan-out
// directory.
const shardWidth = 2

// ContentPath returns the archive location for a file with the given hash.
func ContentPath(root, hash string, format photo.Format) string {
	shard := hash
	if len(shard) > shardWidth {
		shard = shard[:shardWidth]
	}
	return filepath.Join(root, shard, hash+"."+format.Extension())
}

// SelectExportSet returns the photos the archive should hold: each group's
// source of truth plus every ungrouped photo. Input order is preserved.
func SelectExportSet(all []photo.Photo, groups []photo.DuplicateGroup) []photo.Photo {
	grouped := make(map[int64]struct{})
	elected := make(map[int64]struct{}, len(groups))
	for _, g := range groups {
		for _, m := range g.Members {
			grouped[m.ID] = struct{}{}
		}
		elected[g.SourceOfTruth] = struct{}{}
	}

	out := make([]photo.Photo, 0, len(all))
	for _, p := range all {
		if _, ok := grouped[p.ID]; ok {
			if _, ok := elected[p.ID]; !ok {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// Desired collapses an export set to one photo per content hash, keeping the
// first occurrence. Photos without a content hash cannot be addressed and
// are dropped.
func Desired(exportSet []photo.Photo) []photo.Photo {
	seen := make(map[string]struct{}, len(exportSet))
	out := make([]photo.Photo, 0, len(exportSet))
	for _, p := range exportSet {
		if p.ContentHash == "" {
			continue
		}
		if _, dup := seen[p.ContentHash]; dup {
			continue
		}
		seen[p.ContentHash] = struct{}{}
		out = append(out, p)
	}
	return out
}
