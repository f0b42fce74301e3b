// Package ranking elects the canonical member of a duplicate group.
package ranking

import "losslessvault/internal/photo"

// Better reports whether a outranks b: lower quality tier first, then larger
// size, then older modification time, then lower id so the order is total.
func Better(a, b photo.Photo) bool {
	if ta, tb := a.Format.Tier(), b.Format.Tier(); ta != tb {
		return ta < tb
	}
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	if a.ModTime != b.ModTime {
		return a.ModTime < b.ModTime
	}
	return a.ID < b.ID
}

// Elect returns the best of a non-empty candidate set. The signature makes an
// empty set impossible to pass.
func Elect(first photo.Photo, rest ...photo.Photo) photo.Photo {
	best := first
	for _, candidate := range rest {
		if Better(candidate, best) {
			best = candidate
		}
	}
	return best
}

// ElectAll is Elect over a slice. It panics on an empty slice; callers own
// the guarantee that groups have members.
func ElectAll(members []photo.Photo) photo.Photo {
	if len(members) == 0 {
		panic("ranking: elect called with no members")
	}
	return Elect(members[0], members[1:]...)
}
