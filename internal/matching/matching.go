// Package matching decides whether two photos are duplicates and how sure
// that decision is.
package matching

import (
	"math/bits"

	"losslessvault/internal/photo"
)

// Distance thresholds for a single hash channel.
const (
	NearCertainMaxDistance = 2
	HighMaxDistance        = 3
	ProbableMaxDistance    = 5
)

// Hamming returns the number of differing bits between a and b.
func Hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// ConfidenceFromDistance maps one channel's Hamming distance to a confidence.
// Distances above ProbableMaxDistance do not match.
func ConfidenceFromDistance(distance int) (photo.Confidence, bool) {
	switch {
	case distance < 0:
		return photo.ConfidenceLow, false
	case distance <= NearCertainMaxDistance:
		return photo.ConfidenceNearCertain, true
	case distance <= HighMaxDistance:
		return photo.ConfidenceHigh, true
	case distance <= ProbableMaxDistance:
		return photo.ConfidenceProbable, true
	default:
		return photo.ConfidenceLow, false
	}
}

// CompareFingerprints requires both channels to match independently and
// returns the weaker of the two confidences.
func CompareFingerprints(a, b photo.Fingerprint) (photo.Confidence, bool) {
	ahash, ok := ConfidenceFromDistance(Hamming(a.AHash, b.AHash))
	if !ok {
		return photo.ConfidenceLow, false
	}
	dhash, ok := ConfidenceFromDistance(Hamming(a.DHash, b.DHash))
	if !ok {
		return photo.ConfidenceLow, false
	}
	return ahash.Min(dhash), true
}

// Match compares two photos. Equal content hashes are Certain without any
// perceptual work; otherwise both photos need fingerprints.
func Match(a, b photo.Photo) (photo.Confidence, bool) {
	if a.ContentHash != "" && a.ContentHash == b.ContentHash {
		return photo.ConfidenceCertain, true
	}
	if a.Fingerprint == nil || b.Fingerprint == nil {
		return photo.ConfidenceLow, false
	}
	return CompareFingerprints(*a.Fingerprint, *b.Fingerprint)
}
