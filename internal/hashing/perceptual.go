package hashing

import "losslessvault/internal/photo"

var defaultDecoder Decoder = ImageDecoder{}

// DefaultDecoder returns the decoder selected at build time.
func DefaultDecoder() Decoder {
	return defaultDecoder
}

// Hasher produces perceptual fingerprints.
type Hasher struct {
	decoder Decoder
}

// NewHasher returns a Hasher using decoder, or the build default when nil.
func NewHasher(decoder Decoder) *Hasher {
	if decoder == nil {
		decoder = defaultDecoder
	}
	return &Hasher{decoder: decoder}
}

// Fingerprint decodes path and returns its aHash/dHash pair. Formats without
// perceptual support return ErrUnsupportedFormat; corrupt input returns the
// decode error. Either way the photo still matches by content hash.
func (h *Hasher) Fingerprint(path string, format photo.Format) (*photo.Fingerprint, error) {
	grid, err := h.decoder.Grid(path, format)
	if err != nil {
		return nil, err
	}
	fp := FingerprintOf(grid)
	return &fp, nil
}
