package metadata

import (
	"errors"

	"losslessvault/internal/photo"
)

// ErrNoMetadata is returned when a file carries no usable fields.
var ErrNoMetadata = errors.New("no metadata")

// Extractor reads metadata from one file.
type Extractor interface {
	Extract(path string, format photo.Format) (*photo.Metadata, error)
}

// Chain tries each extractor in order and returns the first non-empty
// result. When every extractor fails, the last error is returned.
type Chain []Extractor

func (c Chain) Extract(path string, format photo.Format) (*photo.Metadata, error) {
	err := ErrNoMetadata
	for _, ex := range c {
		if ex == nil {
			continue
		}
		meta, exErr := ex.Extract(path, format)
		if exErr == nil && meta != nil && !meta.Empty() {
			return meta, nil
		}
		if exErr != nil {
			err = exErr
		}
	}
	return nil, err
}
