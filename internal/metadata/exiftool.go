package metadata

import (
	"fmt"
	"strings"

	"github.com/barasher/go-exiftool"

	"losslessvault/internal/photo"
)

// ExifToolExtractor reads metadata through a persistent exiftool process.
// It is safe for concurrent use.
type ExifToolExtractor struct {
	et *exiftool.Exiftool
}

// ExifToolOption configures NewExifTool.
type ExifToolOption func(*exifToolConfig)

type exifToolConfig struct {
	binary string
}

// WithExifToolBinary overrides the exiftool executable.
func WithExifToolBinary(path string) ExifToolOption {
	return func(c *exifToolConfig) {
		c.binary = path
	}
}

// NewExifTool starts exiftool. Callers must Close the extractor.
func NewExifTool(opts ...ExifToolOption) (*ExifToolExtractor, error) {
	var cfg exifToolConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	args := []func(*exiftool.Exiftool) error{exiftool.NoPrintConversion()}
	if cfg.binary != "" {
		args = append(args, exiftool.SetExiftoolBinaryPath(cfg.binary))
	}
	et, err := exiftool.NewExiftool(args...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExifToolExtractor{et: et}, nil
}

// Close stops the exiftool process.
func (e *ExifToolExtractor) Close() error {
	if e == nil || e.et == nil {
		return nil
	}
	return e.et.Close()
}

func (e *ExifToolExtractor) Extract(path string, _ photo.Format) (*photo.Metadata, error) {
	results := e.et.ExtractMetadata(path)
	if len(results) == 0 {
		return nil, ErrNoMetadata
	}
	fm := results[0]
	if fm.Err != nil {
		return nil, fmt.Errorf("exiftool %s: %w", path, fm.Err)
	}
	return metadataFromFields(fm), nil
}

func metadataFromFields(fm exiftool.FileMetadata) *photo.Metadata {
	str := func(keys ...string) string {
		for _, k := range keys {
			if v, err := fm.GetString(k); err == nil && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}
	num := func(keys ...string) int {
		for _, k := range keys {
			if v, err := fm.GetInt(k); err == nil && v > 0 {
				return int(v)
			}
		}
		return 0
	}
	coord := func(key, refKey, negative string) *float64 {
		v, err := fm.GetFloat(key)
		if err != nil {
			return nil
		}
		if ref, err := fm.GetString(refKey); err == nil && strings.EqualFold(strings.TrimSpace(ref), negative) && v > 0 {
			v = -v
		}
		return &v
	}

	meta := photo.Metadata{
		CaptureDate: str("DateTimeOriginal", "CreateDate", "ModifyDate"),
		CameraMake:  str("Make"),
		CameraModel: str("Model"),
		GPSLat:      coord("GPSLatitude", "GPSLatitudeRef", "S"),
		GPSLon:      coord("GPSLongitude", "GPSLongitudeRef", "W"),
		Width:       num("ImageWidth", "ExifImageWidth"),
		Height:      num("ImageHeight", "ExifImageHeight"),
	}
	if meta.Empty() {
		return nil
	}
	return &meta
}
