package metadata

import (
	"fmt"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"losslessvault/internal/photo"
)

// EXIFExtractor parses EXIF blocks with goexif.
type EXIFExtractor struct{}

// Supports reports whether goexif can read the container.
func (EXIFExtractor) Supports(format photo.Format) bool {
	switch format {
	case photo.FormatJPEG, photo.FormatTIFF, photo.FormatCR2, photo.FormatNEF,
		photo.FormatARW, photo.FormatORF, photo.FormatRW2, photo.FormatDNG:
		return true
	default:
		return false
	}
}

func (e EXIFExtractor) Extract(path string, format photo.Format) (*photo.Metadata, error) {
	if !e.Supports(format) {
		return nil, fmt.Errorf("exif: %s containers unsupported", format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Sub-IFD failures leave IFD0 usable.
	x, err := exif.Decode(f)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, fmt.Errorf("decode exif: %w", err)
	}

	meta := photo.Metadata{
		CaptureDate: firstString(x, exif.DateTimeOriginal, exif.DateTime),
		CameraMake:  firstString(x, exif.Make),
		CameraModel: firstString(x, exif.Model),
		Width:       firstInt(x, exif.PixelXDimension, exif.ImageWidth),
		Height:      firstInt(x, exif.PixelYDimension, exif.ImageLength),
	}
	if lat, lon, err := x.LatLong(); err == nil {
		meta.GPSLat = &lat
		meta.GPSLon = &lon
	}
	if meta.Empty() {
		return nil, ErrNoMetadata
	}
	return &meta, nil
}

func firstTag(x *exif.Exif, names ...exif.FieldName) *tiff.Tag {
	for _, name := range names {
		if tag, err := x.Get(name); err == nil {
			return tag
		}
	}
	return nil
}

func firstString(x *exif.Exif, names ...exif.FieldName) string {
	for _, name := range names {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		if value = strings.TrimSpace(strings.Trim(value, "\x00\"")); value != "" {
			return value
		}
	}
	return ""
}

func firstInt(x *exif.Exif, names ...exif.FieldName) int {
	tag := firstTag(x, names...)
	if tag == nil {
		return 0
	}
	value, err := tag.Int(0)
	if err != nil || value < 0 {
		return 0
	}
	return value
}
