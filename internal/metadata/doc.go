// Package metadata extracts optional capture metadata from photo files.
//
// EXIFExtractor reads JPEG and TIFF-based containers (most RAW formats) in
// process. ExifToolExtractor drives a long-running exiftool process for the
// containers goexif cannot parse, such as CR3, HEIC and PNG. Chain tries
// extractors in order. Metadata never influences matching; it feeds export
// date bucketing and display.
package metadata
