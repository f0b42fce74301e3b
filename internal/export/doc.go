// Package export renders the deduplicated export set into a delivery format.
//
// Each source-of-truth photo (and every ungrouped photo) is converted to HEIC
// under <export>/YYYY/MM/DD/<stem>.heic, dated by EXIF capture date with the
// file modification time as fallback. Existing targets are left untouched so
// repeated runs only convert what is new. Conversion is delegated to a
// Converter; SipsConverter drives the macOS sips tool.
package export
