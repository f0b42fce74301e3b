// Package photo defines the catalog domain shared by every lsvault component.
//
// Format and Confidence are closed taxonomies: each variant resolves its
// quality tier, perceptual-hash eligibility, file extension, and display tag
// through the tables in this package rather than through per-format types.
// Photo, DuplicateGroup, Source, and ScannedFile are plain values passed
// between the scanner, hashing, grouping, and vault packages.
package photo
