// Package catalog persists sources, photos, duplicate groups, and settings
// in a SQLite database.
//
// The catalog assumes a single writer. Callers that mutate it hold the
// engine lock for the duration of a pass. Grouping output is replaced
// wholesale by RecordGroups inside one transaction, so readers never observe
// a half-written grouping.
package catalog
