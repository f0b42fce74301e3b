// Package engine runs catalog passes end to end.
//
// An Engine owns the single-writer lock on the catalog for its lifetime and
// exposes one method per pass: Scan walks every registered source and
// refreshes the catalog, Group recomputes duplicate groups from the current
// photo set, Save synchronizes the vault with the export set, and Export
// renders the export set as HEIC. Each pass gets a fresh run id that flows
// into logs and progress events.
package engine
