// Package preflight provides readiness checks for the filesystem paths and
// external binaries lsvault depends on.
//
// These checks run in two contexts:
//   - The vault save pass calls CheckDirectoryAccess and FreeBytes before
//     copying, so a read-only or full drive fails the run up front.
//   - The CLI "lsvault status" command uses RunAll to display health.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
