// Package vault maintains the content-addressed archive of best copies.
//
// Every archived file lives at root/<hash[0:2]>/<hash>.<ext>, so identical
// bytes always land on the same path and the archive deduplicates itself.
// A target that already exists is trusted as correct. The manifest stored
// under root/.lsvault is the authority on what the archive holds; stale
// entries are removed by Reconcile.
package vault
