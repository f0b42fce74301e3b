package testsupport

import (
	"context"
	"testing"

	"losslessvault/internal/catalog"
	"losslessvault/internal/config"
	"losslessvault/internal/manifest"
)

// MustOpenCatalog opens the catalog named by cfg and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Catalog {
	t.Helper()

	store, err := catalog.Open(context.Background(), cfg.Paths.Catalog)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenManifest opens the manifest for vaultRoot and registers cleanup.
func MustOpenManifest(t testing.TB, vaultRoot string) *manifest.Store {
	t.Helper()

	store, err := manifest.Open(context.Background(), vaultRoot)
	if err != nil {
		t.Fatalf("manifest.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustAddSource registers dir in store.
func MustAddSource(t testing.TB, store *catalog.Catalog, dir string) int64 {
	t.Helper()

	src, _, err := store.AddSource(context.Background(), dir)
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	return src.ID
}
