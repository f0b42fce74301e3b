package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"losslessvault/internal/config"
	"losslessvault/internal/engine"
	"losslessvault/internal/export"
	"losslessvault/internal/manifest"
	"losslessvault/internal/photo"
	"losslessvault/internal/progress"
	"losslessvault/internal/testsupport"
	"losslessvault/internal/vault"
)

type copyConverter struct{}

func (copyConverter) Convert(_ context.Context, src, dst string, _ int) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

type library struct {
	cfg    *config.Config
	src    string
	master string
	copy   string
}

// newLibrary lays out one perceptual pair (TIFF master, PNG copy), one exact
// pair of HEIC files, and one unrelated HEIC file.
func newLibrary(t *testing.T) library {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(testsupport.BaseDir(cfg), "photos")

	img := testsupport.PatternImage(1, 24)
	lib := library{
		cfg:    cfg,
		src:    src,
		master: filepath.Join(src, "a", "master.tiff"),
		copy:   filepath.Join(src, "b", "copy.png"),
	}
	testsupport.WriteTIFF(t, lib.master, img)
	testsupport.WritePNG(t, lib.copy, img)
	testsupport.WriteFile(t, filepath.Join(src, "x.heic"), 64, 'h')
	testsupport.WriteFile(t, filepath.Join(src, "dup", "x.heic"), 64, 'h')
	testsupport.WriteFile(t, filepath.Join(src, "solo.heic"), 128, 's')
	return lib
}

func openEngine(t *testing.T, cfg *config.Config, opts ...engine.Option) *engine.Engine {
	t.Helper()
	eng, err := engine.Open(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("engine.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = eng.Close()
	})
	return eng
}

func TestPipelineScanGroupSaveExport(t *testing.T) {
	lib := newLibrary(t)
	eng := openEngine(t, lib.cfg, engine.WithConverter(copyConverter{}))
	ctx := context.Background()
	testsupport.MustAddSource(t, eng.Catalog(), lib.src)

	rec := &progress.Recorder{}
	scan, err := eng.Scan(ctx, rec)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if diff := cmp.Diff(engine.ScanReport{Sources: 1, Files: 5, Hashed: 5}, scan); diff != "" {
		t.Fatalf("scan report mismatch (-want +got):\n%s", diff)
	}
	if got := rec.Outcomes(progress.PhaseScan); len(got) != 1 || got[0] != progress.OutcomeScanned {
		t.Fatalf("scan outcomes = %v", got)
	}
	if got := len(rec.Outcomes(progress.PhaseHash)); got != 5 {
		t.Fatalf("hash events = %d, want 5", got)
	}

	grouped, err := eng.Group(ctx, rec)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if diff := cmp.Diff(engine.GroupReport{Photos: 5, Groups: 2, Duplicates: 2}, grouped); diff != "" {
		t.Fatalf("group report mismatch (-want +got):\n%s", diff)
	}

	groups, err := eng.Catalog().ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	var perceptual photo.DuplicateGroup
	for _, g := range groups {
		if g.Confidence != photo.ConfidenceCertain {
			perceptual = g
		}
	}
	sot, ok := perceptual.SourceOfTruthPhoto()
	if !ok || sot.Path != lib.master {
		t.Fatalf("perceptual group elected %q, want TIFF master", sot.Path)
	}

	saved, err := eng.Save(ctx, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Copied != 3 || saved.Skipped != 0 || saved.Removed != 0 || saved.Failed != 0 {
		t.Fatalf("save report = %+v", saved)
	}
	m := testsupport.MustOpenManifest(t, lib.cfg.Paths.VaultDir)
	if n, err := m.Count(ctx); err != nil || n != 3 {
		t.Fatalf("manifest count = %d, %v", n, err)
	}
	if _, err := os.Stat(vault.ContentPath(lib.cfg.Paths.VaultDir, sot.ContentHash, sot.Format)); err != nil {
		t.Fatalf("source of truth missing from vault: %v", err)
	}

	exported, err := eng.Export(ctx, 0, rec)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if exported.Converted != 3 || exported.Failed != 0 {
		t.Fatalf("export report = %+v", exported)
	}
}

func TestRescanDetectsChangesAndVaultFollows(t *testing.T) {
	lib := newLibrary(t)
	eng := openEngine(t, lib.cfg)
	ctx := context.Background()
	testsupport.MustAddSource(t, eng.Catalog(), lib.src)

	if _, err := eng.Scan(ctx, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, err := eng.Group(ctx, nil); err != nil {
		t.Fatalf("Group: %v", err)
	}
	if _, err := eng.Save(ctx, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := os.Remove(lib.master); err != nil {
		t.Fatal(err)
	}
	scan, err := eng.Scan(ctx, nil)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if diff := cmp.Diff(engine.ScanReport{Sources: 1, Files: 4, Unchanged: 4, Removed: 1}, scan); diff != "" {
		t.Fatalf("rescan report mismatch (-want +got):\n%s", diff)
	}

	grouped, err := eng.Group(ctx, nil)
	if err != nil {
		t.Fatalf("regroup: %v", err)
	}
	if grouped.Groups != 1 {
		t.Fatalf("groups after removal = %d, want 1", grouped.Groups)
	}

	saved, err := eng.Save(ctx, nil)
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if diff := cmp.Diff(vault.SaveReport{Copied: 1, Skipped: 2, Removed: 1, CopiedBytes: saved.CopiedBytes}, saved); diff != "" {
		t.Fatalf("resave report mismatch (-want +got):\n%s", diff)
	}

	again, err := eng.Save(ctx, nil)
	if err != nil {
		t.Fatalf("third save: %v", err)
	}
	if again.Copied != 0 || again.Removed != 0 || again.Skipped != 3 {
		t.Fatalf("idempotent save report = %+v", again)
	}
}

func TestScanKeepsUnavailableSource(t *testing.T) {
	lib := newLibrary(t)
	eng := openEngine(t, lib.cfg)
	ctx := context.Background()
	testsupport.MustAddSource(t, eng.Catalog(), lib.src)
	if _, err := eng.Scan(ctx, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	unmounted := lib.src + ".offline"
	if err := os.Rename(lib.src, unmounted); err != nil {
		t.Fatal(err)
	}
	rec := &progress.Recorder{}
	scan, err := eng.Scan(ctx, rec)
	if err != nil {
		t.Fatalf("Scan with missing source: %v", err)
	}
	if scan.Missing != 1 || scan.Removed != 0 {
		t.Fatalf("scan report = %+v", scan)
	}
	if got := rec.Outcomes(progress.PhaseScan); len(got) != 1 || got[0] != progress.OutcomeFailed {
		t.Fatalf("scan outcomes = %v", got)
	}
	photos, err := eng.Catalog().ListPhotos(ctx, nil)
	if err != nil {
		t.Fatalf("ListPhotos: %v", err)
	}
	if len(photos) != 5 {
		t.Fatalf("catalog lost photos for an unavailable source: %d left", len(photos))
	}
}

func TestScanKeepsUnreadableSource(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	lib := newLibrary(t)
	eng := openEngine(t, lib.cfg)
	ctx := context.Background()
	testsupport.MustAddSource(t, eng.Catalog(), lib.src)
	if _, err := eng.Scan(ctx, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if err := os.Chmod(lib.src, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(lib.src, 0o755) })

	scan, err := eng.Scan(ctx, nil)
	if err != nil {
		t.Fatalf("Scan with unreadable source: %v", err)
	}
	if scan.Missing != 1 || scan.Removed != 0 {
		t.Fatalf("scan report = %+v", scan)
	}
	photos, err := eng.Catalog().ListPhotos(ctx, nil)
	if err != nil {
		t.Fatalf("ListPhotos: %v", err)
	}
	if len(photos) != 5 {
		t.Fatalf("catalog lost photos for an unreadable source: %d left", len(photos))
	}
}

func TestScanSkipsVaultInsideSource(t *testing.T) {
	lib := newLibrary(t)
	eng := openEngine(t, lib.cfg)
	ctx := context.Background()
	inside := filepath.Join(lib.src, "vault")
	if _, err := eng.SetVaultPath(ctx, inside); err != nil {
		t.Fatalf("SetVaultPath: %v", err)
	}
	testsupport.MustAddSource(t, eng.Catalog(), lib.src)

	if _, err := eng.Scan(ctx, nil); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, err := eng.Group(ctx, nil); err != nil {
		t.Fatalf("Group: %v", err)
	}
	if _, err := eng.Save(ctx, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	scan, err := eng.Scan(ctx, nil)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if scan.Files != 5 {
		t.Fatalf("rescan saw %d files, vault contents leaked into the scan", scan.Files)
	}
}

func TestOpenRejectsSecondWriter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	openEngine(t, cfg)

	_, err := engine.Open(context.Background(), cfg)
	if !errors.Is(err, engine.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestCloseReleasesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := engine.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("engine.Open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	openEngine(t, cfg)
}

func TestVaultAndExportPaths(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutVault())
	eng := openEngine(t, cfg)
	ctx := context.Background()

	if _, err := eng.Save(ctx, nil); !errors.Is(err, vault.ErrNoVault) {
		t.Fatalf("expected ErrNoVault, got %v", err)
	}
	if _, err := eng.Export(ctx, 0, nil); !errors.Is(err, export.ErrNoExportDir) {
		t.Fatalf("expected ErrNoExportDir, got %v", err)
	}

	dir := filepath.Join(testsupport.BaseDir(cfg), "archive")
	got, err := eng.SetVaultPath(ctx, dir)
	if err != nil {
		t.Fatalf("SetVaultPath: %v", err)
	}
	if got != dir {
		t.Fatalf("SetVaultPath = %s, want %s", got, dir)
	}
	resolved, err := engine.VaultPath(ctx, eng.Catalog(), cfg)
	if err != nil || resolved != dir {
		t.Fatalf("VaultPath = %q, %v", resolved, err)
	}
	if _, err := eng.Save(ctx, nil); err != nil {
		t.Fatalf("Save into empty vault: %v", err)
	}
	if _, err := os.Stat(manifest.PathFor(dir)); err != nil {
		t.Fatalf("expected manifest: %v", err)
	}
}

func TestScanHonoursCancellation(t *testing.T) {
	lib := newLibrary(t)
	eng := openEngine(t, lib.cfg)
	testsupport.MustAddSource(t, eng.Catalog(), lib.src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Scan(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	photos, err := eng.Catalog().ListPhotos(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListPhotos: %v", err)
	}
	if len(photos) != 0 {
		t.Fatalf("cancelled scan catalogued %d photos", len(photos))
	}
}
