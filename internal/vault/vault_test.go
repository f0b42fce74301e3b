package vault_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"losslessvault/internal/hashing"
	"losslessvault/internal/manifest"
	"losslessvault/internal/photo"
	"losslessvault/internal/progress"
	"losslessvault/internal/testsupport"
	"losslessvault/internal/vault"
)

func TestContentPath(t *testing.T) {
	root := "/vault"
	hash := "abcdef0123"
	if got, want := vault.ContentPath(root, hash, photo.FormatJPEG), filepath.Join(root, "ab", "abcdef0123.jpg"); got != want {
		t.Fatalf("ContentPath = %s, want %s", got, want)
	}
	if got, want := vault.ContentPath(root, hash, photo.FormatCR2), filepath.Join(root, "ab", "abcdef0123.cr2"); got != want {
		t.Fatalf("ContentPath = %s, want %s", got, want)
	}
	if got, want := vault.ContentPath(root, "a", photo.FormatPNG), filepath.Join(root, "a", "a.png"); got != want {
		t.Fatalf("short hash ContentPath = %s, want %s", got, want)
	}
}

func TestSelectExportSet(t *testing.T) {
	all := []photo.Photo{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	groups := []photo.DuplicateGroup{{
		ID:            1,
		Members:       []photo.Photo{{ID: 1}, {ID: 2}},
		SourceOfTruth: 2,
	}}
	got := vault.SelectExportSet(all, groups)
	ids := make([]int64, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	if diff := cmp.Diff([]int64{2, 3, 4}, ids); diff != "" {
		t.Fatalf("export set mismatch (-want +got):\n%s", diff)
	}
}

func TestDesiredDedupesByHash(t *testing.T) {
	set := []photo.Photo{
		{ID: 1, ContentHash: "aa"},
		{ID: 2, ContentHash: "aa"},
		{ID: 3},
		{ID: 4, ContentHash: "bb"},
	}
	got := vault.Desired(set)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 4 {
		t.Fatalf("Desired = %+v", got)
	}
}

// memManifest is an in-memory Manifest.
type memManifest struct {
	entries map[string]photo.Format
	failOn  string
}

func newMemManifest() *memManifest {
	return &memManifest{entries: map[string]photo.Format{}}
}

func (m *memManifest) List(context.Context) ([]manifest.Entry, error) {
	out := make([]manifest.Entry, 0, len(m.entries))
	for h, f := range m.entries {
		out = append(out, manifest.Entry{ContentHash: h, Format: f})
	}
	return out, nil
}

func (m *memManifest) Insert(_ context.Context, hash string, format photo.Format) error {
	if hash == m.failOn {
		return errors.New("manifest unavailable")
	}
	m.entries[hash] = format
	return nil
}

func (m *memManifest) Remove(_ context.Context, hash string) error {
	delete(m.entries, hash)
	return nil
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := newMemManifest()
	for _, h := range []string{"aa01", "bb02", "cc03"} {
		testsupport.WriteFile(t, vault.ContentPath(root, h, photo.FormatJPEG), 4, h[0])
		m.entries[h] = photo.FormatJPEG
	}

	desired := map[string]struct{}{"aa01": {}}
	removed, err := vault.Reconcile(ctx, root, desired, m, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed %d entries, want 2", len(removed))
	}
	for _, r := range removed {
		if r.Err != nil {
			t.Fatalf("unexpected removal error: %v", r.Err)
		}
		if _, err := os.Stat(r.Path); !os.IsNotExist(err) {
			t.Fatalf("%s still on disk", r.Path)
		}
		if _, err := os.Stat(filepath.Dir(r.Path)); !os.IsNotExist(err) {
			t.Fatalf("empty shard %s not pruned", filepath.Dir(r.Path))
		}
	}
	if _, ok := m.entries["aa01"]; !ok || len(m.entries) != 1 {
		t.Fatalf("manifest = %v", m.entries)
	}

	again, err := vault.Reconcile(ctx, root, desired, m, nil)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second pass removed %d entries, want 0", len(again))
	}
}

func TestReconcileToleratesMissingFile(t *testing.T) {
	m := newMemManifest()
	m.entries["dead"] = photo.FormatPNG
	removed, err := vault.Reconcile(context.Background(), t.TempDir(), nil, m, nil)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(removed) != 1 || removed[0].Err != nil {
		t.Fatalf("removed = %+v", removed)
	}
	if len(m.entries) != 0 {
		t.Fatal("manifest row should be dropped when the file is already gone")
	}
}

type fixture struct {
	photos []photo.Photo
	groups []photo.DuplicateGroup
}

// newFixture writes a RAW and a JPEG rendition of one image plus an
// unrelated PNG. The RAW is elected over the JPEG.
func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	specs := []struct {
		id     int64
		name   string
		format photo.Format
		size   int64
		fill   byte
	}{
		{1, "IMG_0001.CR2", photo.FormatCR2, 2048, 1},
		{2, "IMG_0001.JPG", photo.FormatJPEG, 512, 2},
		{3, "scan.png", photo.FormatPNG, 256, 3},
	}
	var f fixture
	for _, s := range specs {
		path := filepath.Join(dir, s.name)
		testsupport.WriteFile(t, path, s.size, s.fill)
		hash, err := hashing.ContentHash(path)
		if err != nil {
			t.Fatalf("ContentHash: %v", err)
		}
		f.photos = append(f.photos, photo.Photo{ID: s.id, Path: path, Format: s.format, Size: s.size, ContentHash: hash})
	}
	f.groups = []photo.DuplicateGroup{{
		ID:            1,
		Members:       []photo.Photo{f.photos[0], f.photos[1]},
		SourceOfTruth: 1,
		Confidence:    photo.ConfidenceNearCertain,
	}}
	return f
}

func TestSaveEndToEnd(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "vault")
	m := testsupport.MustOpenManifest(t, root)
	f := newFixture(t)
	syncer := vault.NewSyncer(vault.Options{Root: root, Verify: true})

	var rec progress.Recorder
	report, err := syncer.Save(ctx, "run-1", f.photos, f.groups, m, &rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if diff := cmp.Diff(vault.SaveReport{Copied: 2, CopiedBytes: 2048 + 256}, report); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	for _, p := range []photo.Photo{f.photos[0], f.photos[2]} {
		if _, err := os.Stat(vault.ContentPath(root, p.ContentHash, p.Format)); err != nil {
			t.Fatalf("expected %s in vault: %v", p.Path, err)
		}
	}
	if _, err := os.Stat(vault.ContentPath(root, f.photos[1].ContentHash, photo.FormatJPEG)); !os.IsNotExist(err) {
		t.Fatal("non-elected JPEG must not be archived")
	}
	events := rec.Events()
	if events[0].Kind != progress.KindStart || events[0].Total != 2 {
		t.Fatalf("first event = %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Kind != progress.KindComplete || last.Counts[progress.OutcomeCopied] != 2 {
		t.Fatalf("last event = %+v", last)
	}

	again, err := syncer.Save(ctx, "run-2", f.photos, f.groups, m, nil)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if diff := cmp.Diff(vault.SaveReport{Skipped: 2}, again); diff != "" {
		t.Fatalf("second report mismatch (-want +got):\n%s", diff)
	}

	// Dropping the PNG from the catalog removes it from the vault.
	shrunk, err := syncer.Save(ctx, "run-3", f.photos[:2], f.groups, m, nil)
	if err != nil {
		t.Fatalf("third Save: %v", err)
	}
	if diff := cmp.Diff(vault.SaveReport{Skipped: 1, Removed: 1}, shrunk); diff != "" {
		t.Fatalf("third report mismatch (-want +got):\n%s", diff)
	}
	entries, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ContentHash != f.photos[0].ContentHash {
		t.Fatalf("manifest = %+v", entries)
	}
}

func TestSaveKeepsRecordedFormatForKnownHash(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "vault")
	m := testsupport.MustOpenManifest(t, root)
	syncer := vault.NewSyncer(vault.Options{Root: root})

	dir := t.TempDir()
	pngPath := filepath.Join(dir, "H.png")
	jpgPath := filepath.Join(dir, "H.jpg")
	testsupport.WriteFile(t, pngPath, 128, 7)
	testsupport.WriteFile(t, jpgPath, 128, 7)
	hash, err := hashing.ContentHash(pngPath)
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	asPNG := photo.Photo{ID: 1, Path: pngPath, Format: photo.FormatPNG, Size: 128, ContentHash: hash}
	asJPEG := photo.Photo{ID: 2, Path: jpgPath, Format: photo.FormatJPEG, Size: 128, ContentHash: hash}

	if _, err := syncer.Save(ctx, "run-1", []photo.Photo{asPNG}, nil, m, nil); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	report, err := syncer.Save(ctx, "run-2", []photo.Photo{asJPEG}, nil, m, nil)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if diff := cmp.Diff(vault.SaveReport{Skipped: 1}, report); diff != "" {
		t.Fatalf("second report mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(vault.ContentPath(root, hash, photo.FormatJPEG)); !os.IsNotExist(err) {
		t.Fatal("same content must not be archived under a second extension")
	}

	cleared, err := syncer.Save(ctx, "run-3", nil, nil, m, nil)
	if err != nil {
		t.Fatalf("third Save: %v", err)
	}
	if diff := cmp.Diff(vault.SaveReport{Removed: 1}, cleared); diff != "" {
		t.Fatalf("third report mismatch (-want +got):\n%s", diff)
	}
	if n, err := m.Count(ctx); err != nil || n != 0 {
		t.Fatalf("Count = %d, %v; want 0", n, err)
	}
	for _, format := range []photo.Format{photo.FormatPNG, photo.FormatJPEG} {
		if _, err := os.Stat(vault.ContentPath(root, hash, format)); !os.IsNotExist(err) {
			t.Fatalf("%s file left behind in vault", format)
		}
	}
}

func TestSaveCountsFailedCopiesAndContinues(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := newMemManifest()
	f := newFixture(t)
	if err := os.Remove(f.photos[2].Path); err != nil {
		t.Fatal(err)
	}

	var rec progress.Recorder
	report, err := vault.NewSyncer(vault.Options{Root: root}).Save(ctx, "run", f.photos, f.groups, m, &rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if report.Copied != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if _, ok := m.entries[f.photos[2].ContentHash]; ok {
		t.Fatal("failed copy must not be recorded in the manifest")
	}
	if diff := cmp.Diff([]progress.Outcome{progress.OutcomeCopied, progress.OutcomeFailed}, rec.Outcomes(progress.PhaseSave)); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveManifestFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	m := newMemManifest()
	m.failOn = f.photos[0].ContentHash
	_, err := vault.NewSyncer(vault.Options{Root: t.TempDir()}).Save(context.Background(), "run", f.photos, f.groups, m, nil)
	if err == nil {
		t.Fatal("expected manifest failure to abort the save")
	}
}

func TestSaveRequiresVault(t *testing.T) {
	_, err := vault.NewSyncer(vault.Options{}).Save(context.Background(), "run", nil, nil, newMemManifest(), nil)
	if !errors.Is(err, vault.ErrNoVault) {
		t.Fatalf("err = %v, want ErrNoVault", err)
	}
}

func TestSaveChecksFreeSpace(t *testing.T) {
	f := newFixture(t)
	syncer := vault.NewSyncer(vault.Options{Root: t.TempDir(), MinFreeBytes: 1 << 20})
	syncer.SetFreeBytes(func(string) (uint64, error) { return 1 << 20, nil })

	_, err := syncer.Save(context.Background(), "run", f.photos, f.groups, newMemManifest(), nil)
	if !errors.Is(err, vault.ErrInsufficientSpace) {
		t.Fatalf("err = %v, want ErrInsufficientSpace", err)
	}
}

func TestSaveStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newMemManifest()
	m.entries["stale"] = photo.FormatJPEG

	_, err := vault.NewSyncer(vault.Options{Root: t.TempDir()}).Save(ctx, "run", f.photos, f.groups, m, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, ok := m.entries["stale"]; !ok {
		t.Fatal("cancelled save must not reconcile")
	}
}
