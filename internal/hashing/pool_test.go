package hashing_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"losslessvault/internal/hashing"
	"losslessvault/internal/photo"
	"losslessvault/internal/progress"
	"losslessvault/internal/testsupport"
)

type stubExtractor struct{}

func (stubExtractor) Extract(path string, format photo.Format) (*photo.Metadata, error) {
	if format != photo.FormatPNG {
		return nil, errors.New("no exif")
	}
	return &photo.Metadata{CameraMake: "Test"}, nil
}

func TestPoolHashesInInputOrder(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "a.png")
	heicPath := filepath.Join(dir, "b.heic")
	testsupport.WritePNG(t, pngPath, testsupport.PatternImage(1, 8))
	testsupport.WriteFile(t, heicPath, 128, 0x42)

	files := []photo.ScannedFile{
		{Path: pngPath, Format: photo.FormatPNG},
		{Path: filepath.Join(dir, "missing.jpg"), Format: photo.FormatJPEG},
		{Path: heicPath, Format: photo.FormatHEIC},
	}

	var rec progress.Recorder
	pool := hashing.NewPool(hashing.PoolOptions{Workers: 2, Perceptual: true, Extractor: stubExtractor{}})
	results, err := pool.Hash(context.Background(), "run-1", files, &rec)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if len(results) != len(files) {
		t.Fatalf("got %d results, want %d", len(results), len(files))
	}
	for i, res := range results {
		if res.File.Path != files[i].Path {
			t.Fatalf("result %d path = %s, want %s", i, res.File.Path, files[i].Path)
		}
	}

	png := results[0]
	if !png.OK() || png.Fingerprint == nil {
		t.Fatalf("png result = %+v, want hash and fingerprint", png)
	}
	if png.Metadata == nil || png.Metadata.CameraMake != "Test" {
		t.Fatalf("png metadata = %+v", png.Metadata)
	}
	if results[1].OK() || results[1].Err == nil {
		t.Fatalf("missing file should fail, got %+v", results[1])
	}
	heic := results[2]
	if !heic.OK() || heic.Fingerprint != nil || heic.FingerprintErr != nil {
		t.Fatalf("heic result = %+v, want content hash only", heic)
	}

	events := rec.Events()
	if events[0].Kind != progress.KindStart || events[0].Total != 3 {
		t.Fatalf("first event = %+v", events[0])
	}
	last := events[len(events)-1]
	if last.Kind != progress.KindComplete {
		t.Fatalf("last event = %+v", last)
	}
	if last.Counts[progress.OutcomeHashed] != 2 || last.Counts[progress.OutcomeFailed] != 1 {
		t.Fatalf("complete counts = %v", last.Counts)
	}
	if len(rec.Outcomes(progress.PhaseHash)) != 3 {
		t.Fatalf("expected 3 item events, got %d", len(rec.Outcomes(progress.PhaseHash)))
	}
}

func TestPoolSkipsPerceptualWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	testsupport.WritePNG(t, path, testsupport.PatternImage(1, 8))

	pool := hashing.NewPool(hashing.PoolOptions{Workers: 1})
	results, err := pool.Hash(context.Background(), "", []photo.ScannedFile{{Path: path, Format: photo.FormatPNG}}, nil)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if results[0].Fingerprint != nil {
		t.Fatal("fingerprint computed although perceptual hashing is disabled")
	}
}

func TestPoolStopsDispatchOnCancel(t *testing.T) {
	dir := t.TempDir()
	files := make([]photo.ScannedFile, 5)
	for i := range files {
		files[i] = photo.ScannedFile{Path: filepath.Join(dir, "f"+string(rune('a'+i))), Format: photo.FormatHEIC}
		testsupport.WriteFile(t, files[i].Path, 16, byte(i))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := hashing.NewPool(hashing.PoolOptions{Workers: 2}).Hash(ctx, "", files, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results after cancellation, got %d", len(results))
	}
}

func TestDefaultWorkersIsPositive(t *testing.T) {
	if hashing.DefaultWorkers() < 1 {
		t.Fatal("DefaultWorkers must be at least 1")
	}
	if hashing.NewPool(hashing.PoolOptions{}).Workers() != hashing.DefaultWorkers() {
		t.Fatal("zero workers should select the default")
	}
}
