package testsupport

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"
)

// PatternImage returns a grayscale image made of 9x8 flat blocks of
// blockSize pixels. Different seeds produce unrelated block layouts.
func PatternImage(seed, blockSize int) *image.Gray {
	if blockSize < 1 {
		blockSize = 1
	}
	img := image.NewGray(image.Rect(0, 0, 9*blockSize, 8*blockSize))
	for by := 0; by < 8; by++ {
		for bx := 0; bx < 9; bx++ {
			level := patternLevel((bx*7 + by*13 + seed*5) % 9)
			for y := by * blockSize; y < (by+1)*blockSize; y++ {
				for x := bx * blockSize; x < (bx+1)*blockSize; x++ {
					img.SetGray(x, y, color.Gray{Y: level})
				}
			}
		}
	}
	return img
}

// patternLevel leaves a gap around mid-gray so no block sits near the
// image mean.
func patternLevel(idx int) uint8 {
	if idx < 4 {
		return uint8(30 + idx*20)
	}
	return uint8(150 + (idx-4)*20)
}

func create(t testing.TB, path string) *os.File {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	return f
}

// WritePNG encodes img as PNG at path.
func WritePNG(t testing.TB, path string, img image.Image) {
	t.Helper()
	f := create(t, path)
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png %s: %v", path, err)
	}
}

// WriteJPEG encodes img as JPEG at path with the given quality.
func WriteJPEG(t testing.TB, path string, img image.Image, quality int) {
	t.Helper()
	f := create(t, path)
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode jpeg %s: %v", path, err)
	}
}

// WriteTIFF encodes img as uncompressed TIFF at path.
func WriteTIFF(t testing.TB, path string, img image.Image) {
	t.Helper()
	f := create(t, path)
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("encode tiff %s: %v", path, err)
	}
}
