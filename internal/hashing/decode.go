package hashing

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"losslessvault/internal/photo"
)

// ErrUnsupportedFormat is returned for formats without perceptual decoding.
var ErrUnsupportedFormat = errors.New("format does not support perceptual hashing")

// Decoder reduces an image file to a luminance grid.
type Decoder interface {
	Grid(path string, format photo.Format) (*Grid, error)
}

// ImageDecoder decodes with the Go image codecs and downsamples with a
// Catmull-Rom kernel.
type ImageDecoder struct {
	// Scaler overrides the resampling kernel. Nil selects draw.CatmullRom.
	Scaler draw.Scaler
}

func (d ImageDecoder) scaler() draw.Scaler {
	if d.Scaler != nil {
		return d.Scaler
	}
	return draw.CatmullRom
}

// Grid decodes path at full resolution and reduces it to 9x8 luminance.
func (d ImageDecoder) Grid(path string, format photo.Format) (*Grid, error) {
	if !format.SupportsPerceptualHash() {
		return nil, ErrUnsupportedFormat
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	var img image.Image
	if format == photo.FormatJPEG {
		img, err = jpeg.Decode(reader)
	} else {
		img, _, err = image.Decode(reader)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s: empty image", path)
	}

	if gray := lumaPlane(img); gray != nil {
		return d.gridFromGray(gray), nil
	}
	return d.gridFromColor(img), nil
}

// lumaPlane returns a full-resolution grayscale view when the decoded image
// already stores luminance separately, avoiding any chroma work.
func lumaPlane(img image.Image) *image.Gray {
	switch v := img.(type) {
	case *image.Gray:
		return v
	case *image.YCbCr:
		return &image.Gray{Pix: v.Y, Stride: v.YStride, Rect: v.Rect}
	default:
		return nil
	}
}

func (d ImageDecoder) gridFromGray(src *image.Gray) *Grid {
	dst := image.NewGray(image.Rect(0, 0, GridWidth, GridHeight))
	d.scaler().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var grid Grid
	for y := 0; y < GridHeight; y++ {
		copy(grid[y*GridWidth:(y+1)*GridWidth], dst.Pix[y*dst.Stride:y*dst.Stride+GridWidth])
	}
	return &grid
}

// gridFromColor resizes in RGB first so only 72 pixels go through the luma
// weighting.
func (d ImageDecoder) gridFromColor(src image.Image) *Grid {
	dst := image.NewRGBA(image.Rect(0, 0, GridWidth, GridHeight))
	d.scaler().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var grid Grid
	for y := 0; y < GridHeight; y++ {
		for x := 0; x < GridWidth; x++ {
			off := dst.PixOffset(x, y)
			grid[y*GridWidth+x] = luma(dst.Pix[off], dst.Pix[off+1], dst.Pix[off+2])
		}
	}
	return &grid
}
