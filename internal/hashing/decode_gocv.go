//go:build gocv

package hashing

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"losslessvault/internal/photo"
)

// OpenCVDecoder decodes through OpenCV and downsamples with area
// interpolation. Build with -tags gocv to enable it.
type OpenCVDecoder struct{}

// Grid reads path at native resolution. JPEG input is read as grayscale so
// OpenCV never decodes chroma.
func (OpenCVDecoder) Grid(path string, format photo.Format) (*Grid, error) {
	if !format.SupportsPerceptualHash() {
		return nil, ErrUnsupportedFormat
	}

	flags := gocv.IMReadColor
	if format == photo.FormatJPEG {
		flags = gocv.IMReadGrayScale
	}
	img := gocv.IMRead(path, flags)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("decode %s: opencv could not read image", path)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Point{X: GridWidth, Y: GridHeight}, 0, 0, gocv.InterpolationArea)

	var grid Grid
	for y := 0; y < GridHeight; y++ {
		for x := 0; x < GridWidth; x++ {
			if resized.Channels() == 1 {
				grid[y*GridWidth+x] = resized.GetUCharAt(y, x)
				continue
			}
			bgr := resized.GetVecbAt(y, x)
			grid[y*GridWidth+x] = luma(bgr[2], bgr[1], bgr[0])
		}
	}
	return &grid, nil
}

func init() {
	defaultDecoder = OpenCVDecoder{}
}
