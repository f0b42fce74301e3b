package hashing

import "losslessvault/internal/photo"

const (
	// GridWidth has one extra column so every row yields eight adjacent pairs.
	GridWidth  = 9
	GridHeight = 8
)

// Grid is a row-major 9x8 luminance sample.
type Grid [GridWidth * GridHeight]uint8

// At returns the sample at column x, row y.
func (g *Grid) At(x, y int) uint8 {
	return g[y*GridWidth+x]
}

// AverageHash thresholds the left 8x8 block against its integer mean.
// Bit i is set when sample i is at or above the mean.
func AverageHash(g *Grid) uint64 {
	var sum uint64
	for y := 0; y < GridHeight; y++ {
		for x := 0; x < 8; x++ {
			sum += uint64(g.At(x, y))
		}
	}
	mean := sum / 64

	var hash uint64
	bit := 0
	for y := 0; y < GridHeight; y++ {
		for x := 0; x < 8; x++ {
			if uint64(g.At(x, y)) >= mean {
				hash |= 1 << bit
			}
			bit++
		}
	}
	return hash
}

// DifferenceHash sets a bit for each horizontally adjacent pair whose left
// sample is brighter than the right one.
func DifferenceHash(g *Grid) uint64 {
	var hash uint64
	bit := 0
	for y := 0; y < GridHeight; y++ {
		for x := 0; x < 8; x++ {
			if g.At(x, y) > g.At(x+1, y) {
				hash |= 1 << bit
			}
			bit++
		}
	}
	return hash
}

// FingerprintOf computes both hashes for a grid.
func FingerprintOf(g *Grid) photo.Fingerprint {
	return photo.Fingerprint{AHash: AverageHash(g), DHash: DifferenceHash(g)}
}

// luma applies the BT.601 weights to 8-bit channels, rounding to nearest.
func luma(r, g, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5
	if y >= 255 {
		return 255
	}
	return uint8(y)
}
