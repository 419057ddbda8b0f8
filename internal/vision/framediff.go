package vision

import (
	"image"
	"math"
)

// Equal-shape frames are downsampled before comparison so high-resolution
// cameras still compare cheaply.
const (
	diffWidth  = 320
	diffHeight = 240
)

// SSIM stabilizing constants for 8-bit dynamic range (K1=0.01, K2=0.03).
const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// FrameDifference scores how dissimilar two frames look, in [0,1]:
// 0 means visually identical, 1 maximally different. It is
// 1 - SSIM over grayscale downsampled copies. A missing or undecodable
// frame scores 1, as does a pair whose dimensions differ: a resolution
// change mid-stream is a scene change as far as the gate is concerned.
func FrameDifference(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 1.0
	}
	if a.Bounds().Empty() || b.Bounds().Empty() {
		return 1.0
	}
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return 1.0
	}

	grayA := resampleGray(a, diffWidth, diffHeight)
	grayB := resampleGray(b, diffWidth, diffHeight)

	sim := ssim(grayA, grayB)
	diff := 1.0 - sim
	if diff < 0 {
		return 0
	}
	if diff > 1 {
		return 1
	}
	return diff
}

// resampleGray converts img to a w×h luminance grid via nearest-neighbor
// sampling.
func resampleGray(img image.Image, w, h int) []float64 {
	bounds := img.Bounds()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		srcY := bounds.Min.Y + y*bounds.Dy()/h
		for x := 0; x < w; x++ {
			srcX := bounds.Min.X + x*bounds.Dx()/w
			r, g, b, _ := img.At(srcX, srcY).RGBA()
			// ITU-R BT.601 luma, scaled from 16-bit to 8-bit range.
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			out[y*w+x] = luma
		}
	}
	return out
}

// ssim computes the structural similarity index over two equal-length
// luminance grids using global statistics.
func ssim(a, b []float64) float64 {
	n := float64(len(a))

	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var varA, varB, cov float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		varA += da * da
		varB += db * db
		cov += da * db
	}
	varA /= n - 1
	varB /= n - 1
	cov /= n - 1

	num := (2*meanA*meanB + ssimC1) * (2*cov + ssimC2)
	den := (meanA*meanA + meanB*meanB + ssimC1) * (varA + varB + ssimC2)
	if den == 0 {
		return 0
	}
	s := num / den
	if math.IsNaN(s) {
		return 0
	}
	return s
}
