package score

import (
	"image"
	"math"

	"image-score-harness/internal/models"
)

// Window parameters of the structural similarity index
const (
	WindowSize  = 11
	WindowSigma = 1.5
)

var (
	ssimC1 = math.Pow(0.01*maxPixelValue, 2)
	ssimC2 = math.Pow(0.03*maxPixelValue, 2)

	window = gaussianKernel(WindowSize, WindowSigma)
)

// MSSIM returns the mean structural similarity of each RGBA channel, using a
// Gaussian window with reflected borders so every pixel contributes.
func MSSIM(reference, degraded *image.RGBA) models.MSSIM {
	w, h := reference.Rect.Dx(), reference.Rect.Dy()
	if w == 0 || h == 0 {
		return models.MSSIM{}
	}

	var out [4]float64
	for c := 0; c < 4; c++ {
		x := channelPlane(reference, c)
		y := channelPlane(degraded, c)
		out[c] = ssimPlane(x, y, w, h)
	}
	return models.MSSIM{R: out[0], G: out[1], B: out[2], A: out[3]}
}

func ssimPlane(x, y []float64, w, h int) float64 {
	n := w * h
	xx := make([]float64, n)
	yy := make([]float64, n)
	xy := make([]float64, n)
	for i := 0; i < n; i++ {
		xx[i] = x[i] * x[i]
		yy[i] = y[i] * y[i]
		xy[i] = x[i] * y[i]
	}

	muX := filter(x, w, h)
	muY := filter(y, w, h)
	sXX := filter(xx, w, h)
	sYY := filter(yy, w, h)
	sXY := filter(xy, w, h)

	var sum float64
	for i := 0; i < n; i++ {
		mx, my := muX[i], muY[i]
		varX := sXX[i] - mx*mx
		varY := sYY[i] - my*my
		cov := sXY[i] - mx*my

		num := (2*mx*my + ssimC1) * (2*cov + ssimC2)
		den := (mx*mx + my*my + ssimC1) * (varX + varY + ssimC2)
		sum += num / den
	}
	return sum / float64(n)
}

func channelPlane(img *image.RGBA, c int) []float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	plane := make([]float64, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			plane[y*w+x] = float64(img.Pix[off+x*4+c])
		}
	}
	return plane
}

// filter applies the separable window horizontally then vertically
func filter(src []float64, w, h int) []float64 {
	half := len(window) / 2
	tmp := make([]float64, len(src))
	dst := make([]float64, len(src))

	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var acc float64
			for k, wt := range window {
				acc += wt * row[reflect101(x+k-half, w)]
			}
			tmp[y*w+x] = acc
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, wt := range window {
				acc += wt * tmp[reflect101(y+k-half, h)*w+x]
			}
			dst[y*w+x] = acc
		}
	}
	return dst
}

// reflect101 mirrors i into [0, n) without repeating the edge sample
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func gaussianKernel(size int, sigma float64) []float64 {
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
