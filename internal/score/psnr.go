package score

import (
	"image"
	"math"
)

const maxPixelValue = 255.0

// PSNR returns the peak signal-to-noise ratio in dB over the colour channels.
// Identical images yield +Inf. Both images must have the same size.
func PSNR(reference, degraded *image.RGBA) float64 {
	w, h := reference.Rect.Dx(), reference.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < h; y++ {
		ro := reference.PixOffset(reference.Rect.Min.X, reference.Rect.Min.Y+y)
		do := degraded.PixOffset(degraded.Rect.Min.X, degraded.Rect.Min.Y+y)
		for x := 0; x < w*4; x += 4 {
			for c := 0; c < 3; c++ {
				d := float64(reference.Pix[ro+x+c]) - float64(degraded.Pix[do+x+c])
				sum += d * d
			}
		}
	}

	mse := sum / float64(w*h*3)
	return PSNRFromMSE(mse)
}

// PSNRFromMSE converts a mean squared error on 8-bit samples to dB
func PSNRFromMSE(mse float64) float64 {
	if mse == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(maxPixelValue*maxPixelValue/mse)
}
