package surface

import (
	"image"
	"image/color"
)

var testCardBars = []color.RGBA{
	{R: 235, G: 235, B: 235, A: 255},
	{R: 235, G: 235, B: 16, A: 255},
	{R: 16, G: 235, B: 235, A: 255},
	{R: 16, G: 235, B: 16, A: 255},
	{R: 235, G: 16, B: 235, A: 255},
	{R: 235, G: 16, B: 16, A: 255},
	{R: 16, G: 16, B: 235, A: 255},
}

// NewTestCard renders the built-in default still image: colour bars over a
// horizontal luminance ramp over a checkerboard. It is fully opaque and has
// hard edges in every band so blurring measurably changes it.
func NewTestCard(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 {
		return img
	}

	barsEnd := height / 2
	rampEnd := height * 3 / 4
	cell := max(width/32, 2)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case y < barsEnd:
				c = testCardBars[x*len(testCardBars)/width]
			case y < rampEnd:
				v := uint8(x * 255 / max(width-1, 1))
				c = color.RGBA{R: v, G: v, B: v, A: 255}
			default:
				if (x/cell+y/cell)%2 == 0 {
					c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
				} else {
					c = color.RGBA{A: 255}
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
