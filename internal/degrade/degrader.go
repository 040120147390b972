// Package degrade develops the active frame into the scratch buffer and renders
// a distorted copy of it into the output buffer. After a successful call both
// buffers hold the same upstream instant at identical dimensions.
package degrade

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	xdraw "golang.org/x/image/draw"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/surface"
)

var (
	ErrEmptyBuffer  = errors.New("working buffer has zero size")
	ErrSizeMismatch = errors.New("scratch and output buffers differ in size")
)

// Accelerator renders the blur on a native backend
type Accelerator interface {
	Blur(src, dst *image.RGBA, radius int) error
}

type Degrader struct {
	accel  Accelerator
	logger logger.Logger
}

// New creates a degrader. accel may be nil, in which case the accelerated
// path falls back to the pure-Go blur.
func New(accel Accelerator, log logger.Logger) *Degrader {
	if log == nil {
		log = logger.Nop{}
	}
	return &Degrader{accel: accel, logger: log}
}

// Degrade copies the current frame of source into scratch at scratch's size,
// then renders scratch into output with the configured distortion.
func (d *Degrader) Degrade(source surface.Source, scratch, output *surface.Buffer, params models.DegradeParameters) error {
	frame, err := source.CurrentFrame()
	if err != nil {
		return err
	}

	ref := scratch.RGBA()
	dst := output.RGBA()
	if ref.Rect.Empty() || dst.Rect.Empty() {
		return ErrEmptyBuffer
	}
	if ref.Rect.Size() != dst.Rect.Size() {
		return fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, ref.Rect.Size(), dst.Rect.Size())
	}

	Develop(ref, frame)

	switch params.Kind {
	case models.DegradeGrey:
		Grey(dst, ref)
		return nil
	case models.DegradeBlur, "":
	default:
		return fmt.Errorf("unknown degrade kind %q", params.Kind)
	}

	if params.BlurRadiusPx <= 0 {
		Copy(dst, ref)
		return nil
	}

	if params.UseAcceleratedPath && d.accel != nil {
		if err := d.accel.Blur(ref, dst, params.BlurRadiusPx); err != nil {
			return fmt.Errorf("accelerated blur: %w", err)
		}
		return nil
	}

	Blur(dst, ref, params.BlurRadiusPx)
	return nil
}

// Develop scales frame into dst, covering all of dst
func Develop(dst *image.RGBA, frame image.Image) {
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, frame, frame.Bounds(), xdraw.Src, nil)
}

// Copy is the identity distortion
func Copy(dst, src *image.RGBA) {
	xdraw.Draw(dst, dst.Rect, src, src.Rect.Min, xdraw.Src)
}

// Blur renders a separable Gaussian blur of the colour channels of src into
// dst. dst keeps the alpha of src.
func Blur(dst, src *image.RGBA, radius int) {
	blurred := blur.Gaussian(src, float64(radius))
	xdraw.Draw(dst, dst.Rect, blurred, blurred.Rect.Min, xdraw.Src)
	restoreAlpha(dst, src, blurred)
}

// restoreAlpha puts the alpha of src back into dst. bild truncates every
// channel, so the premultiplied colour is rescaled from the blurred alpha to
// the source alpha.
func restoreAlpha(dst, src, blurred *image.RGBA) {
	width, height := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < height; y++ {
		d := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		s := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		b := blurred.PixOffset(blurred.Rect.Min.X, blurred.Rect.Min.Y+y)
		for x := 0; x < width; x++ {
			a := uint32(src.Pix[s+4*x+3])
			ba := uint32(blurred.Pix[b+4*x+3])
			px := dst.Pix[d+4*x : d+4*x+4 : d+4*x+4]
			for c := 0; c < 3; c++ {
				if ba == 0 {
					px[c] = 0
					continue
				}
				v := (uint32(blurred.Pix[b+4*x+c])*a + ba/2) / ba
				px[c] = uint8(min(v, a))
			}
			px[3] = uint8(a)
		}
	}
}

// Grey renders the luminance of src into dst
func Grey(dst, src *image.RGBA) {
	grey := effect.Grayscale(src)
	xdraw.Draw(dst, dst.Rect, grey, grey.Rect.Min, xdraw.Src)
}
