package degrade

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-score-harness/internal/models"
	"image-score-harness/internal/surface"
)

type frameSource struct {
	frame image.Image
}

func (s *frameSource) NaturalSize() image.Point {
	if s.frame == nil {
		return image.Point{}
	}
	return s.frame.Bounds().Size()
}
func (s *frameSource) DisplaySize() image.Point { return image.Point{} }
func (s *frameSource) SetDisplaySize(int, int) {}
func (s *frameSource) CurrentFrame() (image.Image, error) {
	if s.frame == nil {
		return nil, surface.ErrNoFrame
	}
	return s.frame, nil
}

type recordingAccel struct {
	calls  int
	radius int
	err    error
}

func (a *recordingAccel) Blur(src, dst *image.RGBA, radius int) error {
	a.calls++
	a.radius = radius
	if a.err != nil {
		return a.err
	}
	Copy(dst, src)
	return nil
}

func buffers(w, h int) (*surface.Buffer, *surface.Buffer) {
	scratch, output := surface.NewBuffer("tmp"), surface.NewBuffer("output")
	scratch.Resize(w, h)
	output.Resize(w, h)
	return scratch, output
}

func params(radius int) models.DegradeParameters {
	p := models.DefaultDegradeParameters()
	p.BlurRadiusPx = radius
	return p
}

func TestDegradeZeroRadiusIsIdentity(t *testing.T) {
	src := &frameSource{frame: surface.NewTestCard(640, 480)}
	scratch, output := buffers(64, 48)

	require.NoError(t, New(nil, nil).Degrade(src, scratch, output, params(0)))

	assert.Equal(t, scratch.RGBA().Pix, output.RGBA().Pix)
	assert.Equal(t, scratch.Size(), output.Size())
}

func TestDegradeBlurChangesPixels(t *testing.T) {
	src := &frameSource{frame: surface.NewTestCard(640, 480)}
	scratch, output := buffers(64, 48)

	require.NoError(t, New(nil, nil).Degrade(src, scratch, output, params(10)))

	assert.Equal(t, scratch.Size(), output.Size())
	assert.NotEqual(t, scratch.RGBA().Pix, output.RGBA().Pix)
	for i := 3; i < len(output.RGBA().Pix); i += 4 {
		require.Equal(t, uint8(255), output.RGBA().Pix[i], "blur must keep an opaque frame opaque")
	}
}

func TestBlurKeepsUniformFrameAtEveryRadius(t *testing.T) {
	c := color.RGBA{R: 100, G: 150, B: 200, A: 255}
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			src.SetRGBA(x, y, c)
		}
	}

	for _, radius := range []int{1, 5, 10, 20} {
		dst := image.NewRGBA(src.Rect)
		Blur(dst, src, radius)

		for i := 0; i < len(dst.Pix); i += 4 {
			require.Equal(t, uint8(255), dst.Pix[i+3], "radius %d", radius)
			require.InDelta(t, float64(c.R), float64(dst.Pix[i]), 1, "radius %d", radius)
			require.InDelta(t, float64(c.G), float64(dst.Pix[i+1]), 1, "radius %d", radius)
			require.InDelta(t, float64(c.B), float64(dst.Pix[i+2]), 1, "radius %d", radius)
		}
	}
}

func TestDegradeDevelopsAtScratchSize(t *testing.T) {
	src := &frameSource{frame: surface.NewTestCard(640, 480)}
	scratch, output := buffers(128, 96)

	require.NoError(t, New(nil, nil).Degrade(src, scratch, output, params(0)))

	// top-left sits inside the first colour bar
	top := scratch.RGBA().RGBAAt(0, 0)
	assert.Equal(t, surface.NewTestCard(640, 480).RGBAAt(0, 0), top)
}

func TestDegradeGrey(t *testing.T) {
	src := &frameSource{frame: surface.NewTestCard(640, 480)}
	scratch, output := buffers(64, 48)

	p := params(5)
	p.Kind = models.DegradeGrey
	require.NoError(t, New(nil, nil).Degrade(src, scratch, output, p))

	pix := output.RGBA().Pix
	for i := 0; i < len(pix); i += 4 {
		require.Equal(t, pix[i], pix[i+1])
		require.Equal(t, pix[i+1], pix[i+2])
	}
	assert.NotEqual(t, scratch.RGBA().Pix, pix)
}

func TestDegradeAcceleratedPath(t *testing.T) {
	src := &frameSource{frame: surface.NewTestCard(320, 240)}
	scratch, output := buffers(64, 48)
	accel := &recordingAccel{}

	p := params(4)
	p.UseAcceleratedPath = true
	require.NoError(t, New(accel, nil).Degrade(src, scratch, output, p))
	assert.Equal(t, 1, accel.calls)
	assert.Equal(t, 4, accel.radius)

	// radius zero never reaches the backend
	require.NoError(t, New(accel, nil).Degrade(src, scratch, output, func() models.DegradeParameters {
		p.BlurRadiusPx = 0
		return p
	}()))
	assert.Equal(t, 1, accel.calls)

	accel.err = errors.New("no device")
	p.BlurRadiusPx = 2
	assert.Error(t, New(accel, nil).Degrade(src, scratch, output, p))
}

func TestDegradeAcceleratedFallsBackWithoutBackend(t *testing.T) {
	src := &frameSource{frame: surface.NewTestCard(320, 240)}
	scratch, output := buffers(64, 48)

	p := params(3)
	p.UseAcceleratedPath = true
	require.NoError(t, New(nil, nil).Degrade(src, scratch, output, p))
	assert.NotEqual(t, scratch.RGBA().Pix, output.RGBA().Pix)
}

func TestDegradeErrors(t *testing.T) {
	d := New(nil, nil)

	scratch, output := buffers(64, 48)
	assert.ErrorIs(t, d.Degrade(&frameSource{}, scratch, output, params(0)), surface.ErrNoFrame)

	src := &frameSource{frame: surface.NewTestCard(64, 48)}
	empty := surface.NewBuffer("empty")
	assert.ErrorIs(t, d.Degrade(src, empty, output, params(0)), ErrEmptyBuffer)

	other := surface.NewBuffer("other")
	other.Resize(32, 24)
	assert.ErrorIs(t, d.Degrade(src, scratch, other, params(0)), ErrSizeMismatch)

	p := params(0)
	p.Kind = "sepia"
	assert.Error(t, d.Degrade(src, scratch, output, p))
}
