package layout

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/surface"
)

type cardLoader struct{ w, h int }

func (l cardLoader) Load(context.Context, string) (image.Image, error) {
	return surface.NewTestCard(l.w, l.h), nil
}

func TestCompute(t *testing.T) {
	assert.Equal(t, models.WorkingDimensions{Width: 64, Height: 48}, Compute(640, 480, 64))
	assert.Equal(t, models.WorkingDimensions{Width: 256, Height: 192}, Compute(640, 480, 256))
	assert.Equal(t, models.WorkingDimensions{Width: 128, Height: 72}, Compute(1920, 1080, 128))
	// upscaling is allowed
	assert.Equal(t, models.WorkingDimensions{Width: 64, Height: 128}, Compute(32, 64, 64))
}

func TestComputeZeroNatural(t *testing.T) {
	assert.True(t, Compute(0, 0, 64).Empty())
	assert.True(t, Compute(640, 0, 64).Empty())
	assert.True(t, Compute(0, 480, 64).Empty())
	assert.True(t, Compute(640, 480, 0).Empty())
}

func TestResolveAppliesToSurfaceAndBuffers(t *testing.T) {
	set := surface.NewSet(cardLoader{w: 400, h: 300}, nil, logger.Nop{})
	set.Still.SetSource("card")
	assert.Eventually(t, func() bool { return set.Still.NaturalSize().X > 0 }, time.Second, time.Millisecond)

	dims := NewResolver().Resolve(set.Still, 80, set.Output, set.Scratch)

	assert.Equal(t, models.WorkingDimensions{Width: 80, Height: 60}, dims)
	assert.Equal(t, image.Pt(80, 60), set.Still.DisplaySize())
	assert.Equal(t, image.Pt(80, 60), set.Output.Size())
	assert.Equal(t, image.Pt(80, 60), set.Scratch.Size())
}

func TestResolveBeforeDecodeYieldsEmpty(t *testing.T) {
	set := surface.NewSet(cardLoader{w: 400, h: 300}, nil, logger.Nop{})

	dims := NewResolver().Resolve(set.Motion, 64, set.Output, set.Scratch)

	assert.True(t, dims.Empty())
	assert.True(t, set.Output.Empty())
	assert.True(t, set.Scratch.Empty())
	assert.Equal(t, image.Point{}, set.Motion.DisplaySize())
}
