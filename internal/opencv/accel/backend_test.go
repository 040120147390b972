package accel

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-score-harness/internal/opencv/memory"
	"image-score-harness/internal/score"
	"image-score-harness/internal/surface"
)

func blurred(t *testing.T, b *Backend, src *image.RGBA, radius int) *image.RGBA {
	t.Helper()
	dst := image.NewRGBA(src.Rect)
	require.NoError(t, b.Blur(src, dst, radius))
	return dst
}

func TestBlurKeepsShapeAndSmooths(t *testing.T) {
	b := New(memory.NewPool(2), nil)
	defer b.Shutdown()

	card := surface.NewTestCard(64, 48)
	out := blurred(t, b, card, 4)

	assert.Equal(t, card.Rect, out.Rect)
	assert.NotEqual(t, card.Pix, out.Pix)
	assert.Equal(t, uint8(255), out.RGBAAt(10, 10).A)
}

func TestPSNRIdenticalIsInfinite(t *testing.T) {
	b := New(nil, nil)
	defer b.Shutdown()

	card := surface.NewTestCard(32, 24)
	psnr, err := b.PSNR(card, card)
	require.NoError(t, err)
	assert.True(t, math.IsInf(psnr, 1))
}

func TestBackendAgreesWithPureGo(t *testing.T) {
	b := New(nil, nil)
	defer b.Shutdown()

	card := surface.NewTestCard(64, 48)
	out := blurred(t, b, card, 3)

	want := score.PSNR(card, out)
	got, err := b.PSNR(card, out)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-3)

	wantSSIM := score.MSSIM(card, out)
	gotSSIM, err := b.MSSIM(card, out)
	require.NoError(t, err)
	assert.InDelta(t, wantSSIM.R, gotSSIM.R, 1e-3)
	assert.InDelta(t, wantSSIM.G, gotSSIM.G, 1e-3)
	assert.InDelta(t, wantSSIM.B, gotSSIM.B, 1e-3)
	assert.InDelta(t, 1.0, gotSSIM.A, 1e-3)
}

func TestDimensionMismatch(t *testing.T) {
	b := New(nil, nil)
	defer b.Shutdown()

	_, err := b.PSNR(surface.NewTestCard(32, 24), surface.NewTestCard(16, 12))
	assert.ErrorIs(t, err, score.ErrDimensionMismatch)

	_, err = b.MSSIM(surface.NewTestCard(32, 24), surface.NewTestCard(16, 12))
	assert.ErrorIs(t, err, score.ErrDimensionMismatch)
}

func TestRepeatedCallsReusePool(t *testing.T) {
	pool := memory.NewPool(0)
	b := New(pool, nil)
	defer b.Shutdown()

	ref := image.NewRGBA(image.Rect(0, 0, 16, 16))
	deg := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range deg.Pix {
		deg.Pix[i] = 8
	}
	deg.SetRGBA(0, 0, color.RGBA{A: 255})

	for i := 0; i < 3; i++ {
		_, err := b.MSSIM(ref, deg)
		require.NoError(t, err)
	}
	assert.Positive(t, pool.Stats().Hits)
}
