package components

import (
	"image"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-score-harness/internal/models"
)

func TestControlsSnapSliderValues(t *testing.T) {
	test.NewTempApp(t)

	c := NewControls(models.DefaultDegradeParameters())
	var widths, radii []int
	c.SetWidthHandler(func(w int) { widths = append(widths, w) })
	c.SetBlurHandler(func(r int) { radii = append(radii, r) })

	c.widthSlider.OnChangeEnded(100)
	c.widthSlider.OnChangeEnded(1000)
	c.blurSlider.OnChangeEnded(3.4)

	assert.Equal(t, []int{96, 256}, widths)
	assert.Equal(t, []int{3}, radii)
}

func TestControlsSetParametersDoesNotEcho(t *testing.T) {
	test.NewTempApp(t)

	c := NewControls(models.DefaultDegradeParameters())
	calls := 0
	c.SetAcceleratedHandler(func(bool) { calls++ })
	c.SetDegradeHandler(func(models.DegradeKind) { calls++ })

	c.SetParameters(models.DegradeParameters{
		WorkingWidthPx:     128,
		BlurRadiusPx:       5,
		UseAcceleratedPath: true,
		Kind:               models.DegradeGrey,
	})

	assert.Zero(t, calls)
	assert.Equal(t, 128.0, c.widthSlider.Value)
	assert.Equal(t, 5.0, c.blurSlider.Value)
	assert.True(t, c.accelCheck.Checked)
	assert.Equal(t, "grey", c.degradeSelect.Selected)

	c.accelCheck.SetChecked(false)
	assert.Equal(t, 1, calls)
}

func TestControlsInputSelection(t *testing.T) {
	test.NewTempApp(t)

	c := NewControls(models.DefaultDegradeParameters())
	still := models.NewImageSelection("builtin:testcard")
	movie := models.NewMovieSelection("clip.mp4")
	c.SetOptions([]models.SourceOption{
		{Label: "image", Selection: still},
		{Label: "movie", Selection: movie},
	}, still)
	assert.Equal(t, "image", c.inputSelect.Selected)

	var picked []models.SourceOption
	c.SetInputHandler(func(opt models.SourceOption) { picked = append(picked, opt) })

	c.inputSelect.SetSelected("movie")
	require.Len(t, picked, 1)
	assert.True(t, picked[0].Selection.Equal(movie))

	// a refresh that drops the selected entry clears the selector silently
	c.SetOptions([]models.SourceOption{{Label: "image", Selection: still}}, movie)
	assert.Empty(t, c.inputSelect.Selected)
	assert.Len(t, picked, 1)
}

func TestImageDisplayFrames(t *testing.T) {
	test.NewTempApp(t)

	d := NewImageDisplay()
	assert.False(t, d.HasFrames())

	ref := image.NewRGBA(image.Rect(0, 0, 64, 48))
	deg := image.NewRGBA(image.Rect(0, 0, 64, 48))
	d.SetFrames(ref, deg)

	src, out := d.FrameSizes()
	assert.True(t, d.HasFrames())
	assert.Equal(t, image.Pt(64, 48), src)
	assert.Equal(t, image.Pt(64, 48), out)

	d.Clear()
	assert.False(t, d.HasFrames())
}

func TestStatusBarReset(t *testing.T) {
	test.NewTempApp(t)

	sb := NewStatusBar()
	sb.SetResult("[result] psnr:30.000")
	sb.SetTiming("[processing time] 4.000 ms")
	assert.Equal(t, "[result] psnr:30.000", sb.Result())
	assert.Equal(t, "[processing time] 4.000 ms", sb.Timing())

	sb.Reset()
	assert.Equal(t, resultPlaceholder, sb.Result())
	assert.Equal(t, timingPlaceholder, sb.Timing())
}
