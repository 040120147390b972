package conversion

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestRGBARoundTripThroughMat(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 3))
	src.SetRGBA(1, 2, color.RGBA{R: 10, G: 20, B: 30, A: 40})

	mat, err := RGBAToMat(src)
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, 4, mat.Channels())

	dst := image.NewRGBA(src.Rect)
	require.NoError(t, MatToRGBA(mat, dst))
	assert.Equal(t, src.Pix, dst.Pix)
}

func TestSubImageIsPacked(t *testing.T) {
	parent := image.NewRGBA(image.Rect(0, 0, 8, 8))
	parent.SetRGBA(3, 3, color.RGBA{R: 200, A: 255})
	sub := parent.SubImage(image.Rect(2, 2, 6, 6)).(*image.RGBA)

	mat, err := RGBAToMat(sub)
	require.NoError(t, err)
	defer mat.Close()

	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, MatToRGBA(mat, dst))
	assert.Equal(t, color.RGBA{R: 200, A: 255}, dst.RGBAAt(1, 1))
}

func TestBGRToRGBASwapsChannels(t *testing.T) {
	bgr := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1, 2, 3, 0), 2, 2, gocv.MatTypeCV8UC3)
	defer bgr.Close()

	img, err := BGRToRGBA(bgr)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 3, G: 2, B: 1, A: 255}, img.RGBAAt(0, 0))
}

func TestRejectsBadInput(t *testing.T) {
	_, err := RGBAToMat(nil)
	assert.Error(t, err)

	_, err = RGBAToMat(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)

	mat := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC4)
	defer mat.Close()
	assert.Error(t, MatToRGBA(mat, image.NewRGBA(image.Rect(0, 0, 3, 3))))
}
