// Package conversion moves pixels between Go images and OpenCV Mats.
package conversion

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	"image-score-harness/internal/opencv/safe"
)

// RGBAToMat copies img into a new CV_8UC4 Mat in RGBA channel order.
// The caller must Close the result.
func RGBAToMat(img *image.RGBA) (gocv.Mat, error) {
	if img == nil {
		return gocv.NewMat(), fmt.Errorf("input image is nil")
	}

	width, height := img.Rect.Dx(), img.Rect.Dy()
	if err := safe.ValidateDimensions(width, height, "RGBA to Mat conversion"); err != nil {
		return gocv.NewMat(), err
	}

	view, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, packed(img))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("Mat creation failed: %w", err)
	}
	defer view.Close()

	// the view may alias Go memory; the clone owns its pixels
	return view.Clone(), nil
}

// MatToRGBA writes a CV_8UC4 RGBA Mat into dst, which must have the same size
func MatToRGBA(src gocv.Mat, dst *image.RGBA) error {
	if err := safe.ValidateMatForOperation(&src, "Mat to RGBA conversion"); err != nil {
		return err
	}
	if err := safe.ValidateChannels(&src, 4, "Mat to RGBA conversion"); err != nil {
		return err
	}

	width, height := dst.Rect.Dx(), dst.Rect.Dy()
	if src.Cols() != width || src.Rows() != height {
		return fmt.Errorf("Mat %dx%d does not fit image %dx%d", src.Cols(), src.Rows(), width, height)
	}

	data := src.ToBytes()
	rowBytes := width * 4
	for y := 0; y < height; y++ {
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[off:off+rowBytes], data[y*rowBytes:(y+1)*rowBytes])
	}
	return nil
}

// BGRToRGBA converts a decoded BGR video frame into a new RGBA image
func BGRToRGBA(src gocv.Mat) (*image.RGBA, error) {
	if err := safe.ValidateMatForOperation(&src, "BGR to RGBA conversion"); err != nil {
		return nil, err
	}

	rgba := gocv.NewMat()
	defer rgba.Close()

	switch src.Channels() {
	case 3:
		gocv.CvtColor(src, &rgba, gocv.ColorBGRToRGBA)
	case 4:
		gocv.CvtColor(src, &rgba, gocv.ColorBGRAToRGBA)
	case 1:
		gocv.CvtColor(src, &rgba, gocv.ColorGrayToRGBA)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	img := image.NewRGBA(image.Rect(0, 0, rgba.Cols(), rgba.Rows()))
	if err := MatToRGBA(rgba, img); err != nil {
		return nil, err
	}
	return img, nil
}

// packed returns the pixel bytes without row padding
func packed(img *image.RGBA) []byte {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	if img.Stride == width*4 && img.Rect.Min == (image.Point{}) {
		return img.Pix[:width*height*4]
	}

	tight := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(tight, tight.Rect, img, img.Rect.Min, draw.Src)
	return tight.Pix
}
