// Package safe holds the preconditions checked before handing Mats to OpenCV.
package safe

import (
	"fmt"

	"gocv.io/x/gocv"
)

// maxDimension bounds either side of a Mat created from a frame
const maxDimension = 32768

func ValidateMatForOperation(mat *gocv.Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}

	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

// ValidatePair checks two Mats have the same size and type
func ValidatePair(a, b *gocv.Mat, operation string) error {
	if err := ValidateMatForOperation(a, operation); err != nil {
		return err
	}
	if err := ValidateMatForOperation(b, operation); err != nil {
		return err
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return fmt.Errorf("Mat sizes differ (%dx%d vs %dx%d) for operation: %s",
			a.Cols(), a.Rows(), b.Cols(), b.Rows(), operation)
	}
	if a.Type() != b.Type() {
		return fmt.Errorf("Mat types differ (%d vs %d) for operation: %s", int(a.Type()), int(b.Type()), operation)
	}
	return nil
}

// ValidateChannels checks the channel count expected by an operation
func ValidateChannels(mat *gocv.Mat, channels int, operation string) error {
	if mat.Channels() != channels {
		return fmt.Errorf("%s requires %d channels, got %d", operation, channels, mat.Channels())
	}
	return nil
}
