// Package layout derives the working dimensions of a tick from the active
// surface's natural size and applies them to every buffer downstream.
package layout

import (
	"image-score-harness/internal/models"
	"image-score-harness/internal/surface"
)

// Resizable is anything whose size follows the working dimensions
type Resizable interface {
	Resize(width, height int)
}

// Resolver is stateless; natural size is re-read on every call because it
// only becomes valid asynchronously after a source swap.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Compute scales the natural size to targetWidth, preserving aspect ratio.
// A zero natural size yields zero dimensions instead of dividing by zero.
func Compute(naturalWidth, naturalHeight, targetWidth int) models.WorkingDimensions {
	if naturalWidth <= 0 || naturalHeight <= 0 || targetWidth <= 0 {
		return models.WorkingDimensions{}
	}
	return models.WorkingDimensions{
		Width:  targetWidth,
		Height: naturalHeight * targetWidth / naturalWidth,
	}
}

// Resolve computes the working dimensions for the active surface and applies
// them to the surface itself and to every buffer given. The surface hides
// whether its natural size comes from a decoded image or a video frame.
func (r *Resolver) Resolve(active surface.Source, targetWidth int, buffers ...Resizable) models.WorkingDimensions {
	natural := active.NaturalSize()
	dims := Compute(natural.X, natural.Y, targetWidth)

	active.SetDisplaySize(dims.Width, dims.Height)
	for _, buf := range buffers {
		buf.Resize(dims.Width, dims.Height)
	}
	return dims
}
