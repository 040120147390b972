// Package surface models the presentation surfaces the harness draws from and
// into: a still-image surface, a motion surface, the visible output buffer and
// the hidden scratch buffer. The orchestrator owns one Set and passes its
// members explicitly to every component.
package surface

import (
	"errors"
	"image"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
)

// ErrNoFrame is returned when a surface has not decoded anything yet
var ErrNoFrame = errors.New("surface has no decoded frame")

// Source is a presentation surface frames can be developed from
type Source interface {
	// NaturalSize is the decoded size, zero until the first frame is available
	NaturalSize() image.Point
	// DisplaySize is the size the surface is laid out at
	DisplaySize() image.Point
	SetDisplaySize(width, height int)
	// CurrentFrame returns the latest decoded frame. The returned image is
	// never mutated afterwards.
	CurrentFrame() (image.Image, error)
}

// Set bundles the surfaces owned by the orchestrator
type Set struct {
	Still   *StillSurface
	Motion  *MotionSurface
	Output  *Buffer
	Scratch *Buffer
}

func NewSet(loader ImageLoader, opener MovieOpener, log logger.Logger) *Set {
	if log == nil {
		log = logger.Nop{}
	}
	return &Set{
		Still:   NewStillSurface(loader, log),
		Motion:  NewMotionSurface(opener, log),
		Output:  NewBuffer("output"),
		Scratch: NewBuffer("tmp"),
	}
}

// Active returns the surface that presents the given media type
func (s *Set) Active(mediaType models.MediaType) Source {
	if mediaType.Motion() {
		return s.Motion
	}
	return s.Still
}

// Release detaches every binding so no stream keeps playing
func (s *Set) Release() {
	s.Motion.Detach()
	s.Still.Clear()
}
