// Package media attaches input selections to the presentation surfaces.
package media

import (
	"fmt"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/surface"
)

// Binder drives exactly one of the still and motion surfaces per selection
// and leaves the other inert. Each Bind fully supersedes the previous one.
type Binder struct {
	surfaces *surface.Set
	logger   logger.Logger
}

func NewBinder(surfaces *surface.Set, log logger.Logger) *Binder {
	if log == nil {
		log = logger.Nop{}
	}
	return &Binder{surfaces: surfaces, logger: log}
}

func (b *Binder) Bind(sel models.InputSelection) error {
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("bind input: %w", err)
	}

	b.logger.Info("MediaBinder", "binding input", map[string]interface{}{
		"media_type": string(sel.MediaType),
		"input":      sel.Describe(),
	})

	var err error
	switch sel.MediaType {
	case models.MediaImage:
		err = b.bindImage(sel.URL)
	case models.MediaMovie:
		err = b.bindMovie(sel.URL)
	case models.MediaCamera:
		err = b.bindCamera(sel.Stream)
	}
	if err != nil {
		b.logger.Error("MediaBinder", err, map[string]interface{}{
			"message": "binding failed",
			"input":   sel.Describe(),
		})
	}
	return err
}

// Release leaves both surfaces inert
func (b *Binder) Release() {
	b.surfaces.Motion.Pause()
	b.surfaces.Release()
}

func (b *Binder) bindImage(url string) error {
	motion := b.surfaces.Motion
	motion.Pause()
	motion.Detach()
	motion.SetOnLoadedData(nil)

	b.surfaces.Still.SetSource(url)
	return nil
}

func (b *Binder) bindMovie(url string) error {
	b.surfaces.Still.Clear()

	motion := b.surfaces.Motion
	motion.Pause()
	motion.Detach()
	motion.SetLoop(true)
	motion.SetOnLoadedData(motion.Play)
	return motion.SetSource(url)
}

func (b *Binder) bindCamera(stream models.Stream) error {
	b.surfaces.Still.Clear()

	motion := b.surfaces.Motion
	motion.Pause()
	motion.SetLoop(false)
	motion.SetOnLoadedData(motion.Play)
	// SetStream detaches any URL binding first
	return motion.SetStream(stream)
}
