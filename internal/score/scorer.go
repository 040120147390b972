// Package score defines the quality scoring contract consumed by the pipeline
// and provides its default implementation.
package score

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
)

var (
	ErrNoImage           = errors.New("no image pair bound")
	ErrDimensionMismatch = errors.New("reference and degraded images differ in size")
	ErrEmptyImage        = errors.New("image has zero size")
)

// Options selects the computation path for a single call
type Options struct {
	UseAcceleratedPath bool
}

// QualityScorer compares a degraded image against its reference.
// SetImage must be called before every PSNR/MSSIM pair since the bound
// buffers change between ticks.
type QualityScorer interface {
	SetImage(reference, degraded *image.RGBA, opts Options) error
	PSNR(opts Options) (float64, error)
	MSSIM(opts Options) (models.MSSIM, error)
}

// Backend computes the metrics on a native library
type Backend interface {
	PSNR(reference, degraded *image.RGBA) (float64, error)
	MSSIM(reference, degraded *image.RGBA) (models.MSSIM, error)
}

// Scorer is the default QualityScorer. It computes both metrics in pure Go
// and delegates to an optional Backend when the accelerated path is requested.
type Scorer struct {
	backend Backend
	logger  logger.Logger

	mu        sync.Mutex
	reference *image.RGBA
	degraded  *image.RGBA
}

func NewScorer(backend Backend, log logger.Logger) *Scorer {
	if log == nil {
		log = logger.Nop{}
	}
	return &Scorer{backend: backend, logger: log}
}

// Accelerated reports whether a native backend is available
func (s *Scorer) Accelerated() bool {
	return s.backend != nil
}

func (s *Scorer) SetImage(reference, degraded *image.RGBA, opts Options) error {
	if reference == nil || degraded == nil {
		return ErrNoImage
	}
	if reference.Rect.Empty() || degraded.Rect.Empty() {
		return ErrEmptyImage
	}
	if reference.Rect.Size() != degraded.Rect.Size() {
		return fmt.Errorf("%w: %v vs %v", ErrDimensionMismatch, reference.Rect.Size(), degraded.Rect.Size())
	}

	s.mu.Lock()
	s.reference = reference
	s.degraded = degraded
	s.mu.Unlock()
	return nil
}

func (s *Scorer) PSNR(opts Options) (float64, error) {
	ref, deg, err := s.pair()
	if err != nil {
		return 0, err
	}
	if s.useBackend(opts) {
		return s.backend.PSNR(ref, deg)
	}
	return PSNR(ref, deg), nil
}

func (s *Scorer) MSSIM(opts Options) (models.MSSIM, error) {
	ref, deg, err := s.pair()
	if err != nil {
		return models.MSSIM{}, err
	}
	if s.useBackend(opts) {
		return s.backend.MSSIM(ref, deg)
	}
	return MSSIM(ref, deg), nil
}

func (s *Scorer) pair() (*image.RGBA, *image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reference == nil || s.degraded == nil {
		return nil, nil, ErrNoImage
	}
	return s.reference, s.degraded, nil
}

func (s *Scorer) useBackend(opts Options) bool {
	return opts.UseAcceleratedPath && s.backend != nil
}
