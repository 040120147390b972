package surface

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"image-score-harness/internal/logger"
)

// BuiltinImageURL names the generated default still image
const BuiltinImageURL = "builtin:testcard"

// ImageLoader decodes a still image from a URL
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// FileLoader decodes local files and the built-in test card
type FileLoader struct{}

func (FileLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if url == BuiltinImageURL {
		return NewTestCard(640, 480), nil
	}

	path := strings.TrimPrefix(url, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// StillSurface presents a single decoded image. Loading is asynchronous and
// the natural size reads zero until decoding completes.
type StillSurface struct {
	loader ImageLoader
	logger logger.Logger

	mu      sync.RWMutex
	url     string
	img     image.Image
	display image.Point
	gen     uint64
	cancel  context.CancelFunc
	onLoad  func()
}

func NewStillSurface(loader ImageLoader, log logger.Logger) *StillSurface {
	if loader == nil {
		loader = FileLoader{}
	}
	return &StillSurface{loader: loader, logger: log}
}

// SetOnLoad registers a callback fired after each successful decode
func (s *StillSurface) SetOnLoad(fn func()) {
	s.mu.Lock()
	s.onLoad = fn
	s.mu.Unlock()
}

// SetSource starts loading url, superseding any load still in flight
func (s *StillSurface) SetSource(url string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.url = url
	s.img = nil
	s.mu.Unlock()

	go s.load(ctx, gen, url)
}

func (s *StillSurface) load(ctx context.Context, gen uint64, url string) {
	img, err := s.loader.Load(ctx, url)
	if err != nil {
		s.logger.Error("StillSurface", err, map[string]interface{}{
			"message": "image load failed",
			"url":     url,
		})
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	s.img = img
	onLoad := s.onLoad
	s.mu.Unlock()

	size := img.Bounds().Size()
	s.logger.Debug("StillSurface", "image decoded", map[string]interface{}{
		"url":    url,
		"width":  size.X,
		"height": size.Y,
	})

	if onLoad != nil {
		onLoad()
	}
}

// Clear abandons the current image and any pending load
func (s *StillSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.url = ""
	s.img = nil
}

func (s *StillSurface) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

func (s *StillSurface) NaturalSize() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.img == nil {
		return image.Point{}
	}
	return s.img.Bounds().Size()
}

func (s *StillSurface) DisplaySize() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display
}

func (s *StillSurface) SetDisplaySize(width, height int) {
	s.mu.Lock()
	s.display = image.Pt(max(width, 0), max(height, 0))
	s.mu.Unlock()
}

func (s *StillSurface) CurrentFrame() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.img == nil {
		return nil, ErrNoFrame
	}
	return s.img, nil
}
