package surface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"sync"
	"time"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
)

// detachTimeout bounds how long Detach waits for a blocked reader
const detachTimeout = 2 * time.Second

// MovieOpener opens a movie URL as a frame reader
type MovieOpener interface {
	OpenMovie(url string) (models.FrameReader, error)
}

// Rewinder is implemented by readers that can restart from the first frame
type Rewinder interface {
	Rewind() error
}

type binding struct {
	reader models.FrameReader
	cancel context.CancelFunc
	done   chan struct{}
}

// MotionSurface presents either a looping movie or a live stream. The first
// decoded frame of a binding is the "loaded data" signal; later frames only
// advance while the surface is playing.
type MotionSurface struct {
	opener MovieOpener
	logger logger.Logger

	mu       sync.Mutex
	url      string
	stream   models.Stream
	loop     bool
	playing  bool
	playGate chan struct{}
	frame    *image.RGBA
	display  image.Point
	onLoaded func()
	bind     *binding
}

func NewMotionSurface(opener MovieOpener, log logger.Logger) *MotionSurface {
	return &MotionSurface{
		opener:   opener,
		logger:   log,
		playGate: make(chan struct{}),
	}
}

// SetOnLoadedData registers the callback fired once per binding when its
// first frame has been decoded
func (m *MotionSurface) SetOnLoadedData(fn func()) {
	m.mu.Lock()
	m.onLoaded = fn
	m.mu.Unlock()
}

func (m *MotionSurface) SetLoop(loop bool) {
	m.mu.Lock()
	m.loop = loop
	m.mu.Unlock()
}

// Play lets the bound reader advance
func (m *MotionSurface) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playing {
		return
	}
	m.playing = true
	close(m.playGate)
}

// Pause freezes the surface on its current frame
func (m *MotionSurface) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.playing {
		return
	}
	m.playing = false
	m.playGate = make(chan struct{})
}

func (m *MotionSurface) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// SetSource detaches the current binding and opens a movie URL
func (m *MotionSurface) SetSource(url string) error {
	m.Detach()

	if m.opener == nil {
		return fmt.Errorf("no movie opener configured for %s", url)
	}
	reader, err := m.opener.OpenMovie(url)
	if err != nil {
		return fmt.Errorf("open movie %s: %w", url, err)
	}

	m.mu.Lock()
	m.url = url
	m.mu.Unlock()

	m.attach(reader)
	return nil
}

// SetStream detaches the current binding and attaches a live stream directly
func (m *MotionSurface) SetStream(stream models.Stream) error {
	m.Detach()

	reader, err := stream.Open()
	if err != nil {
		return fmt.Errorf("open stream %s: %w", stream.Label(), err)
	}

	m.mu.Lock()
	m.stream = stream
	m.mu.Unlock()

	m.attach(reader)
	return nil
}

func (m *MotionSurface) attach(reader models.FrameReader) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &binding{reader: reader, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.bind = b
	m.mu.Unlock()

	go m.pump(ctx, b)
}

// Detach stops the current binding, closes its reader and clears the frame
func (m *MotionSurface) Detach() {
	m.mu.Lock()
	b := m.bind
	m.bind = nil
	m.url = ""
	m.stream = nil
	m.frame = nil
	m.mu.Unlock()

	if b == nil {
		return
	}

	b.cancel()
	if err := b.reader.Close(); err != nil {
		m.logger.Warning("MotionSurface", "reader close failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	select {
	case <-b.done:
	case <-time.After(detachTimeout):
		m.logger.Warning("MotionSurface", "reader did not stop in time", map[string]interface{}{
			"timeout": detachTimeout.String(),
		})
	}
}

// Bound reports whether a reader is attached
func (m *MotionSurface) Bound() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bind != nil
}

func (m *MotionSurface) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

func (m *MotionSurface) Stream() models.Stream {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

func (m *MotionSurface) pump(ctx context.Context, b *binding) {
	defer close(b.done)

	loaded := false
	for {
		if loaded && !m.waitPlaying(ctx) {
			return
		}

		img, release, err := b.reader.Read()
		if ctx.Err() != nil {
			if release != nil {
				release()
			}
			return
		}

		if err != nil {
			if errors.Is(err, io.EOF) && m.rewind(b.reader) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				m.logger.Warning("MotionSurface", "frame read failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		frame := copyFrame(img)
		if release != nil {
			release()
		}

		m.mu.Lock()
		if m.bind != b {
			m.mu.Unlock()
			return
		}
		m.frame = frame
		var onLoaded func()
		if !loaded {
			onLoaded = m.onLoaded
		}
		m.mu.Unlock()

		if !loaded {
			loaded = true
			if onLoaded != nil {
				onLoaded()
			}
		}
	}
}

func (m *MotionSurface) waitPlaying(ctx context.Context) bool {
	m.mu.Lock()
	gate := m.playGate
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return false
	case <-gate:
		return true
	}
}

func (m *MotionSurface) rewind(reader models.FrameReader) bool {
	m.mu.Lock()
	loop := m.loop
	m.mu.Unlock()

	if !loop {
		return false
	}
	rw, ok := reader.(Rewinder)
	if !ok {
		return false
	}
	if err := rw.Rewind(); err != nil {
		m.logger.Warning("MotionSurface", "rewind failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (m *MotionSurface) NaturalSize() image.Point {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frame == nil {
		return image.Point{}
	}
	return m.frame.Rect.Size()
}

func (m *MotionSurface) DisplaySize() image.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.display
}

func (m *MotionSurface) SetDisplaySize(width, height int) {
	m.mu.Lock()
	m.display = image.Pt(max(width, 0), max(height, 0))
	m.mu.Unlock()
}

func (m *MotionSurface) CurrentFrame() (image.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frame == nil {
		return nil, ErrNoFrame
	}
	return m.frame, nil
}

// copyFrame detaches a decoded frame from its producer's memory
func copyFrame(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return dst
}
