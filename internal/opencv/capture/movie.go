// Package capture decodes movie files with OpenCV for the motion surface.
package capture

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/opencv/conversion"
)

// fallbackFPS paces files whose container reports no frame rate
const fallbackFPS = 30

// ErrClosed is returned by Read after Close
var ErrClosed = errors.New("movie reader closed")

// Opener opens movie files through gocv.VideoCaptureFile
type Opener struct {
	logger logger.Logger
}

func NewOpener(log logger.Logger) *Opener {
	if log == nil {
		log = logger.Nop{}
	}
	return &Opener{logger: log}
}

func (o *Opener) OpenMovie(url string) (models.FrameReader, error) {
	vc, err := gocv.VideoCaptureFile(url)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("capture not opened for %s", url)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || fps > 1000 {
		fps = fallbackFPS
	}

	o.logger.Debug("MovieOpener", "movie opened", map[string]interface{}{
		"url":    url,
		"fps":    fps,
		"width":  vc.Get(gocv.VideoCaptureFrameWidth),
		"height": vc.Get(gocv.VideoCaptureFrameHeight),
	})

	return &Movie{
		capture: vc,
		frame:   gocv.NewMat(),
		period:  time.Duration(float64(time.Second) / fps),
		closed:  make(chan struct{}),
	}, nil
}

// Movie reads frames at the file's own rate. Read and Close may be called from
// different goroutines; Close waits for an in-flight decode.
type Movie struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	frame   gocv.Mat
	period  time.Duration
	next    time.Time
	done    bool

	closed    chan struct{}
	closeOnce sync.Once
}

func (m *Movie) Read() (image.Image, func(), error) {
	if !m.pace() {
		return nil, nil, ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return nil, nil, ErrClosed
	}
	if ok := m.capture.Read(&m.frame); !ok || m.frame.Empty() {
		return nil, nil, io.EOF
	}

	img, err := conversion.BGRToRGBA(m.frame)
	if err != nil {
		return nil, nil, err
	}
	return img, nil, nil
}

// pace sleeps until the next frame is due and reports false once closed
func (m *Movie) pace() bool {
	m.mu.Lock()
	now := time.Now()
	wait := m.next.Sub(now)
	if m.next.IsZero() || wait < -m.period {
		m.next = now
		wait = 0
	}
	m.next = m.next.Add(m.period)
	m.mu.Unlock()

	if wait <= 0 {
		select {
		case <-m.closed:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-m.closed:
		return false
	case <-timer.C:
		return true
	}
}

// Rewind seeks back to the first frame
func (m *Movie) Rewind() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return ErrClosed
	}
	m.capture.Set(gocv.VideoCapturePosFrames, 0)
	m.next = time.Time{}
	return nil
}

func (m *Movie) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)

		m.mu.Lock()
		defer m.mu.Unlock()

		m.done = true
		if cerr := m.frame.Close(); cerr != nil {
			err = cerr
		}
		if cerr := m.capture.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
