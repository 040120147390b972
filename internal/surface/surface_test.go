package surface

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
)

type staticLoader struct {
	img   image.Image
	err   error
	delay time.Duration
}

func (l staticLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	return l.img, l.err
}

// fakeReader yields frames of a fixed size, then io.EOF after limit frames
type fakeReader struct {
	width, height int
	limit         int
	reads         atomic.Int32
	rewinds       atomic.Int32
	closed        atomic.Bool
	mu            sync.Mutex
	served        int
}

func (r *fakeReader) Read() (image.Image, func(), error) {
	if r.closed.Load() {
		return nil, nil, io.EOF
	}
	r.reads.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && r.served >= r.limit {
		return nil, nil, io.EOF
	}
	r.served++
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	img.SetRGBA(0, 0, color.RGBA{R: uint8(r.served), A: 255})
	time.Sleep(time.Millisecond)
	return img, nil, nil
}

func (r *fakeReader) Rewind() error {
	r.rewinds.Add(1)
	r.mu.Lock()
	r.served = 0
	r.mu.Unlock()
	return nil
}

func (r *fakeReader) Close() error {
	r.closed.Store(true)
	return nil
}

type fakeOpener struct {
	reader *fakeReader
	err    error
}

func (o *fakeOpener) OpenMovie(url string) (models.FrameReader, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.reader, nil
}

type fakeStream struct {
	reader *fakeReader
}

func (s *fakeStream) ID() string                        { return "fake" }
func (s *fakeStream) Label() string                     { return "Fake Camera" }
func (s *fakeStream) Open() (models.FrameReader, error) { return s.reader, nil }

func TestBufferResize(t *testing.T) {
	buf := NewBuffer("output")
	assert.True(t, buf.Empty())
	assert.Equal(t, "output", buf.Name())

	buf.Resize(64, 48)
	assert.Equal(t, image.Pt(64, 48), buf.Size())

	buf.RGBA().SetRGBA(1, 1, color.RGBA{R: 9, A: 255})
	snap := buf.Snapshot()
	assert.Equal(t, uint8(9), snap.RGBAAt(1, 1).R)

	// same size keeps content
	buf.Resize(64, 48)
	assert.Equal(t, uint8(9), buf.RGBA().RGBAAt(1, 1).R)

	// new size clears it
	buf.Resize(80, 60)
	assert.Equal(t, uint8(0), buf.RGBA().RGBAAt(1, 1).R)

	buf.Resize(-3, 10)
	assert.True(t, buf.Empty())
}

func TestCardIsOpaque(t *testing.T) {
	card := NewTestCard(64, 48)
	require.Equal(t, image.Pt(64, 48), card.Rect.Size())
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			require.Equal(t, uint8(255), card.RGBAAt(x, y).A)
		}
	}
	assert.NotEqual(t, card.RGBAAt(0, 0), card.RGBAAt(63, 0))
}

func TestStillSurfaceLoadsAsynchronously(t *testing.T) {
	s := NewStillSurface(staticLoader{img: NewTestCard(320, 240), delay: 20 * time.Millisecond}, logger.Nop{})

	var loaded atomic.Bool
	s.SetOnLoad(func() { loaded.Store(true) })
	s.SetSource("anything")

	assert.Equal(t, image.Point{}, s.NaturalSize())
	_, err := s.CurrentFrame()
	assert.ErrorIs(t, err, ErrNoFrame)

	assert.Eventually(t, loaded.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, image.Pt(320, 240), s.NaturalSize())
	assert.Equal(t, "anything", s.URL())
}

func TestStillSurfaceFailedLoadStaysEmpty(t *testing.T) {
	s := NewStillSurface(staticLoader{err: errors.New("missing")}, logger.Nop{})
	s.SetSource("missing.png")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, image.Point{}, s.NaturalSize())
}

func TestStillSurfaceClearDropsLateLoad(t *testing.T) {
	s := NewStillSurface(staticLoader{img: NewTestCard(32, 32), delay: 30 * time.Millisecond}, logger.Nop{})
	s.SetSource("slow")
	s.Clear()
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, image.Point{}, s.NaturalSize())
	assert.Empty(t, s.URL())
}

func TestFileLoaderBuiltin(t *testing.T) {
	img, err := FileLoader{}.Load(context.Background(), BuiltinImageURL)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(640, 480), img.Bounds().Size())

	_, err = FileLoader{}.Load(context.Background(), "/definitely/not/here.png")
	assert.Error(t, err)
}

func TestMotionSurfaceMovieLoadsThenPlays(t *testing.T) {
	reader := &fakeReader{width: 160, height: 90}
	m := NewMotionSurface(&fakeOpener{reader: reader}, logger.Nop{})

	var loaded atomic.Int32
	m.SetOnLoadedData(func() { loaded.Add(1) })

	require.NoError(t, m.SetSource("movie.mp4"))
	assert.Eventually(t, func() bool { return loaded.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, image.Pt(160, 90), m.NaturalSize())

	// paused after the first frame
	readsWhilePaused := reader.reads.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, readsWhilePaused, reader.reads.Load())

	m.Play()
	assert.Eventually(t, func() bool { return reader.reads.Load() > readsWhilePaused+2 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), loaded.Load())

	m.Detach()
	assert.True(t, reader.closed.Load())
	assert.Equal(t, image.Point{}, m.NaturalSize())
	assert.False(t, m.Bound())
}

func TestMotionSurfaceLoopRewinds(t *testing.T) {
	reader := &fakeReader{width: 8, height: 8, limit: 3}
	m := NewMotionSurface(&fakeOpener{reader: reader}, logger.Nop{})
	m.SetLoop(true)
	m.Play()

	require.NoError(t, m.SetSource("loop.mp4"))
	assert.Eventually(t, func() bool { return reader.rewinds.Load() >= 2 }, time.Second, time.Millisecond)
	m.Detach()
}

func TestMotionSurfaceOpenFailure(t *testing.T) {
	m := NewMotionSurface(&fakeOpener{err: errors.New("codec")}, logger.Nop{})
	assert.Error(t, m.SetSource("broken.mp4"))
	assert.False(t, m.Bound())

	noOpener := NewMotionSurface(nil, logger.Nop{})
	assert.Error(t, noOpener.SetSource("x.mp4"))
}

func TestMotionSurfaceStreamSupersedesMovie(t *testing.T) {
	movie := &fakeReader{width: 16, height: 16}
	cam := &fakeReader{width: 32, height: 24}
	m := NewMotionSurface(&fakeOpener{reader: movie}, logger.Nop{})
	m.Play()

	require.NoError(t, m.SetSource("movie.mp4"))
	assert.Eventually(t, func() bool { return m.NaturalSize() == image.Pt(16, 16) }, time.Second, time.Millisecond)

	stream := &fakeStream{reader: cam}
	require.NoError(t, m.SetStream(stream))
	assert.True(t, movie.closed.Load())
	assert.Empty(t, m.URL())
	assert.Equal(t, models.Stream(stream), m.Stream())
	assert.Eventually(t, func() bool { return m.NaturalSize() == image.Pt(32, 24) }, time.Second, time.Millisecond)

	m.Detach()
	assert.True(t, cam.closed.Load())
}

func TestSetActive(t *testing.T) {
	set := NewSet(staticLoader{}, nil, nil)
	assert.Same(t, set.Still, set.Active(models.MediaImage))
	assert.Same(t, set.Motion, set.Active(models.MediaMovie))
	assert.Same(t, set.Motion, set.Active(models.MediaCamera))
	assert.Equal(t, "tmp", set.Scratch.Name())
	set.Release()
}
