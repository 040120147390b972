package surface

import (
	"image"
	"image/draw"
	"sync"
)

// Buffer is a resizable RGBA canvas. Resizing discards the previous content,
// matching a canvas whose width or height attribute is reassigned.
type Buffer struct {
	name string
	mu   sync.RWMutex
	img  *image.RGBA
}

func NewBuffer(name string) *Buffer {
	return &Buffer{
		name: name,
		img:  image.NewRGBA(image.Rect(0, 0, 0, 0)),
	}
}

func (b *Buffer) Name() string {
	return b.name
}

// Resize reallocates the canvas when the size changes. Negative sizes clamp to zero.
func (b *Buffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.img.Rect.Dx() == width && b.img.Rect.Dy() == height {
		return
	}
	b.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (b *Buffer) Size() image.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.img.Rect.Size()
}

func (b *Buffer) Empty() bool {
	size := b.Size()
	return size.X == 0 || size.Y == 0
}

// RGBA exposes the backing image for in-place rendering. The pointer stays
// valid until the next Resize.
func (b *Buffer) RGBA() *image.RGBA {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.img
}

// Snapshot returns a deep copy that is safe to hand to another goroutine
func (b *Buffer) Snapshot() *image.RGBA {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneRGBA(b.img)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx(), src.Rect.Dy()))
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
	return dst
}
