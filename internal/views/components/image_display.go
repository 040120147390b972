package components

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 320
	ImageAreaHeight = 240
)

// ImageDisplay shows the working reference frame next to its degraded copy
type ImageDisplay struct {
	container   *fyne.Container
	source      *canvas.Image
	output      *canvas.Image
	placeholder image.Image

	hasFrames bool
}

func NewImageDisplay() *ImageDisplay {
	display := &ImageDisplay{}
	display.createComponents()
	display.setupLayout()
	return display
}

func (id *ImageDisplay) createComponents() {
	id.placeholder = placeholderImage(ImageAreaWidth, ImageAreaHeight)

	id.source = newFrameImage(id.placeholder)
	id.output = newFrameImage(id.placeholder)
}

func newFrameImage(img image.Image) *canvas.Image {
	c := canvas.NewImageFromImage(img)
	c.FillMode = canvas.ImageFillContain
	// pixel scaling shows the working resolution as is
	c.ScaleMode = canvas.ImageScalePixels
	c.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	return c
}

// placeholderImage is a light grey field with a one pixel border
func placeholderImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: 240, G: 240, B: 240, A: 255}
	border := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				img.SetRGBA(x, y, border)
			} else {
				img.SetRGBA(x, y, fill)
			}
		}
	}
	return img
}

func (id *ImageDisplay) setupLayout() {
	id.container = container.NewGridWithColumns(2,
		framePane("**Source**", id.source),
		framePane("**Output**", id.output),
	)
}

func framePane(title string, img *canvas.Image) fyne.CanvasObject {
	return container.NewBorder(
		widget.NewRichTextFromMarkdown(title),
		nil, nil, nil,
		container.NewStack(
			canvas.NewRectangle(color.RGBA{R: 252, G: 252, B: 252, A: 255}),
			img,
		),
	)
}

// SetFrames replaces both panes. It must run on the fyne goroutine.
func (id *ImageDisplay) SetFrames(reference, degraded image.Image) {
	if reference == nil || degraded == nil {
		id.Clear()
		return
	}
	id.source.Image = reference
	id.output.Image = degraded
	id.hasFrames = true
	id.source.Refresh()
	id.output.Refresh()
}

func (id *ImageDisplay) Clear() {
	id.source.Image = id.placeholder
	id.output.Image = id.placeholder
	id.hasFrames = false
	id.source.Refresh()
	id.output.Refresh()
}

func (id *ImageDisplay) HasFrames() bool {
	return id.hasFrames
}

// FrameSizes returns the pixel sizes of the shown source and output frames
func (id *ImageDisplay) FrameSizes() (source, output image.Point) {
	if !id.hasFrames {
		return image.Point{}, image.Point{}
	}
	return id.source.Image.Bounds().Size(), id.output.Image.Bounds().Size()
}

func (id *ImageDisplay) GetContainer() *fyne.Container {
	return id.container
}
