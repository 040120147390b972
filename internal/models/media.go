package models

import (
	"fmt"
	"image"
)

// MediaType tags which presentation surface an input selection drives
type MediaType string

const (
	MediaImage  MediaType = "IMAGE"
	MediaMovie  MediaType = "MOVIE"
	MediaCamera MediaType = "CAMERA"
)

// Motion reports whether the media type is presented on the motion surface
func (mt MediaType) Motion() bool {
	return mt == MediaMovie || mt == MediaCamera
}

func (mt MediaType) Valid() bool {
	switch mt {
	case MediaImage, MediaMovie, MediaCamera:
		return true
	}
	return false
}

// FrameReader pulls decoded frames from a movie or a live stream. Read blocks
// until the next frame is available; release returns the frame to its producer
// and may be nil.
type FrameReader interface {
	Read() (img image.Image, release func(), err error)
	Close() error
}

// Stream is a playable live-stream handle such as a camera or a screen
type Stream interface {
	ID() string
	Label() string
	Open() (FrameReader, error)
}

// InputSelection is the user's current input choice. It is replaced wholesale
// on every change and never mutated in place.
type InputSelection struct {
	MediaType MediaType
	URL       string
	Stream    Stream
}

// NewImageSelection selects a still image by URL
func NewImageSelection(url string) InputSelection {
	return InputSelection{MediaType: MediaImage, URL: url}
}

// NewMovieSelection selects a looping movie file by URL
func NewMovieSelection(url string) InputSelection {
	return InputSelection{MediaType: MediaMovie, URL: url}
}

// NewCameraSelection selects a live stream handle
func NewCameraSelection(stream Stream) InputSelection {
	return InputSelection{MediaType: MediaCamera, Stream: stream}
}

// Equal compares selections by media type and media identity
func (s InputSelection) Equal(other InputSelection) bool {
	return s.MediaType == other.MediaType && s.URL == other.URL && s.Stream == other.Stream
}

func (s InputSelection) Validate() error {
	if !s.MediaType.Valid() {
		return fmt.Errorf("unknown media type %q", s.MediaType)
	}
	if s.MediaType == MediaCamera {
		if s.Stream == nil {
			return fmt.Errorf("camera selection requires a stream handle")
		}
		return nil
	}
	if s.URL == "" {
		return fmt.Errorf("%s selection requires a URL", s.MediaType)
	}
	return nil
}

// Describe returns a short human-readable description for logs
func (s InputSelection) Describe() string {
	if s.Stream != nil {
		return fmt.Sprintf("%s:%s", s.MediaType, s.Stream.Label())
	}
	return fmt.Sprintf("%s:%s", s.MediaType, s.URL)
}

// SourceOption is one entry of the input selection surface
type SourceOption struct {
	Label     string
	Selection InputSelection
}

// WorkingDimensions is the downscaled size shared by every buffer of a tick
type WorkingDimensions struct {
	Width  int
	Height int
}

func (d WorkingDimensions) Empty() bool {
	return d.Width <= 0 || d.Height <= 0
}

func (d WorkingDimensions) Point() image.Point {
	return image.Pt(d.Width, d.Height)
}
