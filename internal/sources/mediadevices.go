package sources

import (
	"fmt"
	"image"
	"sync"

	"github.com/pion/mediadevices/pkg/driver"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"

	"image-score-harness/internal/models"
)

// DeviceEnumerator lists the video recorders registered with the
// mediadevices driver manager. Camera and screen drivers register themselves
// when their packages are imported by the binary.
type DeviceEnumerator struct{}

func (DeviceEnumerator) Enumerate() ([]models.Stream, error) {
	drivers := driver.GetManager().Query(driver.FilterVideoRecorder())

	streams := make([]models.Stream, 0, len(drivers))
	for _, d := range drivers {
		streams = append(streams, &deviceStream{driver: d})
	}
	return streams, nil
}

type deviceStream struct {
	driver driver.Driver
}

func (s *deviceStream) ID() string {
	return s.driver.ID()
}

func (s *deviceStream) Label() string {
	info := s.driver.Info()
	if info.Label != "" {
		return info.Label
	}
	return s.driver.ID()
}

// Open starts the driver and returns a reader over its frames
func (s *deviceStream) Open() (models.FrameReader, error) {
	recorder, ok := s.driver.(driver.VideoRecorder)
	if !ok {
		return nil, fmt.Errorf("device %s is not a video recorder", s.Label())
	}

	if s.driver.Status() == driver.StateClosed {
		if err := s.driver.Open(); err != nil {
			return nil, fmt.Errorf("open device %s: %w", s.Label(), err)
		}
	}

	var props prop.Media
	if all := s.driver.Properties(); len(all) > 0 {
		props = all[0]
	}

	reader, err := recorder.VideoRecord(props)
	if err != nil {
		s.driver.Close()
		return nil, fmt.Errorf("record device %s: %w", s.Label(), err)
	}
	return &deviceReader{driver: s.driver, reader: reader}, nil
}

// deviceReader closes its driver when the reader is closed
type deviceReader struct {
	driver driver.Driver
	reader video.Reader

	once sync.Once
	err  error
}

func (r *deviceReader) Read() (image.Image, func(), error) {
	return r.reader.Read()
}

func (r *deviceReader) Close() error {
	r.once.Do(func() {
		r.err = r.driver.Close()
	})
	return r.err
}
