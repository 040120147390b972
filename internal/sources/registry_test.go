package sources

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-score-harness/internal/models"
)

type stubStream struct {
	id, label string
}

func (s *stubStream) ID() string                        { return s.id }
func (s *stubStream) Label() string                     { return s.label }
func (s *stubStream) Open() (models.FrameReader, error) { return nil, errors.New("not a device") }

type stubEnumerator struct {
	mu      sync.Mutex
	streams []models.Stream
	err     error
	panics  bool
	calls   int
}

func (e *stubEnumerator) Enumerate() ([]models.Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.panics {
		panic("driver manager exploded")
	}
	return e.streams, e.err
}

func (e *stubEnumerator) set(streams []models.Stream, err error) {
	e.mu.Lock()
	e.streams, e.err = streams, err
	e.mu.Unlock()
}

func (e *stubEnumerator) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestRegistryRefresh(t *testing.T) {
	cam := &stubStream{id: "video0", label: "Front Camera"}
	enum := &stubEnumerator{streams: []models.Stream{cam}}
	reg := NewRegistry(enum, nil)

	assert.Empty(t, reg.List())
	reg.Refresh()

	list := reg.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Front Camera", list[0].Label())

	opts := reg.Options()
	require.Len(t, opts, 1)
	assert.Equal(t, models.MediaCamera, opts[0].Selection.MediaType)
	assert.Same(t, cam, opts[0].Selection.Stream)

	// callers may mutate their copy
	list[0] = nil
	assert.NotNil(t, reg.List()[0])
}

func TestRegistryEnumerationFailureYieldsEmpty(t *testing.T) {
	enum := &stubEnumerator{streams: []models.Stream{&stubStream{id: "a", label: "A"}}}
	reg := NewRegistry(enum, nil)
	reg.Refresh()
	require.Len(t, reg.List(), 1)

	enum.set(nil, errors.New("permission denied"))
	reg.Refresh()
	assert.NotNil(t, reg.List())
	assert.Empty(t, reg.List())

	enum.panics = true
	reg.Refresh()
	assert.Empty(t, reg.List())

	assert.Empty(t, NewRegistry(nil, nil).List())
}

func TestRegistryOnChange(t *testing.T) {
	a := &stubStream{id: "a", label: "A"}
	enum := &stubEnumerator{streams: []models.Stream{a}}
	reg := NewRegistry(enum, nil)

	var seen [][]models.Stream
	reg.OnChange(func(s []models.Stream) { seen = append(seen, s) })

	reg.Refresh()
	reg.Refresh()
	require.Len(t, seen, 1)

	// same device re-enumerated keeps the original handle
	enum.set([]models.Stream{&stubStream{id: "a", label: "A"}}, nil)
	reg.Refresh()
	require.Len(t, seen, 1)
	assert.Same(t, a, reg.List()[0])

	enum.set([]models.Stream{a, &stubStream{id: "b", label: "B"}}, nil)
	reg.Refresh()
	require.Len(t, seen, 2)
	assert.Len(t, seen[1], 2)
}

func TestRegistryRunPolls(t *testing.T) {
	enum := &stubEnumerator{}
	reg := NewRegistry(enum, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return enum.Calls() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
