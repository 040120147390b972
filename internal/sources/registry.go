// Package sources tracks the live-stream devices that can be selected as input.
package sources

import (
	"context"
	"sync"
	"time"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
)

// DefaultRefreshInterval is how often devices are re-enumerated
const DefaultRefreshInterval = 3 * time.Second

// Enumerator lists the streams currently attached to the host
type Enumerator interface {
	Enumerate() ([]models.Stream, error)
}

// Registry keeps the latest enumeration result. It is refreshed in the
// background and read synchronously by the UI.
type Registry struct {
	enumerator Enumerator
	logger     logger.Logger

	mu       sync.RWMutex
	streams  []models.Stream
	onChange []func([]models.Stream)
}

func NewRegistry(enumerator Enumerator, log logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop{}
	}
	return &Registry{enumerator: enumerator, logger: log}
}

// OnChange registers a callback invoked with the new list whenever it changes
func (r *Registry) OnChange(fn func([]models.Stream)) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

// List returns a copy of the current streams, possibly empty
func (r *Registry) List() []models.Stream {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Stream, len(r.streams))
	copy(out, r.streams)
	return out
}

// Options returns the streams as selectable camera entries
func (r *Registry) Options() []models.SourceOption {
	streams := r.List()
	opts := make([]models.SourceOption, 0, len(streams))
	for _, s := range streams {
		opts = append(opts, models.SourceOption{
			Label:     s.Label(),
			Selection: models.NewCameraSelection(s),
		})
	}
	return opts
}

// Refresh re-enumerates the devices. A failed enumeration leaves the registry
// empty instead of reporting an error.
func (r *Registry) Refresh() {
	streams, err := r.enumerate()
	if err != nil {
		r.logger.Warning("SourceRegistry", "device enumeration failed", map[string]interface{}{
			"error": err.Error(),
		})
		streams = nil
	}

	r.mu.Lock()
	if sameStreams(r.streams, streams) {
		// keep the existing handles so selections stay comparable
		r.mu.Unlock()
		return
	}
	r.streams = streams
	callbacks := append([]func([]models.Stream){}, r.onChange...)
	r.mu.Unlock()

	r.logger.Info("SourceRegistry", "device list changed", map[string]interface{}{
		"devices": len(streams),
	})
	list := r.List()
	for _, fn := range callbacks {
		fn(list)
	}
}

func (r *Registry) enumerate() (streams []models.Stream, err error) {
	if r.enumerator == nil {
		return nil, nil
	}
	defer func() {
		if p := recover(); p != nil {
			streams = nil
			err = panicError{value: p}
		}
	}()
	return r.enumerator.Enumerate()
}

// Run refreshes immediately and then every interval until ctx is done
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	r.Refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh()
		}
	}
}

func sameStreams(a, b []models.Stream) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID() != b[i].ID() || a[i].Label() != b[i].Label() {
			return false
		}
	}
	return true
}
