package frameclock

import (
	"context"
	"sync"
	"time"
)

// DefaultRefreshRate approximates a common display refresh rate
const DefaultRefreshRate = 60

// Ticker drives slots from a time.Ticker on its own goroutine
type Ticker struct {
	*queue
	interval time.Duration
	stop     context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewTicker creates a scheduler with the given refresh rate in Hz
func NewTicker(refreshRate int) *Ticker {
	if refreshRate <= 0 {
		refreshRate = DefaultRefreshRate
	}
	return &Ticker{
		queue:    newQueue(),
		interval: time.Second / time.Duration(refreshRate),
	}
}

func (t *Ticker) RequestFrame(cb Callback) FrameID {
	return t.request(cb)
}

func (t *Ticker) CancelFrame(id FrameID) {
	t.cancel(id)
}

// Interval returns the slot spacing
func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Start begins delivering slots until ctx ends or Shutdown is called
func (t *Ticker) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.stop = cancel
	t.done = make(chan struct{})

	go t.loop(runCtx, t.done)
}

func (t *Ticker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.run(now)
		}
	}
}

// Shutdown stops slot delivery and waits for the running slot to finish
func (t *Ticker) Shutdown() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.mu.Unlock()

	if stop == nil {
		return
	}
	stop()
	<-done
}
