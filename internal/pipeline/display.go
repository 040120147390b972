package pipeline

import (
	"sync"
	"time"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
)

// DefaultLogInterval limits headless status output to one line pair per second
const DefaultLogInterval = time.Second

// LogDisplay renders the status lines to the logger. It keeps the latest
// lines and emits them at most once per interval.
type LogDisplay struct {
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	score   string
	timing  string
	emitted time.Time
	updates int
}

func NewLogDisplay(log logger.Logger, interval time.Duration) *LogDisplay {
	if log == nil {
		log = logger.Nop{}
	}
	if interval < 0 {
		interval = DefaultLogInterval
	}
	return &LogDisplay{logger: log, interval: interval, now: time.Now}
}

func (d *LogDisplay) ShowScore(result models.ScoreResult) {
	d.mu.Lock()
	d.score = models.FormatScore(result)
	d.updates++
	d.mu.Unlock()
}

// ShowTiming completes a tick's pair and emits it when the interval elapsed
func (d *LogDisplay) ShowTiming(sample models.FrameTimingSample) {
	d.mu.Lock()
	d.timing = models.FormatTiming(sample)
	d.updates++

	now := d.now()
	if now.Sub(d.emitted) < d.interval {
		d.mu.Unlock()
		return
	}
	d.emitted = now
	score, timing := d.score, d.timing
	d.mu.Unlock()

	d.logger.Info("Display", score, nil)
	d.logger.Info("Display", timing, nil)
}

// Latest returns the current status lines
func (d *LogDisplay) Latest() (score, timing string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.score, d.timing
}

// Updates counts every Show call received
func (d *LogDisplay) Updates() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updates
}
