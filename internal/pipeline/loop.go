// Package pipeline runs the acquire, degrade and score loop for one
// (input, parameters, scorer) tuple. A change to any element of the tuple is
// handled by stopping the instance and starting a new one, never by
// reconfiguring a running instance.
package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"image-score-harness/internal/degrade"
	"image-score-harness/internal/frameclock"
	"image-score-harness/internal/layout"
	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/score"
	"image-score-harness/internal/surface"
)

// Config is the tuple a Loop runs for plus its collaborators
type Config struct {
	Selection models.InputSelection
	Params    models.DegradeParameters
	Scorer    score.QualityScorer

	Surfaces *surface.Set
	Clock    frameclock.Scheduler
	Resolver *layout.Resolver
	Degrader *degrade.Degrader
	Display  Display
	Metrics  *Metrics
	Logger   logger.Logger
}

func (c *Config) validate() error {
	switch {
	case c.Scorer == nil:
		return errors.New("pipeline requires a scorer")
	case c.Surfaces == nil:
		return errors.New("pipeline requires surfaces")
	case c.Clock == nil:
		return errors.New("pipeline requires a frame clock")
	case c.Display == nil:
		return errors.New("pipeline requires a display")
	}
	if err := c.Selection.Validate(); err != nil {
		return err
	}
	return c.Params.Validate()
}

// Loop is one pipeline instance. Ticks run one at a time under mu, so Stop
// returning guarantees no further display update from this instance.
type Loop struct {
	id     string
	cfg    Config
	logger logger.Logger

	mu      sync.Mutex
	state   State
	pending frameclock.FrameID
	ticks   uint64
	scored  uint64
}

func New(cfg Config) (*Loop, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if cfg.Resolver == nil {
		cfg.Resolver = layout.NewResolver()
	}
	if cfg.Degrader == nil {
		cfg.Degrader = degrade.New(nil, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop{}
	}

	return &Loop{
		id:     uuid.NewString(),
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

func (l *Loop) ID() string {
	return l.id
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Ticks returns how many ticks ran and how many of them were scored
func (l *Loop) Ticks() (ran, scored uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks, l.scored
}

// Start moves the instance to RUNNING and requests its first tick
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateRunning {
		return
	}
	l.state = StateRunning
	l.schedule()
	l.cfg.Metrics.SetRunning(true)

	l.logger.Info("PipelineLoop", "pipeline started", map[string]interface{}{
		"instance":      l.id,
		"input":         l.cfg.Selection.Describe(),
		"working_width": l.cfg.Params.WorkingWidthPx,
		"blur_radius":   l.cfg.Params.BlurRadiusPx,
		"accelerated":   l.cfg.Params.UseAcceleratedPath,
		"kind":          string(l.cfg.Params.Kind),
	})
}

// Stop cancels the pending tick. It waits for a tick in progress to finish.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateStopped {
		return
	}
	l.state = StateStopped
	if l.pending != 0 {
		l.cfg.Clock.CancelFrame(l.pending)
		l.pending = 0
	}
	l.cfg.Metrics.SetRunning(false)

	l.logger.Info("PipelineLoop", "pipeline stopped", map[string]interface{}{
		"instance": l.id,
		"ticks":    l.ticks,
		"scored":   l.scored,
	})
}

func (l *Loop) schedule() {
	l.pending = l.cfg.Clock.RequestFrame(l.tick)
}

func (l *Loop) tick(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateRunning {
		return
	}
	l.pending = 0
	l.ticks++

	outcome := l.step()
	if outcome == OutcomeScored {
		l.scored++
	}
	l.cfg.Metrics.ObserveTick(outcome)

	l.schedule()
}

// step runs the body of one tick and reports what happened
func (l *Loop) step() Outcome {
	cfg := &l.cfg
	surfaces := cfg.Surfaces
	active := surfaces.Active(cfg.Selection.MediaType)

	dims := cfg.Resolver.Resolve(active, cfg.Params.WorkingWidthPx, surfaces.Output, surfaces.Scratch)
	if dims.Empty() || surfaces.Output.Empty() || surfaces.Scratch.Empty() {
		return OutcomeSkippedUnready
	}

	if err := cfg.Degrader.Degrade(active, surfaces.Scratch, surfaces.Output, cfg.Params); err != nil {
		if errors.Is(err, surface.ErrNoFrame) || errors.Is(err, degrade.ErrEmptyBuffer) {
			return OutcomeSkippedUnready
		}
		l.logger.Warning("PipelineLoop", "degrade failed", map[string]interface{}{
			"instance": l.id,
			"error":    err.Error(),
		})
		return OutcomeDegradeFailed
	}

	reference := surfaces.Scratch.RGBA()
	degraded := surfaces.Output.RGBA()
	if reference.Rect.Empty() || reference.Rect.Size() != degraded.Rect.Size() {
		return OutcomeSkippedUnpaired
	}

	start := time.Now()
	result, err := l.score()
	elapsed := time.Since(start)
	if err != nil {
		l.logger.Error("PipelineLoop", err, map[string]interface{}{
			"message":  "scoring failed, skipping tick",
			"instance": l.id,
		})
		return OutcomeScoreFailed
	}

	timing := models.FrameTimingSample{Duration: elapsed}
	cfg.Display.ShowScore(result)
	cfg.Display.ShowTiming(timing)
	if frames, ok := cfg.Display.(FrameDisplay); ok {
		frames.ShowFrames(surfaces.Scratch.Snapshot(), surfaces.Output.Snapshot())
	}
	cfg.Metrics.ObserveScore(result, elapsed)

	l.logger.Debug("PipelineLoop", "tick scored", map[string]interface{}{
		"instance": l.id,
		"width":    dims.Width,
		"height":   dims.Height,
		"psnr":     models.FormatFixed3(result.PSNR),
		"ms":       timing.Milliseconds(),
	})
	return OutcomeScored
}

// score sequences the scorer calls and converts a panic into an error
func (l *Loop) score() (result models.ScoreResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scorer panicked: %v", p)
		}
	}()

	opts := score.Options{UseAcceleratedPath: l.cfg.Params.UseAcceleratedPath}
	scorer := l.cfg.Scorer
	surfaces := l.cfg.Surfaces

	if err := scorer.SetImage(surfaces.Scratch.RGBA(), surfaces.Output.RGBA(), opts); err != nil {
		return result, fmt.Errorf("set image: %w", err)
	}
	if result.PSNR, err = scorer.PSNR(opts); err != nil {
		return result, fmt.Errorf("psnr: %w", err)
	}
	if result.MSSIM, err = scorer.MSSIM(opts); err != nil {
		return result, fmt.Errorf("mssim: %w", err)
	}
	return result, nil
}
