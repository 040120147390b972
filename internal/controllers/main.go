package controllers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"image-score-harness/internal/degrade"
	"image-score-harness/internal/frameclock"
	"image-score-harness/internal/layout"
	"image-score-harness/internal/logger"
	"image-score-harness/internal/media"
	"image-score-harness/internal/models"
	"image-score-harness/internal/pipeline"
	"image-score-harness/internal/score"
	"image-score-harness/internal/surface"
)

// Labels of the fixed input options
const (
	ImageOptionLabel = "image"
	MovieOptionLabel = "movie"
)

// SourceLister supplies the device entries of the input selection surface
type SourceLister interface {
	Options() []models.SourceOption
}

// Options wires the controller's collaborators
type Options struct {
	Surfaces *surface.Set
	Clock    frameclock.Scheduler
	Scorer   score.QualityScorer
	Degrader *degrade.Degrader
	Display  pipeline.Display
	Sources  SourceLister
	Metrics  *pipeline.Metrics
	Logger   logger.Logger

	ImageURL string
	MovieURL string
	Params   models.DegradeParameters
}

// MainController owns the surfaces, the current selection and parameters and
// the running pipeline instance. Every change to the running tuple stops the
// current instance and starts a fresh one.
type MainController struct {
	surfaces *surface.Set
	clock    frameclock.Scheduler
	degrader *degrade.Degrader
	resolver *layout.Resolver
	binder   *media.Binder
	sources  SourceLister
	metrics  *pipeline.Metrics
	logger   logger.Logger

	imageURL string
	movieURL string

	mu        sync.Mutex
	selection models.InputSelection
	params    models.DegradeParameters
	scorer    score.QualityScorer
	display   pipeline.Display
	loop      *pipeline.Loop
	restarts  int
	closed    bool
}

func NewMainController(opts Options) (*MainController, error) {
	if opts.Surfaces == nil || opts.Clock == nil || opts.Scorer == nil {
		return nil, errors.New("controller requires surfaces, a frame clock and a scorer")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop{}
	}
	if opts.Degrader == nil {
		opts.Degrader = degrade.New(nil, opts.Logger)
	}
	if opts.ImageURL == "" {
		opts.ImageURL = surface.BuiltinImageURL
	}
	if opts.Params == (models.DegradeParameters{}) {
		opts.Params = models.DefaultDegradeParameters()
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, fmt.Errorf("initial parameters: %w", err)
	}

	return &MainController{
		surfaces:  opts.Surfaces,
		clock:     opts.Clock,
		degrader:  opts.Degrader,
		resolver:  layout.NewResolver(),
		binder:    media.NewBinder(opts.Surfaces, opts.Logger),
		sources:   opts.Sources,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		imageURL:  opts.ImageURL,
		movieURL:  opts.MovieURL,
		selection: models.NewImageSelection(opts.ImageURL),
		params:    opts.Params,
		scorer:    opts.Scorer,
		display:   opts.Display,
	}, nil
}

// Start binds the initial selection and starts the first pipeline instance
func (mc *MainController) Start() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.closed {
		return errors.New("controller is shut down")
	}
	if mc.loop != nil {
		return nil
	}

	bindErr := mc.binder.Bind(mc.selection)
	if err := mc.startLocked(); err != nil {
		return err
	}
	return bindErr
}

// SelectInput replaces the current selection
func (mc *MainController) SelectInput(sel models.InputSelection) error {
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("select input: %w", err)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.closed {
		return errors.New("controller is shut down")
	}
	if mc.selection.Equal(sel) {
		return nil
	}
	mc.selection = sel

	if mc.loop == nil {
		return nil
	}
	mc.stopLocked()
	bindErr := mc.binder.Bind(sel)
	if err := mc.restartLocked("input"); err != nil {
		return err
	}
	return bindErr
}

func (mc *MainController) SetWorkingWidth(width int) error {
	return mc.updateParams(func(p *models.DegradeParameters) { p.WorkingWidthPx = width })
}

func (mc *MainController) SetBlurRadius(radius int) error {
	return mc.updateParams(func(p *models.DegradeParameters) { p.BlurRadiusPx = radius })
}

func (mc *MainController) SetAccelerated(enabled bool) error {
	return mc.updateParams(func(p *models.DegradeParameters) { p.UseAcceleratedPath = enabled })
}

func (mc *MainController) SetDegradeKind(kind models.DegradeKind) error {
	return mc.updateParams(func(p *models.DegradeParameters) { p.Kind = kind })
}

// SetScorer swaps the scorer instance, restarting the pipeline
func (mc *MainController) SetScorer(scorer score.QualityScorer) error {
	if scorer == nil {
		return errors.New("scorer must not be nil")
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.scorer == scorer {
		return nil
	}
	mc.scorer = scorer
	return mc.restartLocked("scorer")
}

// SetDisplay redirects status output to display
func (mc *MainController) SetDisplay(display pipeline.Display) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.display == display {
		return nil
	}
	mc.display = display
	return mc.restartLocked("display")
}

func (mc *MainController) updateParams(apply func(*models.DegradeParameters)) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	next := mc.params
	apply(&next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("update parameters: %w", err)
	}

	changed := mc.params.Diff(next)
	if len(changed) == 0 {
		return nil
	}
	mc.params = next
	return mc.restartLocked(strings.Join(changed, ","))
}

// restartLocked replaces a running instance; it is a no-op before Start
func (mc *MainController) restartLocked(reason string) error {
	if mc.loop == nil || mc.closed {
		return nil
	}

	previous := mc.loop.ID()
	mc.stopLocked()
	if err := mc.startLocked(); err != nil {
		return err
	}

	mc.restarts++
	mc.metrics.ObserveRestart(reason)
	mc.logger.Info("MainController", "pipeline restarted", map[string]interface{}{
		"reason":   reason,
		"previous": previous,
		"instance": mc.loop.ID(),
	})
	return nil
}

func (mc *MainController) stopLocked() {
	if mc.loop != nil {
		mc.loop.Stop()
	}
}

func (mc *MainController) startLocked() error {
	display := mc.display
	if display == nil {
		display = pipeline.NewLogDisplay(mc.logger, pipeline.DefaultLogInterval)
		mc.display = display
	}

	loop, err := pipeline.New(pipeline.Config{
		Selection: mc.selection,
		Params:    mc.params,
		Scorer:    mc.scorer,
		Surfaces:  mc.surfaces,
		Clock:     mc.clock,
		Resolver:  mc.resolver,
		Degrader:  mc.degrader,
		Display:   display,
		Metrics:   mc.metrics,
		Logger:    mc.logger,
	})
	if err != nil {
		return fmt.Errorf("start pipeline: %w", err)
	}
	mc.loop = loop
	loop.Start()
	return nil
}

// SourceOptions lists the fixed entries followed by the discovered devices
func (mc *MainController) SourceOptions() []models.SourceOption {
	opts := []models.SourceOption{{
		Label:     ImageOptionLabel,
		Selection: models.NewImageSelection(mc.imageURL),
	}}
	if mc.movieURL != "" {
		opts = append(opts, models.SourceOption{
			Label:     MovieOptionLabel,
			Selection: models.NewMovieSelection(mc.movieURL),
		})
	}
	if mc.sources != nil {
		opts = append(opts, mc.sources.Options()...)
	}
	return opts
}

func (mc *MainController) Selection() models.InputSelection {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.selection
}

func (mc *MainController) Params() models.DegradeParameters {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.params
}

// Restarts counts pipeline replacements since Start
func (mc *MainController) Restarts() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.restarts
}

// Pipeline returns the running instance, nil before Start
func (mc *MainController) Pipeline() *pipeline.Loop {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.loop
}

// State reports the running instance's state, STOPPED before Start
func (mc *MainController) State() pipeline.State {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.loop == nil {
		return pipeline.StateStopped
	}
	return mc.loop.State()
}

func (mc *MainController) Surfaces() *surface.Set {
	return mc.surfaces
}

// Shutdown stops the pipeline and releases every media binding
func (mc *MainController) Shutdown() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.closed {
		return
	}
	mc.closed = true
	mc.stopLocked()
	mc.binder.Release()

	mc.logger.Info("MainController", "controller shut down", map[string]interface{}{
		"restarts": mc.restarts,
	})
}
