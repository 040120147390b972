package views

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"

	"image-score-harness/internal/logger"
	"image-score-harness/internal/models"
	"image-score-harness/internal/pipeline"
	"image-score-harness/internal/views/components"
)

// Controller is the part of the main controller the view drives
type Controller interface {
	SelectInput(sel models.InputSelection) error
	SetWorkingWidth(width int) error
	SetBlurRadius(radius int) error
	SetAccelerated(enabled bool) error
	SetDegradeKind(kind models.DegradeKind) error
	SourceOptions() []models.SourceOption
	Selection() models.InputSelection
	Params() models.DegradeParameters
	State() pipeline.State
}

// MainView is the harness window. It renders pipeline output; control changes
// reach the controller in arrival order on one worker goroutine.
type MainView struct {
	window        fyne.Window
	mainContainer *fyne.Container
	controls      *components.Controls
	imageDisplay  *components.ImageDisplay
	statusBar     *components.StatusBar
	logger        logger.Logger

	controller Controller
	actions    chan func() error
	done       chan struct{}
	closeOnce  sync.Once
}

func NewMainView(window fyne.Window, params models.DegradeParameters, log logger.Logger) *MainView {
	if log == nil {
		log = logger.Nop{}
	}
	mv := &MainView{
		window:  window,
		logger:  log,
		actions: make(chan func() error, 16),
		done:    make(chan struct{}),
	}

	mv.controls = components.NewControls(params)
	mv.imageDisplay = components.NewImageDisplay()
	mv.statusBar = components.NewStatusBar()
	mv.buildLayout()

	return mv
}

func (mv *MainView) buildLayout() {
	mv.mainContainer = container.NewBorder(
		nil,
		mv.statusBar.GetContainer(),
		mv.controls.GetContainer(),
		nil,
		mv.imageDisplay.GetContainer(),
	)
	mv.window.SetContent(mv.mainContainer)
}

// Connect routes control changes to ctrl and fills the input selector
func (mv *MainView) Connect(ctrl Controller) {
	mv.controller = ctrl

	mv.controls.SetInputHandler(func(opt models.SourceOption) {
		mv.enqueue(func() error { return ctrl.SelectInput(opt.Selection) })
	})
	mv.controls.SetWidthHandler(func(width int) {
		mv.enqueue(func() error { return ctrl.SetWorkingWidth(width) })
	})
	mv.controls.SetBlurHandler(func(radius int) {
		mv.enqueue(func() error { return ctrl.SetBlurRadius(radius) })
	})
	mv.controls.SetAcceleratedHandler(func(enabled bool) {
		mv.enqueue(func() error { return ctrl.SetAccelerated(enabled) })
	})
	mv.controls.SetDegradeHandler(func(kind models.DegradeKind) {
		mv.enqueue(func() error { return ctrl.SetDegradeKind(kind) })
	})

	mv.controls.SetOptions(ctrl.SourceOptions(), ctrl.Selection())
	mv.controls.SetParameters(ctrl.Params())
	mv.statusBar.SetState(ctrl.State().String())

	go mv.run()
}

func (mv *MainView) enqueue(action func() error) {
	select {
	case <-mv.done:
		return
	default:
	}
	select {
	case <-mv.done:
	case mv.actions <- action:
	}
}

func (mv *MainView) run() {
	for {
		select {
		case <-mv.done:
			return
		case action := <-mv.actions:
			if mv.closed() {
				return
			}
			if err := action(); err != nil {
				mv.logger.Warning("MainView", "control change rejected", map[string]interface{}{
					"error": err.Error(),
				})
				mv.revert(err)
			}
			state := mv.controller.State().String()
			fyne.Do(func() {
				mv.statusBar.SetState(state)
			})
		}
	}
}

func (mv *MainView) closed() bool {
	select {
	case <-mv.done:
		return true
	default:
		return false
	}
}

// revert restores the widgets to the controller's state after a failure
func (mv *MainView) revert(err error) {
	ctrl := mv.controller
	options, current, params := ctrl.SourceOptions(), ctrl.Selection(), ctrl.Params()
	fyne.Do(func() {
		mv.controls.SetOptions(options, current)
		mv.controls.SetParameters(params)
		dialog.ShowError(err, mv.window)
	})
}

// RefreshSources reloads the input selector; callable from any goroutine
func (mv *MainView) RefreshSources() {
	if mv.controller == nil {
		return
	}
	options, current := mv.controller.SourceOptions(), mv.controller.Selection()
	fyne.Do(func() {
		mv.controls.SetOptions(options, current)
	})
}

// ShowScore renders the result line. Pipeline ticks call it off the fyne
// goroutine.
func (mv *MainView) ShowScore(result models.ScoreResult) {
	text := models.FormatScore(result)
	fyne.Do(func() {
		mv.statusBar.SetResult(text)
	})
}

func (mv *MainView) ShowTiming(sample models.FrameTimingSample) {
	text := models.FormatTiming(sample)
	fyne.Do(func() {
		mv.statusBar.SetTiming(text)
	})
}

// ShowFrames receives snapshots owned by the view
func (mv *MainView) ShowFrames(reference, degraded *image.RGBA) {
	fyne.Do(func() {
		mv.imageDisplay.SetFrames(reference, degraded)
	})
}

func (mv *MainView) ShowError(err error) {
	fyne.Do(func() {
		dialog.ShowError(err, mv.window)
	})
}

func (mv *MainView) Show() {
	fyne.Do(func() {
		mv.window.Show()
	})
}

// Shutdown stops forwarding control changes
func (mv *MainView) Shutdown() {
	mv.closeOnce.Do(func() {
		close(mv.done)
	})
}

func (mv *MainView) GetWindow() fyne.Window {
	return mv.window
}

func (mv *MainView) GetContainer() *fyne.Container {
	return mv.mainContainer
}

func (mv *MainView) Controls() *components.Controls {
	return mv.controls
}

func (mv *MainView) ImageDisplay() *components.ImageDisplay {
	return mv.imageDisplay
}

func (mv *MainView) StatusBar() *components.StatusBar {
	return mv.statusBar
}
