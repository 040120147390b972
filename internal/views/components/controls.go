package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"image-score-harness/internal/models"
)

// Controls holds the input selector and the degradation parameter widgets
type Controls struct {
	container     *fyne.Container
	inputSelect   *widget.Select
	widthSlider   *widget.Slider
	widthLabel    *widget.Label
	blurSlider    *widget.Slider
	blurLabel     *widget.Label
	accelCheck    *widget.Check
	degradeSelect *widget.Select

	options []models.SourceOption

	inputHandler   func(models.SourceOption)
	widthHandler   func(int)
	blurHandler    func(int)
	accelHandler   func(bool)
	degradeHandler func(models.DegradeKind)

	// suppress is set while widgets are updated from code so that their
	// callbacks do not echo back to the controller
	suppress bool
}

func NewControls(params models.DegradeParameters) *Controls {
	c := &Controls{}
	c.createComponents(params)
	c.buildLayout()
	return c
}

func (c *Controls) createComponents(params models.DegradeParameters) {
	c.inputSelect = widget.NewSelect(nil, c.onInput)
	c.inputSelect.PlaceHolder = "Select input"

	w := models.WorkingWidthRange
	c.widthSlider = widget.NewSlider(float64(w.Min), float64(w.Max))
	c.widthSlider.Step = float64(w.Step)
	c.widthSlider.SetValue(float64(params.WorkingWidthPx))
	c.widthLabel = widget.NewLabel(fmt.Sprintf("Width: %d px", params.WorkingWidthPx))
	c.widthSlider.OnChanged = func(v float64) {
		c.widthLabel.SetText(fmt.Sprintf("Width: %d px", w.Snap(v)))
	}
	c.widthSlider.OnChangeEnded = func(v float64) {
		if !c.suppress && c.widthHandler != nil {
			c.widthHandler(w.Snap(v))
		}
	}

	b := models.BlurRadiusRange
	c.blurSlider = widget.NewSlider(float64(b.Min), float64(b.Max))
	c.blurSlider.Step = float64(b.Step)
	c.blurSlider.SetValue(float64(params.BlurRadiusPx))
	c.blurLabel = widget.NewLabel(fmt.Sprintf("Blur: %d px", params.BlurRadiusPx))
	c.blurSlider.OnChanged = func(v float64) {
		c.blurLabel.SetText(fmt.Sprintf("Blur: %d px", b.Snap(v)))
	}
	c.blurSlider.OnChangeEnded = func(v float64) {
		if !c.suppress && c.blurHandler != nil {
			c.blurHandler(b.Snap(v))
		}
	}

	c.accelCheck = widget.NewCheck("OpenCV", func(on bool) {
		if !c.suppress && c.accelHandler != nil {
			c.accelHandler(on)
		}
	})
	c.accelCheck.SetChecked(params.UseAcceleratedPath)

	var kinds []string
	for _, k := range models.DegradeKinds() {
		kinds = append(kinds, string(k))
	}
	c.degradeSelect = widget.NewSelect(kinds, func(selected string) {
		if !c.suppress && c.degradeHandler != nil {
			c.degradeHandler(models.DegradeKind(selected))
		}
	})
	c.suppressed(func() { c.degradeSelect.SetSelected(string(params.Kind)) })
}

func (c *Controls) buildLayout() {
	c.container = container.NewVBox(
		widget.NewLabel("Input"),
		c.inputSelect,
		widget.NewSeparator(),
		c.widthLabel,
		c.widthSlider,
		c.blurLabel,
		c.blurSlider,
		widget.NewSeparator(),
		container.NewHBox(widget.NewLabel("Degrade"), c.degradeSelect, c.accelCheck),
	)
}

func (c *Controls) suppressed(fn func()) {
	c.suppress = true
	defer func() { c.suppress = false }()
	fn()
}

func (c *Controls) onInput(label string) {
	if c.suppress || c.inputHandler == nil {
		return
	}
	for _, opt := range c.options {
		if opt.Label == label {
			c.inputHandler(opt)
			return
		}
	}
}

// SetOptions replaces the input entries and keeps the current selection
// highlighted when it is still offered
func (c *Controls) SetOptions(options []models.SourceOption, current models.InputSelection) {
	c.options = options
	labels := make([]string, 0, len(options))
	selected := ""
	for _, opt := range options {
		labels = append(labels, opt.Label)
		if opt.Selection.Equal(current) {
			selected = opt.Label
		}
	}

	c.suppressed(func() {
		c.inputSelect.SetOptions(labels)
		if selected != "" {
			c.inputSelect.SetSelected(selected)
		} else {
			c.inputSelect.ClearSelected()
		}
	})
}

// Options returns the entries currently offered
func (c *Controls) Options() []models.SourceOption {
	return c.options
}

// SetParameters moves the widgets to params without firing handlers
func (c *Controls) SetParameters(params models.DegradeParameters) {
	c.suppressed(func() {
		c.widthSlider.SetValue(float64(params.WorkingWidthPx))
		c.blurSlider.SetValue(float64(params.BlurRadiusPx))
		c.accelCheck.SetChecked(params.UseAcceleratedPath)
		c.degradeSelect.SetSelected(string(params.Kind))
	})
}

func (c *Controls) SetInputHandler(handler func(models.SourceOption)) {
	c.inputHandler = handler
}

func (c *Controls) SetWidthHandler(handler func(int)) {
	c.widthHandler = handler
}

func (c *Controls) SetBlurHandler(handler func(int)) {
	c.blurHandler = handler
}

func (c *Controls) SetAcceleratedHandler(handler func(bool)) {
	c.accelHandler = handler
}

func (c *Controls) SetDegradeHandler(handler func(models.DegradeKind)) {
	c.degradeHandler = handler
}

func (c *Controls) GetContainer() *fyne.Container {
	return c.container
}
