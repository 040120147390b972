package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	timingPlaceholder = "[processing time] -- ms"
	resultPlaceholder = "[result] --"
)

// StatusBar shows the per-tick timing line, the score line and the state of
// the running pipeline instance
type StatusBar struct {
	container   *fyne.Container
	timingLabel *widget.Label
	resultLabel *widget.Label
	stateLabel  *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.timingLabel = widget.NewLabel(timingPlaceholder)
	sb.resultLabel = widget.NewLabel(resultPlaceholder)
	sb.resultLabel.TextStyle = fyne.TextStyle{Monospace: true}
	sb.stateLabel = widget.NewLabel("STOPPED")
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewVBox(
		sb.resultLabel,
		container.NewHBox(
			sb.timingLabel,
			widget.NewSeparator(),
			sb.stateLabel,
		),
	)
}

// The setters must run on the fyne goroutine.

func (sb *StatusBar) SetTiming(text string) {
	sb.timingLabel.SetText(text)
}

func (sb *StatusBar) SetResult(text string) {
	sb.resultLabel.SetText(text)
}

func (sb *StatusBar) SetState(text string) {
	sb.stateLabel.SetText(text)
}

func (sb *StatusBar) Timing() string {
	return sb.timingLabel.Text
}

func (sb *StatusBar) Result() string {
	return sb.resultLabel.Text
}

func (sb *StatusBar) State() string {
	return sb.stateLabel.Text
}

func (sb *StatusBar) Reset() {
	sb.timingLabel.SetText(timingPlaceholder)
	sb.resultLabel.SetText(resultPlaceholder)
	sb.stateLabel.SetText("STOPPED")
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}
