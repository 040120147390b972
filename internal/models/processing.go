package models

import (
	"fmt"
	"math"
	"time"
)

// DegradeKind selects the distortion applied to the working frame
type DegradeKind string

const (
	DegradeBlur DegradeKind = "blur"
	DegradeGrey DegradeKind = "grey"
)

// DegradeKinds lists the kinds in display order
func DegradeKinds() []DegradeKind {
	return []DegradeKind{DegradeBlur, DegradeGrey}
}

func (k DegradeKind) Valid() bool {
	return k == DegradeBlur || k == DegradeGrey
}

// ParameterRange defines the valid range of an integer control
type ParameterRange struct {
	Min  int
	Max  int
	Step int
}

// Contains reports whether value lies on the range's step grid
func (r ParameterRange) Contains(value int) bool {
	if value < r.Min || value > r.Max {
		return false
	}
	if r.Step <= 1 {
		return true
	}
	return (value-r.Min)%r.Step == 0
}

// Snap clamps value into the range and rounds it to the nearest step
func (r ParameterRange) Snap(value float64) int {
	if value <= float64(r.Min) {
		return r.Min
	}
	if value >= float64(r.Max) {
		return r.Max
	}
	step := r.Step
	if step < 1 {
		step = 1
	}
	steps := math.Round((value - float64(r.Min)) / float64(step))
	return r.Min + int(steps)*step
}

var (
	WorkingWidthRange = ParameterRange{Min: 64, Max: 256, Step: 16}
	BlurRadiusRange   = ParameterRange{Min: 0, Max: 20, Step: 1}
)

// DegradeParameters is supplied by the parameter controls. Any change restarts
// the pipeline loop because buffer sizing depends on it.
type DegradeParameters struct {
	BlurRadiusPx       int
	WorkingWidthPx     int
	UseAcceleratedPath bool
	Kind               DegradeKind
}

// DefaultDegradeParameters mirrors the controls' initial positions
func DefaultDegradeParameters() DegradeParameters {
	return DegradeParameters{
		BlurRadiusPx:       0,
		WorkingWidthPx:     64,
		UseAcceleratedPath: false,
		Kind:               DegradeBlur,
	}
}

func (p DegradeParameters) Validate() error {
	if p.WorkingWidthPx <= 0 {
		return fmt.Errorf("working width must be positive, got %d", p.WorkingWidthPx)
	}
	if p.BlurRadiusPx < 0 {
		return fmt.Errorf("blur radius must not be negative, got %d", p.BlurRadiusPx)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("unknown degrade kind %q", p.Kind)
	}
	return nil
}

// Diff names the fields that differ between two parameter sets
func (p DegradeParameters) Diff(other DegradeParameters) []string {
	changed := make([]string, 0, 4)
	if p.BlurRadiusPx != other.BlurRadiusPx {
		changed = append(changed, "blur_radius")
	}
	if p.WorkingWidthPx != other.WorkingWidthPx {
		changed = append(changed, "working_width")
	}
	if p.UseAcceleratedPath != other.UseAcceleratedPath {
		changed = append(changed, "accelerated")
	}
	if p.Kind != other.Kind {
		changed = append(changed, "kind")
	}
	return changed
}

// MSSIM holds the mean structural similarity per RGBA channel
type MSSIM struct {
	R float64
	G float64
	B float64
	A float64
}

// ScoreResult is produced and displayed once per tick, never accumulated
type ScoreResult struct {
	PSNR  float64
	MSSIM MSSIM
}

// FrameTimingSample measures the scoring call of one tick
type FrameTimingSample struct {
	Duration time.Duration
}

// Milliseconds returns the duration as fractional milliseconds
func (s FrameTimingSample) Milliseconds() float64 {
	return float64(s.Duration) / float64(time.Millisecond)
}
