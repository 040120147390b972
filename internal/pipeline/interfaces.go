package pipeline

import (
	"image"

	"image-score-harness/internal/models"
)

// Display receives the per-tick status. Each call overwrites the previous
// value; nothing is accumulated.
type Display interface {
	ShowScore(result models.ScoreResult)
	ShowTiming(sample models.FrameTimingSample)
}

// FrameDisplay is implemented by displays that also present the buffers.
// The images are snapshots owned by the receiver.
type FrameDisplay interface {
	ShowFrames(reference, degraded *image.RGBA)
}

// Outcome classifies what a tick did
type Outcome string

const (
	OutcomeScored          Outcome = "scored"
	OutcomeSkippedUnready  Outcome = "skipped_unready"
	OutcomeSkippedUnpaired Outcome = "skipped_unpaired"
	OutcomeDegradeFailed   Outcome = "degrade_failed"
	OutcomeScoreFailed     Outcome = "score_failed"
)

// Outcomes lists every tick outcome
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeScored,
		OutcomeSkippedUnready,
		OutcomeSkippedUnpaired,
		OutcomeDegradeFailed,
		OutcomeScoreFailed,
	}
}

// State of a pipeline instance
type State int32

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	default:
		return "STOPPED"
	}
}
