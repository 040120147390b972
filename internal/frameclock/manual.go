package frameclock

import "time"

// Manual delivers slots only when stepped. Tests use it to drive the
// pipeline one repaint at a time.
type Manual struct {
	*queue
	now      time.Time
	interval time.Duration
}

func NewManual() *Manual {
	return &Manual{
		queue:    newQueue(),
		now:      time.Unix(0, 0),
		interval: time.Second / DefaultRefreshRate,
	}
}

func (m *Manual) RequestFrame(cb Callback) FrameID {
	return m.request(cb)
}

func (m *Manual) CancelFrame(id FrameID) {
	m.cancel(id)
}

// Step runs one slot and returns how many callbacks ran
func (m *Manual) Step() int {
	m.now = m.now.Add(m.interval)
	return m.run(m.now)
}

// StepN runs n slots and returns the total number of callbacks that ran
func (m *Manual) StepN(n int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += m.Step()
	}
	return total
}

// Pending returns the number of requests waiting for a slot
func (m *Manual) Pending() int {
	return m.size()
}
