// Package round maps a round number onto a frame range and accumulates
// the round's statistics.
package round

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ayusman/cornerman/internal/event"
)

// Default round settings.
const (
	DefaultDuration = 5 * time.Minute
	DefaultInterval = time.Second
)

// Window is the slice of a video that belongs to one round.
type Window struct {
	Number   int
	Duration time.Duration
	Interval time.Duration
	FPS      float64
}

// NewWindow returns the window for round number at the given frame rate.
func NewWindow(number int, duration, interval time.Duration, fps float64) (Window, error) {
	if number < 1 {
		return Window{}, fmt.Errorf("round number must be at least 1, got %d", number)
	}
	if duration <= 0 {
		return Window{}, fmt.Errorf("round duration must be positive, got %s", duration)
	}
	if interval <= 0 {
		return Window{}, fmt.Errorf("sampling interval must be positive, got %s", interval)
	}
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return Window{}, fmt.Errorf("invalid frame rate %v", fps)
	}

	return Window{
		Number:   number,
		Duration: duration,
		Interval: interval,
		FPS:      fps,
	}, nil
}

// StartFrame is the first frame index of the round.
func (w Window) StartFrame() int {
	return int(float64(w.Number-1) * w.Duration.Seconds() * w.FPS)
}

// EndFrame is the last frame index of the round, inclusive.
func (w Window) EndFrame() int {
	return int(float64(w.Number) * w.Duration.Seconds() * w.FPS)
}

// Step is the sampling stride in frames, never less than one.
func (w Window) Step() int {
	step := int(math.Floor(w.FPS * w.Interval.Seconds()))
	if step < 1 {
		return 1
	}
	return step
}

// Sampled reports whether frame index idx should be analyzed.
func (w Window) Sampled(idx int) bool {
	return idx >= w.StartFrame() && idx <= w.EndFrame() && idx%w.Step() == 0
}

// Past reports whether idx lies beyond the end of the round.
func (w Window) Past(idx int) bool {
	return idx > w.EndFrame()
}

// Statistics holds per-fighter counters for one round. Index 0 is Fighter 1.
type Statistics struct {
	Round      int    `json:"round"`
	Strikes    [2]int `json:"strikes"`
	Takedowns  [2]int `json:"takedowns"`
	Knockdowns [2]int `json:"knockdowns"`
}

// NewStatistics returns empty statistics for the given round.
func NewStatistics(number int) *Statistics {
	return &Statistics{Round: number}
}

// Record adds one event to the counters. Events for unknown fighter slots
// are ignored.
func (s *Statistics) Record(ev event.Event) {
	i := ev.Fighter - 1
	if i < 0 || i > 1 {
		return
	}

	switch ev.Kind {
	case event.KindStrike:
		s.Strikes[i]++
	case event.KindTakedown:
		s.Takedowns[i]++
	}
}

// Report writes the end-of-round summary. Knockdowns are not detected and
// always read zero.
func (s *Statistics) Report(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Round %d statistics:\n"+
			"Total strikes - Fighter 1: %d, Fighter 2: %d\n"+
			"Takedowns - Fighter 1: %d, Fighter 2: %d\n"+
			"Knockdowns - Fighter 1: %d, Fighter 2: %d (reserved)\n",
		s.Round,
		s.Strikes[0], s.Strikes[1],
		s.Takedowns[0], s.Takedowns[1],
		s.Knockdowns[0], s.Knockdowns[1],
	)
	return err
}
