package event

import "github.com/ayusman/cornerman/internal/pose"

// Kind identifies the type of a detected event.
type Kind string

const (
	KindStrike   Kind = "strike"
	KindTakedown Kind = "takedown"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindStrike || k == KindTakedown
}

// Event is one strike or takedown attributed to a fighter slot.
type Event struct {
	Kind    Kind        `json:"kind"`
	Fighter int         `json:"fighter"`
	Sides   []pose.Side `json:"sides"`
	Frame   int         `json:"frame"`
}

// Fighter holds the per-slot state carried between sampled frames.
// Slot numbers are 1 and 2; they refer to the selector's ranking in the
// current frame, not to a tracked identity.
type Fighter struct {
	Slot         int
	TakedownSide pose.Side
	Previous     *pose.LandmarkSet
	Strikes      int
	Takedowns    int
}

// NewFighter creates the state for one fighter slot.
func NewFighter(slot int, takedownSide pose.Side) *Fighter {
	return &Fighter{
		Slot:         slot,
		TakedownSide: takedownSide,
	}
}

// Analyzer runs the strike and takedown detectors against a fighter's
// landmarks and updates its counters.
type Analyzer struct {
	strikes   *StrikeDetector
	takedowns *TakedownDetector
}

// NewAnalyzer creates an Analyzer from the two detectors.
func NewAnalyzer(strikes *StrikeDetector, takedowns *TakedownDetector) *Analyzer {
	return &Analyzer{
		strikes:   strikes,
		takedowns: takedowns,
	}
}

// Observe processes the current landmarks of one fighter at the given frame
// index and returns the events it produced.
//
// The strike counter grows by at most one per call even when both arms are
// extended. The takedown check needs the previous landmarks and is skipped
// on the first observation. The current landmarks always replace the
// previous ones afterwards.
func (a *Analyzer) Observe(f *Fighter, curr *pose.LandmarkSet, frame int) []Event {
	var events []Event

	if sides := a.strikes.Detect(curr); len(sides) > 0 {
		f.Strikes++
		events = append(events, Event{
			Kind:    KindStrike,
			Fighter: f.Slot,
			Sides:   sides,
			Frame:   frame,
		})
	}

	if f.Previous != nil && a.takedowns.Detect(f.Previous, curr, f.TakedownSide) {
		f.Takedowns++
		events = append(events, Event{
			Kind:    KindTakedown,
			Fighter: f.Slot,
			Sides:   []pose.Side{f.TakedownSide},
			Frame:   frame,
		})
	}

	f.Previous = curr

	return events
}
