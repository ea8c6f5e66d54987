// Package fighter picks the two analysis subjects out of a frame's detections.
package fighter

import (
	"fmt"
	"math"
	"sort"

	"github.com/ayusman/cornerman/internal/detector"
)

// Selector modes.
const (
	ModeLargest  = "largest"
	ModeCentroid = "centroid"
)

// Pair is the two selected fighters for one frame. Index 0 is Fighter 1.
type Pair [2]detector.Detection

// Selector chooses Fighter 1 and Fighter 2 from a frame's detections.
type Selector interface {
	// Select returns the pair and true, or false when fewer than two
	// people were detected.
	Select(detections []detector.Detection) (Pair, bool)
}

// New returns the selector for the given mode.
func New(mode string) (Selector, error) {
	switch mode {
	case ModeLargest, "":
		return LargestSelector{}, nil
	case ModeCentroid:
		return &CentroidSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selector mode %q", mode)
	}
}

// People filters detections down to the person class, sorted by box area,
// largest first. Equal areas keep their detection order.
func People(detections []detector.Detection) []detector.Detection {
	people := make([]detector.Detection, 0, len(detections))
	for _, d := range detections {
		if d.ClassID == detector.ClassPerson {
			people = append(people, d)
		}
	}

	sort.SliceStable(people, func(i, j int) bool {
		return people[i].Box.Area() > people[j].Box.Area()
	})

	return people
}

// LargestSelector ranks people by box area every frame: the largest is
// Fighter 1, the second largest Fighter 2. Nothing carries over between
// frames, so the labels swap whenever the size ranking does (for example
// after a takedown).
type LargestSelector struct{}

// Select implements Selector.
func (LargestSelector) Select(detections []detector.Detection) (Pair, bool) {
	people := People(detections)
	if len(people) < 2 {
		return Pair{}, false
	}
	return Pair{people[0], people[1]}, true
}

// CentroidSelector takes the two largest people like LargestSelector, then
// keeps slot labels stable by matching each box to the nearest centroid
// from the last selected pair. It is not a tracker: occlusion and
// re-entry are not handled.
type CentroidSelector struct {
	last    Pair
	hasLast bool
}

// Select implements Selector.
func (s *CentroidSelector) Select(detections []detector.Detection) (Pair, bool) {
	people := People(detections)
	if len(people) < 2 {
		return Pair{}, false
	}

	pair := Pair{people[0], people[1]}
	if s.hasLast {
		keep := distance(s.last[0], pair[0]) + distance(s.last[1], pair[1])
		swap := distance(s.last[0], pair[1]) + distance(s.last[1], pair[0])
		if swap < keep {
			pair[0], pair[1] = pair[1], pair[0]
		}
	}

	s.last = pair
	s.hasLast = true
	return pair, true
}

func distance(a, b detector.Detection) float64 {
	ax, ay := a.Box.Center()
	bx, by := b.Box.Center()
	return math.Hypot(ax-bx, ay-by)
}
