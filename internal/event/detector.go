// Package event infers strikes and takedowns from consecutive pose landmarks.
package event

import (
	"github.com/ayusman/cornerman/internal/geometry"
	"github.com/ayusman/cornerman/internal/pose"
)

// Default heuristic thresholds.
const (
	// DefaultStrikeAngle is the elbow angle, in degrees, above which an arm
	// counts as fully extended.
	DefaultStrikeAngle = 160.0
	// DefaultOrientationThreshold is how close, in degrees, the torso must be
	// to horizontal.
	DefaultOrientationThreshold = 5.0
	// DefaultVerticalThreshold is the minimum downward hip movement in
	// normalized image units between two sampled frames.
	DefaultVerticalThreshold = 0.1
)

// StrikeDetector flags arms that are nearly straight.
// It does not distinguish punch types and keeps no state between frames.
type StrikeDetector struct {
	Threshold float64
}

// NewStrikeDetector returns a StrikeDetector with the given elbow angle
// threshold. Non-positive values fall back to DefaultStrikeAngle.
func NewStrikeDetector(threshold float64) *StrikeDetector {
	if threshold <= 0 {
		threshold = DefaultStrikeAngle
	}
	return &StrikeDetector{Threshold: threshold}
}

// Extended reports whether the arm on the given side exceeds the threshold.
func (d *StrikeDetector) Extended(set *pose.LandmarkSet, side pose.Side) bool {
	arm := set.Arm(side)
	return geometry.JointAngle(arm.Shoulder, arm.Elbow, arm.Wrist) > d.Threshold
}

// Detect returns every side whose arm is extended, right first.
func (d *StrikeDetector) Detect(set *pose.LandmarkSet) []pose.Side {
	var sides []pose.Side
	for _, side := range []pose.Side{pose.Right, pose.Left} {
		if d.Extended(set, side) {
			sides = append(sides, side)
		}
	}
	return sides
}

// TakedownDetector flags a torso that went horizontal while the hip dropped.
type TakedownDetector struct {
	OrientationThreshold float64
	VerticalThreshold    float64
}

// NewTakedownDetector returns a TakedownDetector. Non-positive values fall
// back to the defaults.
func NewTakedownDetector(orientation, vertical float64) *TakedownDetector {
	if orientation <= 0 {
		orientation = DefaultOrientationThreshold
	}
	if vertical <= 0 {
		vertical = DefaultVerticalThreshold
	}
	return &TakedownDetector{
		OrientationThreshold: orientation,
		VerticalThreshold:    vertical,
	}
}

// Horizontal reports whether the torso on the given side is near horizontal.
func (d *TakedownDetector) Horizontal(set *pose.LandmarkSet, side pose.Side) bool {
	torso := set.Torso(side)
	return geometry.IsHorizontal(geometry.TorsoAngle(torso.Shoulder, torso.Hip), d.OrientationThreshold)
}

// MovedDown reports whether the hip on the given side moved down by more
// than the vertical threshold. Image Y grows downward.
func (d *TakedownDetector) MovedDown(prev, curr *pose.LandmarkSet, side pose.Side) bool {
	return curr.Torso(side).Hip.Y-prev.Torso(side).Hip.Y > d.VerticalThreshold
}

// Detect reports a takedown when both the torso is horizontal in curr and
// the hip moved down since prev.
func (d *TakedownDetector) Detect(prev, curr *pose.LandmarkSet, side pose.Side) bool {
	return d.Horizontal(curr, side) && d.MovedDown(prev, curr, side)
}
