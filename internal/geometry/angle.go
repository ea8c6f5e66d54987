// Package geometry computes joint and torso angles from pose landmarks.
// Only X and Y are used; depth is ignored.
package geometry

import (
	"math"

	"github.com/ayusman/cornerman/internal/pose"
)

// JointAngle returns the interior angle at b, in degrees, formed by the
// segments b->a and b->c. The result is always in [0, 180].
func JointAngle(a, b, c pose.Point3D) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)

	if angle > 180.0 {
		angle = 360.0 - angle
	}

	return angle
}

// TorsoAngle returns the absolute angle, in degrees, of the hip->shoulder
// line against the horizontal axis. A vertical line (equal X) is 90.
func TorsoAngle(shoulder, hip pose.Point3D) float64 {
	dx := shoulder.X - hip.X
	dy := shoulder.Y - hip.Y

	if dx == 0 {
		return 90.0
	}

	return math.Abs(math.Atan(dy/dx) * 180.0 / math.Pi)
}

// IsHorizontal reports whether a torso angle lies within threshold degrees
// of the horizontal axis.
func IsHorizontal(angle, threshold float64) bool {
	return angle < threshold || angle > 180.0-threshold
}
