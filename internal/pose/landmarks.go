// Package pose defines body landmark types shared by the pose estimator,
// the event heuristics and the renderer.
package pose

import "image"

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Point3D is a landmark position normalized to the image it was estimated on.
// X and Y are in [0,1] with Y growing downward; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LandmarkSet is one body pose in one frame.
type LandmarkSet struct {
	Points [NumLandmarks]Point3D `json:"points"`
}

// Side selects the left or right half of the body.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseSide converts a config string to a Side.
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case Left:
		return Left, true
	case Right:
		return Right, true
	default:
		return "", false
	}
}

// Arm holds the three joints of one arm.
type Arm struct {
	Shoulder Point3D
	Elbow    Point3D
	Wrist    Point3D
}

// Torso holds the shoulder and hip of one side.
type Torso struct {
	Shoulder Point3D
	Hip      Point3D
}

// Arm returns the shoulder, elbow and wrist of the given side.
func (s *LandmarkSet) Arm(side Side) Arm {
	if side == Left {
		return Arm{
			Shoulder: s.Points[LeftShoulder],
			Elbow:    s.Points[LeftElbow],
			Wrist:    s.Points[LeftWrist],
		}
	}
	return Arm{
		Shoulder: s.Points[RightShoulder],
		Elbow:    s.Points[RightElbow],
		Wrist:    s.Points[RightWrist],
	}
}

// Torso returns the shoulder and hip of the given side.
func (s *LandmarkSet) Torso(side Side) Torso {
	if side == Left {
		return Torso{Shoulder: s.Points[LeftShoulder], Hip: s.Points[LeftHip]}
	}
	return Torso{Shoulder: s.Points[RightShoulder], Hip: s.Points[RightHip]}
}

// Map projects landmarks normalized to a crop back into frame pixels.
// box is the crop's rectangle in the frame. Each axis is truncated
// separately before the box offset is added.
func Map(s *LandmarkSet, box image.Rectangle) []image.Point {
	if s == nil {
		return nil
	}

	width := float64(box.Dx())
	height := float64(box.Dy())

	mapped := make([]image.Point, NumLandmarks)
	for i, p := range s.Points {
		mapped[i] = image.Point{
			X: int(p.X*width) + box.Min.X,
			Y: int(p.Y*height) + box.Min.Y,
		}
	}
	return mapped
}
