package detector

import (
	"github.com/ayusman/cornerman/internal/pose"
	"gocv.io/x/gocv"
)

// MockPersonDetector is a test implementation of the PersonDetector interface.
// It allows tests to control the detection results.
type MockPersonDetector struct {
	detections []Detection
	err        error
	calls      int
}

// NewMockPersonDetector creates a new MockPersonDetector instance.
func NewMockPersonDetector() *MockPersonDetector {
	return &MockPersonDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockPersonDetector) SetDetections(detections []Detection) {
	m.detections = detections
}

// SetError sets the error that will be returned by Detect.
func (m *MockPersonDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect was called.
func (m *MockPersonDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured detections or error.
func (m *MockPersonDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Close is a no-op for the mock detector.
func (m *MockPersonDetector) Close() error {
	return nil
}

// PoseScript returns the landmarks for the n-th Estimate call (0-based),
// or nil for "no body".
type PoseScript func(call int) *pose.LandmarkSet

// MockPoseEstimator is a test implementation of the PoseEstimator interface.
type MockPoseEstimator struct {
	script PoseScript
	err    error
	calls  int
}

// NewMockPoseEstimator creates a new MockPoseEstimator that finds no bodies.
func NewMockPoseEstimator() *MockPoseEstimator {
	return &MockPoseEstimator{}
}

// SetLandmarks makes every Estimate call return a copy of set.
func (m *MockPoseEstimator) SetLandmarks(set *pose.LandmarkSet) {
	m.script = func(int) *pose.LandmarkSet {
		if set == nil {
			return nil
		}
		cp := *set
		return &cp
	}
}

// SetScript makes Estimate return script(n) on the n-th call.
func (m *MockPoseEstimator) SetScript(script PoseScript) {
	m.script = script
}

// SetError sets the error that will be returned by Estimate.
func (m *MockPoseEstimator) SetError(err error) {
	m.err = err
}

// Calls returns how many times Estimate was called.
func (m *MockPoseEstimator) Calls() int {
	return m.calls
}

// Estimate returns the scripted landmarks or error.
func (m *MockPoseEstimator) Estimate(crop *gocv.Mat) (*pose.LandmarkSet, error) {
	call := m.calls
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.script == nil {
		return nil, nil
	}
	return m.script(call), nil
}

// Close is a no-op for the mock estimator.
func (m *MockPoseEstimator) Close() error {
	return nil
}

// PersonAt returns a person detection with the given box.
func PersonAt(xMin, yMin, xMax, yMax float64) Detection {
	return Detection{
		ClassID:    ClassPerson,
		Box:        BoundingBox{XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax},
		Confidence: 0.9,
	}
}

// GuardLandmarks returns a standing pose with both elbows bent (about 63
// degrees), a vertical torso and hips at y=0.6.
func GuardLandmarks() *pose.LandmarkSet {
	s := &pose.LandmarkSet{}

	// Head
	s.Points[pose.Nose] = pose.Point3D{X: 0.5, Y: 0.15}
	s.Points[pose.LeftEyeInner] = pose.Point3D{X: 0.49, Y: 0.13}
	s.Points[pose.LeftEye] = pose.Point3D{X: 0.48, Y: 0.13}
	s.Points[pose.LeftEyeOuter] = pose.Point3D{X: 0.47, Y: 0.13}
	s.Points[pose.RightEyeInner] = pose.Point3D{X: 0.51, Y: 0.13}
	s.Points[pose.RightEye] = pose.Point3D{X: 0.52, Y: 0.13}
	s.Points[pose.RightEyeOuter] = pose.Point3D{X: 0.53, Y: 0.13}
	s.Points[pose.LeftEar] = pose.Point3D{X: 0.45, Y: 0.14}
	s.Points[pose.RightEar] = pose.Point3D{X: 0.55, Y: 0.14}
	s.Points[pose.MouthLeft] = pose.Point3D{X: 0.48, Y: 0.18}
	s.Points[pose.MouthRight] = pose.Point3D{X: 0.52, Y: 0.18}

	// Arms held up in guard
	s.Points[pose.LeftShoulder] = pose.Point3D{X: 0.4, Y: 0.3}
	s.Points[pose.LeftElbow] = pose.Point3D{X: 0.4, Y: 0.45}
	s.Points[pose.LeftWrist] = pose.Point3D{X: 0.5, Y: 0.4}
	s.Points[pose.RightShoulder] = pose.Point3D{X: 0.6, Y: 0.3}
	s.Points[pose.RightElbow] = pose.Point3D{X: 0.6, Y: 0.45}
	s.Points[pose.RightWrist] = pose.Point3D{X: 0.5, Y: 0.4}
	setHand(s, pose.Left, s.Points[pose.LeftWrist])
	setHand(s, pose.Right, s.Points[pose.RightWrist])

	// Hips and legs
	s.Points[pose.LeftHip] = pose.Point3D{X: 0.4, Y: 0.6}
	s.Points[pose.RightHip] = pose.Point3D{X: 0.6, Y: 0.6}
	s.Points[pose.LeftKnee] = pose.Point3D{X: 0.38, Y: 0.75}
	s.Points[pose.RightKnee] = pose.Point3D{X: 0.62, Y: 0.75}
	s.Points[pose.LeftAnkle] = pose.Point3D{X: 0.37, Y: 0.9}
	s.Points[pose.RightAnkle] = pose.Point3D{X: 0.63, Y: 0.9}
	s.Points[pose.LeftHeel] = pose.Point3D{X: 0.36, Y: 0.92}
	s.Points[pose.RightHeel] = pose.Point3D{X: 0.64, Y: 0.92}
	s.Points[pose.LeftFootIndex] = pose.Point3D{X: 0.33, Y: 0.93}
	s.Points[pose.RightFootIndex] = pose.Point3D{X: 0.67, Y: 0.93}

	return s
}

// ExtendedArmLandmarks returns GuardLandmarks with the arm on the given
// side held straight out at shoulder height.
func ExtendedArmLandmarks(side pose.Side) *pose.LandmarkSet {
	s := GuardLandmarks()

	if side == pose.Left {
		s.Points[pose.LeftElbow] = pose.Point3D{X: 0.25, Y: 0.3}
		s.Points[pose.LeftWrist] = pose.Point3D{X: 0.1, Y: 0.3}
		setHand(s, pose.Left, s.Points[pose.LeftWrist])
		return s
	}

	s.Points[pose.RightElbow] = pose.Point3D{X: 0.75, Y: 0.3}
	s.Points[pose.RightWrist] = pose.Point3D{X: 0.9, Y: 0.3}
	setHand(s, pose.Right, s.Points[pose.RightWrist])
	return s
}

// GroundedLandmarks returns a pose lying on its side: the torso is nearly
// horizontal (about 1.4 degrees) and the hips are at y=0.75, with both
// elbows bent.
func GroundedLandmarks() *pose.LandmarkSet {
	s := &pose.LandmarkSet{}

	s.Points[pose.Nose] = pose.Point3D{X: 0.2, Y: 0.74}
	for _, i := range []int{
		pose.LeftEyeInner, pose.LeftEye, pose.LeftEyeOuter,
		pose.RightEyeInner, pose.RightEye, pose.RightEyeOuter,
		pose.LeftEar, pose.RightEar, pose.MouthLeft, pose.MouthRight,
	} {
		s.Points[i] = pose.Point3D{X: 0.21, Y: 0.73}
	}

	s.Points[pose.LeftShoulder] = pose.Point3D{X: 0.3, Y: 0.76}
	s.Points[pose.LeftElbow] = pose.Point3D{X: 0.25, Y: 0.65}
	s.Points[pose.LeftWrist] = pose.Point3D{X: 0.35, Y: 0.6}
	s.Points[pose.RightShoulder] = pose.Point3D{X: 0.3, Y: 0.76, Z: -0.1}
	s.Points[pose.RightElbow] = pose.Point3D{X: 0.25, Y: 0.65, Z: -0.1}
	s.Points[pose.RightWrist] = pose.Point3D{X: 0.35, Y: 0.6, Z: -0.1}
	setHand(s, pose.Left, s.Points[pose.LeftWrist])
	setHand(s, pose.Right, s.Points[pose.RightWrist])

	s.Points[pose.LeftHip] = pose.Point3D{X: 0.7, Y: 0.75}
	s.Points[pose.RightHip] = pose.Point3D{X: 0.7, Y: 0.75, Z: -0.1}
	s.Points[pose.LeftKnee] = pose.Point3D{X: 0.8, Y: 0.7}
	s.Points[pose.RightKnee] = pose.Point3D{X: 0.8, Y: 0.72, Z: -0.1}
	s.Points[pose.LeftAnkle] = pose.Point3D{X: 0.92, Y: 0.78}
	s.Points[pose.RightAnkle] = pose.Point3D{X: 0.92, Y: 0.8, Z: -0.1}
	s.Points[pose.LeftHeel] = pose.Point3D{X: 0.93, Y: 0.79}
	s.Points[pose.RightHeel] = pose.Point3D{X: 0.93, Y: 0.81, Z: -0.1}
	s.Points[pose.LeftFootIndex] = pose.Point3D{X: 0.95, Y: 0.76}
	s.Points[pose.RightFootIndex] = pose.Point3D{X: 0.95, Y: 0.78, Z: -0.1}

	return s
}

// setHand places the pinky, index and thumb points around the wrist.
func setHand(s *pose.LandmarkSet, side pose.Side, wrist pose.Point3D) {
	pinky, index, thumb := pose.RightPinky, pose.RightIndex, pose.RightThumb
	if side == pose.Left {
		pinky, index, thumb = pose.LeftPinky, pose.LeftIndex, pose.LeftThumb
	}
	s.Points[pinky] = pose.Point3D{X: wrist.X - 0.01, Y: wrist.Y - 0.02, Z: wrist.Z}
	s.Points[index] = pose.Point3D{X: wrist.X, Y: wrist.Y - 0.025, Z: wrist.Z}
	s.Points[thumb] = pose.Point3D{X: wrist.X + 0.01, Y: wrist.Y - 0.015, Z: wrist.Z}
}
