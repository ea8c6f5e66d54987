// Package detector provides person detection and pose estimation
// interfaces, a YOLO person detector, a MediaPipe pose estimator and mocks.
package detector

import (
	"errors"
	"image"

	"github.com/ayusman/cornerman/internal/pose"
	"gocv.io/x/gocv"
)

// ClassPerson is the COCO class id for people.
const ClassPerson = 0

// ErrModelNotFound is returned when a model or helper script cannot be located.
var ErrModelNotFound = errors.New("model not found")

// BoundingBox is an axis-aligned rectangle in frame pixel coordinates.
type BoundingBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// Area returns width times height.
func (b BoundingBox) Area() float64 {
	return (b.XMax - b.XMin) * (b.YMax - b.YMin)
}

// Center returns the box centroid.
func (b BoundingBox) Center() (float64, float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}

// Rect truncates the box to integer pixel coordinates.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(int(b.XMin), int(b.YMin), int(b.XMax), int(b.YMax))
}

// Detection is one object found in a frame.
type Detection struct {
	ClassID    int         `json:"class_id"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
}

// PersonDetector finds objects in a full video frame.
type PersonDetector interface {
	// Detect analyzes a frame and returns all detections, of any class.
	// Returns an empty slice if nothing is found.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// PoseEstimator extracts body landmarks from a crop around one person.
type PoseEstimator interface {
	// Estimate returns landmarks normalized to the crop's own dimensions,
	// or nil when no body is found. The crop is in the frame's BGR order;
	// implementations convert it as their model requires.
	Estimate(crop *gocv.Mat) (*pose.LandmarkSet, error)

	// Close releases any resources held by the estimator.
	Close() error
}

// Config holds configuration options for detection and pose estimation.
type Config struct {
	// ModelPath is the ONNX person detection model.
	ModelPath string

	// MinConfidence is the minimum person detection confidence (0.0-1.0).
	MinConfidence float64

	// NMSThreshold is the IoU threshold for non-maximum suppression.
	NMSThreshold float64

	// MinPoseConfidence is the minimum pose detection confidence (0.0-1.0).
	MinPoseConfidence float64

	// MinTrackingConf is the minimum pose tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath and PythonPath override discovery of the pose service.
	ScriptPath string
	PythonPath string
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		ModelPath:         "yolov8s.onnx",
		MinConfidence:     0.25,
		NMSThreshold:      0.7,
		MinPoseConfidence: 0.5,
		MinTrackingConf:   0.5,
	}
}
