// Package capture reads frames from recorded video using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// ErrSourceNotOpen is returned when trying to read from a source that is not open.
var ErrSourceNotOpen = errors.New("video source is not open")

// Source defines the interface for frame sources.
type Source interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame, or io.EOF when the source is exhausted.
	// The caller is responsible for closing the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	FPS() float64
	// FrameCount is the container's frame count, which may be 0 or an
	// estimate.
	FrameCount() int
}

// VideoFile plays back a video file.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     float64
	frames  int
}

// NewVideoFile creates a source for the video at path. Nothing is opened
// until Open is called.
func NewVideoFile(path string) *VideoFile {
	return &VideoFile{path: path}
}

// Open opens the video file and reads its frame rate.
func (v *VideoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", v.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open %s: unreadable video", v.path)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		capture.Close()
		return fmt.Errorf("open %s: invalid frame rate %v", v.path, fps)
	}

	v.capture = capture
	v.fps = fps
	v.frames = int(capture.Get(gocv.VideoCaptureFrameCount))
	v.running = true

	return nil
}

// Close closes the video and releases resources.
func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}

	err := v.capture.Close()
	v.capture = nil
	v.running = false

	return err
}

// ReadFrame reads the next frame. A failed or empty read is treated as
// the end of the video.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return nil, ErrSourceNotOpen
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, io.EOF
	}

	return &mat, nil
}

// FPS returns the frame rate reported by the container, or 0 before Open.
func (v *VideoFile) FPS() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.fps
}

// FrameCount returns the container's frame count. Some containers report
// 0 or an estimate.
func (v *VideoFile) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.frames
}
