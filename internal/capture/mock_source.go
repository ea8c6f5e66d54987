package capture

import (
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// MockSource plays back in-memory frames for testing
type MockSource struct {
	frames  []*gocv.Mat
	index   int
	fps     float64
	openErr error
	mu      sync.Mutex
	running bool
}

func NewMockSource(frames []*gocv.Mat, fps float64) *MockSource {
	return &MockSource{
		frames: frames,
		fps:    fps,
	}
}

// NewBlankSource returns a MockSource of count black BGR frames.
// Call CloseFrames when done.
func NewBlankSource(count, width, height int, fps float64) *MockSource {
	frames := make([]*gocv.Mat, count)
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return NewMockSource(frames, fps)
}

// SetOpenError makes Open fail with err
func (s *MockSource) SetOpenError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

func (s *MockSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *MockSource) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, ErrSourceNotOpen
	}

	if s.index >= len(s.frames) {
		return nil, io.EOF
	}

	// Clone the frame so the original isn't modified
	frame := s.frames[s.index].Clone()
	s.index++

	return &frame, nil
}

func (s *MockSource) FPS() float64   { return s.fps }
func (s *MockSource) FrameCount() int { return len(s.frames) }

// Reads returns how many frames have been handed out since Open
func (s *MockSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CloseFrames releases the backing frames
func (s *MockSource) CloseFrames() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.frames {
		f.Close()
	}
	s.frames = nil
}
