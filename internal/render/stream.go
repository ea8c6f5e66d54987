package render

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Publisher receives encoded JPEG frames.
type Publisher interface {
	PublishFrame(jpeg []byte)
}

// Stream encodes annotated frames as JPEG and hands them to a Publisher.
type Stream struct {
	pub Publisher
}

// NewStream creates a Stream renderer.
func NewStream(pub Publisher) *Stream {
	return &Stream{pub: pub}
}

// Render draws the overlay on a copy of the frame and publishes it.
func (s *Stream) Render(f *Frame) (bool, error) {
	if f.Image == nil || f.Image.Empty() {
		return false, nil
	}

	img := f.Image.Clone()
	defer img.Close()

	annotated := *f
	annotated.Image = &img
	Draw(&annotated)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return false, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close.
	jpeg := append([]byte(nil), buf.GetBytes()...)
	s.pub.PublishFrame(jpeg)

	return false, nil
}

// Close is a no-op.
func (s *Stream) Close() error {
	return nil
}
