// Package render draws fighter overlays on frames and hands them to
// preview sinks.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/cornerman/internal/pose"
	"gocv.io/x/gocv"
)

// Overlay colors. gocv takes color.RGBA and converts to BGR itself.
var (
	fighterColors = [2]color.RGBA{
		{R: 0, G: 255, B: 0, A: 0}, // Fighter 1: green
		{R: 0, G: 0, B: 255, A: 0}, // Fighter 2: blue
	}
	textColor = color.RGBA{R: 255, G: 255, B: 0, A: 0} // yellow
)

const (
	pointRadius   = 4
	lineThickness = 2
	fontScale     = 1.0
)

// textOrigins are where the strike counters are drawn, per fighter slot.
var textOrigins = [2]image.Point{{X: 10, Y: 30}, {X: 10, Y: 70}}

// Fighter is what gets drawn for one fighter slot.
type Fighter struct {
	Slot    int
	Box     image.Rectangle
	Points  []image.Point // frame pixel coordinates, nil when no pose
	Strikes int
}

// NewFighter maps landmarks from the crop into frame coordinates.
// A nil set yields a fighter with no skeleton.
func NewFighter(slot int, box image.Rectangle, set *pose.LandmarkSet, strikes int) Fighter {
	return Fighter{
		Slot:    slot,
		Box:     box,
		Points:  pose.Map(set, box),
		Strikes: strikes,
	}
}

// Frame is one annotated frame handed to a Renderer.
type Frame struct {
	Index    int
	Image    *gocv.Mat
	Fighters []Fighter
}

// Renderer consumes annotated frames.
type Renderer interface {
	// Render shows or publishes the frame. It returns true when the user
	// asked to stop.
	Render(f *Frame) (quit bool, err error)
	Close() error
}

// Draw paints boxes, skeletons and strike counters onto f.Image in place.
func Draw(f *Frame) {
	if f.Image == nil || f.Image.Empty() {
		return
	}

	for _, ft := range f.Fighters {
		i := ft.Slot - 1
		if i < 0 || i > 1 {
			continue
		}
		c := fighterColors[i]

		if !ft.Box.Empty() {
			gocv.Rectangle(f.Image, ft.Box, c, lineThickness)
		}
		if len(ft.Points) == pose.NumLandmarks {
			for _, conn := range pose.Connections {
				gocv.Line(f.Image, ft.Points[conn.From], ft.Points[conn.To], c, lineThickness)
			}
			for _, p := range ft.Points {
				gocv.Circle(f.Image, p, pointRadius, c, -1)
			}
		}

		label := fmt.Sprintf("Fighter %d Strikes: %d", ft.Slot, ft.Strikes)
		gocv.PutText(f.Image, label, textOrigins[i], gocv.FontHersheySimplex, fontScale, textColor, lineThickness)
	}
}

// Nop discards frames.
type Nop struct{}

func (Nop) Render(*Frame) (bool, error) { return false, nil }
func (Nop) Close() error                { return nil }

// Multi fans a frame out to several renderers. Quit from any of them
// stops the run.
type Multi []Renderer

func (m Multi) Render(f *Frame) (bool, error) {
	quit := false
	for _, r := range m {
		q, err := r.Render(f)
		if err != nil {
			return false, err
		}
		quit = quit || q
	}
	return quit, nil
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
