package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/ayusman/cornerman/internal/pose"
	"github.com/ayusman/cornerman/internal/render"
	"github.com/ayusman/cornerman/internal/round"
	"gocv.io/x/gocv"
)

// Run analyzes the configured round and returns its statistics.
//
// Pipeline logic:
// 1. Open the source and derive the round's frame window from its FPS
// 2. Read frames in order; stop at end of video or past the round
// 3. Analyze one frame per sampling interval inside the window
// 4. Detect people and select Fighter 1 and Fighter 2
// 5. Estimate each fighter's pose on its crop and run the heuristics
// 6. Render the annotated frame; a quit request ends the run
//
// Ending early by quit key or context cancellation is not an error: the
// statistics gathered so far are returned. Failing to open the video
// returns ErrOpenVideo and no statistics. Detector and estimator errors
// abort the run.
func (a *App) Run(ctx context.Context) (*round.Statistics, error) {
	if err := a.source.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenVideo, err)
	}
	defer a.source.Close()

	window, err := round.NewWindow(a.config.Round, a.config.RoundDuration, a.config.SampleInterval, a.source.FPS())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenVideo, err)
	}

	a.log.Info().
		Float64("fps", window.FPS).
		Int("frame_count", a.source.FrameCount()).
		Int("start_frame", window.StartFrame()).
		Int("end_frame", window.EndFrame()).
		Int("step", window.Step()).
		Msg("round analysis started")

	stats := round.NewStatistics(a.config.Round)
	sampled := 0

	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			a.log.Info().Int("frame", idx).Msg("analysis cancelled")
			break
		}

		if window.Past(idx) {
			break
		}

		frame, err := a.source.ReadFrame()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", idx, err)
		}
		a.metrics.framesRead.Add(ctx, 1)

		if !window.Sampled(idx) {
			frame.Close()
			continue
		}
		sampled++
		a.metrics.framesSampled.Add(ctx, 1)

		quit, err := a.processFrame(ctx, frame, idx, stats)
		frame.Close()
		if err != nil {
			return nil, err
		}
		if quit {
			a.log.Info().Int("frame", idx).Msg("quit requested")
			break
		}
	}

	a.log.Info().
		Int("sampled", sampled).
		Ints("strikes", stats.Strikes[:]).
		Ints("takedowns", stats.Takedowns[:]).
		Msg("round analysis finished")

	return stats, nil
}

// processFrame runs detection, selection, pose estimation and heuristics on
// one sampled frame.
func (a *App) processFrame(ctx context.Context, frame *gocv.Mat, idx int, stats *round.Statistics) (bool, error) {
	img, err := a.resize(frame)
	if err != nil {
		return false, err
	}
	defer img.Close()

	detections, err := a.persons.Detect(&img)
	if err != nil {
		return false, fmt.Errorf("detect people in frame %d: %w", idx, err)
	}

	pair, ok := a.selector.Select(detections)
	if !ok {
		a.metrics.framesSkipped.Add(ctx, 1)
		a.log.Debug().Int("frame", idx).Int("detections", len(detections)).Msg("fewer than two people")
		return false, nil
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	overlays := make([]render.Fighter, 0, len(pair))

	for i, det := range pair {
		f := a.fighters[i]
		box := det.Box.Rect().Intersect(bounds)

		set, err := a.estimate(&img, box)
		if err != nil {
			return false, fmt.Errorf("estimate pose of fighter %d in frame %d: %w", f.Slot, idx, err)
		}

		if set != nil {
			for _, ev := range a.analyzer.Observe(f, set, idx) {
				stats.Record(ev)
				a.metrics.recordEvent(ctx, ev)
				if a.events != nil {
					a.events.PublishEvent(ev)
				}
				a.log.Info().
					Str("kind", string(ev.Kind)).
					Int("fighter", ev.Fighter).
					Strs("sides", sideNames(ev.Sides)).
					Int("frame", ev.Frame).
					Msg("event detected")
			}
		}

		overlays = append(overlays, render.NewFighter(f.Slot, box, set, f.Strikes))
	}

	quit, err := a.renderer.Render(&render.Frame{
		Index:    idx,
		Image:    &img,
		Fighters: overlays,
	})
	if err != nil {
		return false, fmt.Errorf("render frame %d: %w", idx, err)
	}

	return quit, nil
}

// resize returns a copy of frame at the configured output size.
func (a *App) resize(frame *gocv.Mat) (gocv.Mat, error) {
	size := image.Pt(a.config.Width, a.config.Height)
	if frame.Cols() == size.X && frame.Rows() == size.Y {
		return frame.Clone(), nil
	}

	out := gocv.NewMat()
	gocv.Resize(*frame, &out, size, 0, 0, gocv.InterpolationLinear)
	if out.Empty() {
		out.Close()
		return gocv.Mat{}, fmt.Errorf("resize frame to %dx%d failed", size.X, size.Y)
	}
	return out, nil
}

// estimate runs the pose estimator on the crop of img inside box. An empty
// box means no pose.
func (a *App) estimate(img *gocv.Mat, box image.Rectangle) (*pose.LandmarkSet, error) {
	if box.Empty() {
		return nil, nil
	}

	crop := img.Region(box)
	defer crop.Close()

	return a.poses.Estimate(&crop)
}

func sideNames(sides []pose.Side) []string {
	names := make([]string, len(sides))
	for i, s := range sides {
		names[i] = string(s)
	}
	return names
}
