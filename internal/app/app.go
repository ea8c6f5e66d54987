// Package app wires the frame source, detectors, heuristics and renderers
// into one round analysis.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/cornerman/internal/capture"
	"github.com/ayusman/cornerman/internal/detector"
	"github.com/ayusman/cornerman/internal/event"
	"github.com/ayusman/cornerman/internal/fighter"
	"github.com/ayusman/cornerman/internal/pose"
	"github.com/ayusman/cornerman/internal/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Default output resolution. Frames are resized to this before detection.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// ErrOpenVideo is returned by Run when the video cannot be opened.
var ErrOpenVideo = errors.New("cannot open video")

// Config holds configuration options for one analysis run.
type Config struct {
	Round          int
	RoundDuration  time.Duration
	SampleInterval time.Duration
	Width          int
	Height         int

	StrikeAngle          float64
	OrientationThreshold float64
	VerticalThreshold    float64

	// TakedownSides is the body side checked for takedowns, per fighter slot.
	TakedownSides [2]pose.Side
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Round:                1,
		RoundDuration:        5 * time.Minute,
		SampleInterval:       time.Second,
		Width:                DefaultWidth,
		Height:               DefaultHeight,
		StrikeAngle:          event.DefaultStrikeAngle,
		OrientationThreshold: event.DefaultOrientationThreshold,
		VerticalThreshold:    event.DefaultVerticalThreshold,
		TakedownSides:        [2]pose.Side{pose.Left, pose.Right},
	}
}

// EventSink receives every detected event as it happens.
type EventSink interface {
	PublishEvent(ev event.Event)
}

// Sinks fans events out to several sinks in order.
type Sinks []EventSink

// PublishEvent forwards ev to every non-nil sink.
func (s Sinks) PublishEvent(ev event.Event) {
	for _, sink := range s {
		if sink != nil {
			sink.PublishEvent(ev)
		}
	}
}

// Deps are the collaborators an App drives. Source, Persons and Poses are
// required; the rest default to no-ops.
type Deps struct {
	Source   capture.Source
	Persons  detector.PersonDetector
	Poses    detector.PoseEstimator
	Selector fighter.Selector
	Renderer render.Renderer
	Events   EventSink
	Logger   zerolog.Logger

	// RunID identifies the run in logs. Generated when empty.
	RunID string
}

// App runs the analysis of one round.
type App struct {
	config    Config
	source    capture.Source
	persons   detector.PersonDetector
	poses     detector.PoseEstimator
	selector  fighter.Selector
	renderer  render.Renderer
	events    EventSink
	analyzer  *event.Analyzer
	fighters  [2]*event.Fighter
	metrics   *metrics
	log       zerolog.Logger
	runID     string
	closeOnce sync.Once
}

// New creates a new App from config and deps.
func New(config Config, deps Deps) (*App, error) {
	if deps.Source == nil {
		return nil, errors.New("app: frame source is required")
	}
	if deps.Persons == nil {
		return nil, errors.New("app: person detector is required")
	}
	if deps.Poses == nil {
		return nil, errors.New("app: pose estimator is required")
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("app: invalid output size %dx%d", config.Width, config.Height)
	}
	for i, side := range config.TakedownSides {
		if _, ok := pose.ParseSide(string(side)); !ok {
			return nil, fmt.Errorf("app: invalid takedown side %q for fighter %d", side, i+1)
		}
	}

	if deps.Selector == nil {
		deps.Selector = fighter.LargestSelector{}
	}
	if deps.Renderer == nil {
		deps.Renderer = render.Nop{}
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	runID := deps.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &App{
		config:   config,
		source:   deps.Source,
		persons:  deps.Persons,
		poses:    deps.Poses,
		selector: deps.Selector,
		renderer: deps.Renderer,
		events:   deps.Events,
		analyzer: event.NewAnalyzer(
			event.NewStrikeDetector(config.StrikeAngle),
			event.NewTakedownDetector(config.OrientationThreshold, config.VerticalThreshold),
		),
		fighters: [2]*event.Fighter{
			event.NewFighter(1, config.TakedownSides[0]),
			event.NewFighter(2, config.TakedownSides[1]),
		},
		metrics: m,
		log:     deps.Logger.With().Str("run", runID).Int("round", config.Round).Logger(),
		runID:   runID,
	}, nil
}

// RunID returns the identifier attached to this run's logs.
func (a *App) RunID() string {
	return a.runID
}

// Fighter returns the state of fighter slot 1 or 2.
func (a *App) Fighter(slot int) *event.Fighter {
	if slot < 1 || slot > 2 {
		return nil
	}
	return a.fighters[slot-1]
}

// Close releases the detectors and the renderer.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if err := a.persons.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close person detector: %w", err))
		}
		if err := a.poses.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pose estimator: %w", err))
		}
		if err := a.renderer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close renderer: %w", err))
		}
	})
	return errors.Join(errs...)
}
