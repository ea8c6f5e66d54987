package app

import (
	"context"
	"fmt"

	"github.com/ayusman/cornerman/internal/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ayusman/cornerman/internal/app"

type metrics struct {
	framesRead    metric.Int64Counter
	framesSampled metric.Int64Counter
	framesSkipped metric.Int64Counter
	events        metric.Int64Counter
}

// newMetrics creates the run counters from the global OTel provider, which
// is a no-op unless an SDK has been installed.
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	var (
		out metrics
		err error
	)

	out.framesRead, err = m.Int64Counter(
		"cornerman.frames.read",
		metric.WithDescription("Frames read from the video"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames read counter: %w", err)
	}

	out.framesSampled, err = m.Int64Counter(
		"cornerman.frames.sampled",
		metric.WithDescription("Frames inside the round that were analyzed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames sampled counter: %w", err)
	}

	out.framesSkipped, err = m.Int64Counter(
		"cornerman.frames.skipped",
		metric.WithDescription("Sampled frames with fewer than two people"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames skipped counter: %w", err)
	}

	out.events, err = m.Int64Counter(
		"cornerman.events",
		metric.WithDescription("Detected strikes and takedowns"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	return &out, nil
}

func (m *metrics) recordEvent(ctx context.Context, ev event.Event) {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(ev.Kind)),
		attribute.Int("fighter", ev.Fighter),
	))
}
