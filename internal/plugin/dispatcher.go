package plugin

import (
	"context"
	"sync"

	"github.com/ayusman/cornerman/internal/event"
	"github.com/rs/zerolog"
)

const dispatchQueue = 64

// Dispatcher delivers events to plugins on a background worker, in the
// order they were published. Events arriving while the queue is full are
// dropped.
type Dispatcher struct {
	plugins  []*Plugin
	executor *Executor
	run      string
	round    int
	log      zerolog.Logger

	queue     chan event.Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher starts a Dispatcher for one run.
func NewDispatcher(plugins []*Plugin, executor *Executor, run string, round int, log zerolog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		plugins:  plugins,
		executor: executor,
		run:      run,
		round:    round,
		log:      log,
		queue:    make(chan event.Event, dispatchQueue),
		ctx:      ctx,
		cancel:   cancel,
	}

	d.wg.Add(1)
	go d.loop()

	return d
}

// PublishEvent queues ev for delivery. It never blocks.
func (d *Dispatcher) PublishEvent(ev event.Event) {
	select {
	case d.queue <- ev:
	default:
		d.log.Warn().Str("kind", string(ev.Kind)).Int("frame", ev.Frame).Msg("plugin queue full, dropping event")
	}
}

// Close delivers the queued events and stops the worker. It must not be
// called concurrently with PublishEvent.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		close(d.queue)
		d.wg.Wait()
		d.cancel()
	})
	return nil
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	for ev := range d.queue {
		req := &Request{Run: d.run, Round: d.round, Event: ev}
		for _, p := range d.plugins {
			if !p.Handles(ev.Kind) {
				continue
			}

			log := d.log.With().Str("plugin", p.Manifest.Name).Str("kind", string(ev.Kind)).Logger()

			resp, err := d.executor.Execute(d.ctx, p, req)
			if err != nil {
				log.Warn().Err(err).Msg("plugin failed")
				continue
			}
			if !resp.Success {
				log.Warn().Str("error", resp.Error).Msg("plugin reported failure")
				continue
			}
			log.Debug().Msg("plugin handled event")
		}
	}
}
