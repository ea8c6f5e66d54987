// Command cornerman analyzes one round of a combat-sports video and prints
// per-fighter strike, takedown and knockdown counts.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayusman/cornerman/internal/app"
	"github.com/ayusman/cornerman/internal/capture"
	"github.com/ayusman/cornerman/internal/config"
	"github.com/ayusman/cornerman/internal/detector"
	"github.com/ayusman/cornerman/internal/fighter"
	"github.com/ayusman/cornerman/internal/logging"
	"github.com/ayusman/cornerman/internal/plugin"
	"github.com/ayusman/cornerman/internal/render"
	"github.com/ayusman/cornerman/internal/round"
	"github.com/ayusman/cornerman/internal/server"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := config.NewFlagSet("cornerman")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: cornerman [flags] <video>")
		fs.PrintDefaults()
	}

	cfg, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cornerman: %v\n", err)
		return 2
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cornerman: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := analyze(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Str("video", cfg.Video.Path).Msg("analysis failed")
		return 1
	}

	if err := stats.Report(os.Stdout); err != nil {
		log.Error().Err(err).Msg("failed to write report")
		return 1
	}
	return 0
}

// analyze wires the configured collaborators around one App and runs it.
func analyze(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*round.Statistics, error) {
	runID := uuid.NewString()

	selector, err := fighter.New(cfg.Selector.Mode)
	if err != nil {
		return nil, err
	}

	var sinks app.Sinks

	if cfg.Plugins.Dir != "" {
		mgr := plugin.NewManager(cfg.Plugins.Dir, log)
		if err := mgr.Discover(); err != nil {
			log.Warn().Err(err).Str("dir", cfg.Plugins.Dir).Msg("plugin discovery failed")
		}
		plugins, err := mgr.Select(cfg.Plugins.Enabled)
		if err != nil {
			return nil, err
		}
		if len(plugins) > 0 {
			d := plugin.NewDispatcher(plugins, plugin.NewExecutor(cfg.Plugins.Timeout), runID, cfg.Round.Number, log)
			defer d.Close()
			sinks = append(sinks, d)
			log.Info().Int("count", len(plugins)).Msg("plugins loaded")
		}
	}

	persons, err := detector.NewYOLODetector(cfg.Detector())
	if err != nil {
		return nil, fmt.Errorf("person detector: %w", err)
	}
	poses, err := detector.NewMediaPipeEstimator(cfg.Detector())
	if err != nil {
		persons.Close()
		return nil, fmt.Errorf("pose estimator: %w", err)
	}

	var (
		renderers render.Multi
		hub       *server.Hub
	)

	if cfg.Preview.Window {
		renderers = append(renderers, render.NewWindow())
	}

	if cfg.Preview.Listen != "" {
		hub = server.NewHub()
		hub.PublishStats(*round.NewStatistics(cfg.Round.Number))
		renderers = append(renderers, render.NewStream(hub))
		sinks = append(sinks, hub)

		srv := server.New(server.Config{Hub: hub, RunID: runID, StaticDir: cfg.Preview.Static, Logger: log})
		go func() {
			if err := srv.ListenAndServe(cfg.Preview.Listen); err != nil {
				log.Error().Err(err).Msg("preview server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("preview server shutdown")
			}
		}()
	}

	a, err := app.New(cfg.App(), app.Deps{
		Source:   capture.NewVideoFile(cfg.Video.Path),
		Persons:  persons,
		Poses:    poses,
		Selector: selector,
		Renderer: renderers,
		Events:   sinks,
		Logger:   log,
		RunID:    runID,
	})
	if err != nil {
		persons.Close()
		poses.Close()
		return nil, err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()

	stats, runErr := a.Run(ctx)

	if hub != nil && stats != nil {
		hub.PublishStats(*stats)
	}

	return stats, runErr
}
