package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/cornerman/internal/pose"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := NewFlagSet("cornerman")
	fs.SetOutput(&discard{})
	return Load(fs, args)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := load(t, "fight.mp4")
	require.NoError(t, err)

	assert.Equal(t, "fight.mp4", cfg.Video.Path)
	assert.Equal(t, 1, cfg.Round.Number)
	assert.Equal(t, 5*time.Minute, cfg.Round.Duration)
	assert.Equal(t, 1280, cfg.Output.Width)
	assert.Equal(t, 720, cfg.Output.Height)
	assert.Equal(t, time.Second, cfg.Sampling.Interval)
	assert.Equal(t, "yolov8s.onnx", cfg.Detection.Model)
	assert.Equal(t, 0.25, cfg.Detection.Confidence)
	assert.Equal(t, 0.7, cfg.Detection.NMS)
	assert.Equal(t, 0.5, cfg.Pose.MinDetectionConfidence)
	assert.Equal(t, 0.5, cfg.Pose.MinTrackingConfidence)
	assert.Equal(t, 160.0, cfg.Heuristics.StrikeAngle)
	assert.Equal(t, 5.0, cfg.Heuristics.OrientationThreshold)
	assert.Equal(t, 0.1, cfg.Heuristics.VerticalThreshold)
	assert.Equal(t, "left", cfg.Fighters.One.TakedownSide)
	assert.Equal(t, "right", cfg.Fighters.Two.TakedownSide)
	assert.Equal(t, "largest", cfg.Selector.Mode)
	assert.True(t, cfg.Preview.Window)
	assert.Equal(t, "", cfg.Preview.Listen)
	assert.Equal(t, "", cfg.Preview.Static)
	assert.Equal(t, "", cfg.Plugins.Dir)
	assert.Empty(t, cfg.Plugins.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Plugins.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := load(t,
		"--video", "bout.mov",
		"--round", "3",
		"--round-duration", "3m",
		"--interval", "500ms",
		"--selector", "centroid",
		"--window=false",
		"--listen", ":8080",
		"--static", "./web",
		"--plugins", "./plugins",
		"--plugin", "notify",
		"--plugin", "webhook",
		"--log-level", "debug",
		"--log-pretty",
	)
	require.NoError(t, err)

	assert.Equal(t, "bout.mov", cfg.Video.Path)
	assert.Equal(t, 3, cfg.Round.Number)
	assert.Equal(t, 3*time.Minute, cfg.Round.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampling.Interval)
	assert.Equal(t, "centroid", cfg.Selector.Mode)
	assert.False(t, cfg.Preview.Window)
	assert.Equal(t, ":8080", cfg.Preview.Listen)
	assert.Equal(t, "./web", cfg.Preview.Static)
	assert.Equal(t, "./plugins", cfg.Plugins.Dir)
	assert.Equal(t, []string{"notify", "webhook"}, cfg.Plugins.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cornerman.json")
	content := `{
		"video": { "path": "ufc.mp4" },
		"round": { "number": 2, "duration": "5m" },
		"heuristics": { "strikeAngle": 150, "verticalThreshold": 0.2 },
		"fighters": { "one": { "takedownSide": "right" } }
	}`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := load(t, "--config", file, "--round", "4")
	require.NoError(t, err)

	assert.Equal(t, "ufc.mp4", cfg.Video.Path)
	assert.Equal(t, 4, cfg.Round.Number, "flag should override file")
	assert.Equal(t, 150.0, cfg.Heuristics.StrikeAngle)
	assert.Equal(t, 0.2, cfg.Heuristics.VerticalThreshold)
	assert.Equal(t, 5.0, cfg.Heuristics.OrientationThreshold, "unset keys keep defaults")
	assert.Equal(t, "right", cfg.Fighters.One.TakedownSide)
	assert.Equal(t, "right", cfg.Fighters.Two.TakedownSide)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := load(t, "--config", filepath.Join(t.TempDir(), "missing.json"), "fight.mp4")
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CORNERMAN_VIDEO_PATH", "env.mp4")
	t.Setenv("CORNERMAN_ROUND_NUMBER", "2")
	t.Setenv("CORNERMAN_SELECTOR_MODE", "centroid")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "env.mp4", cfg.Video.Path)
	assert.Equal(t, 2, cfg.Round.Number)
	assert.Equal(t, "centroid", cfg.Selector.Mode)
}

func TestLoad_Help(t *testing.T) {
	_, err := load(t, "--help")
	assert.True(t, errors.Is(err, pflag.ErrHelp))
}

func TestLoad_MissingVideo(t *testing.T) {
	_, err := load(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video.path is required")
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg, err := load(t, "fight.mp4")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"round zero", func(c *Config) { c.Round.Number = 0 }, "round.number"},
		{"negative duration", func(c *Config) { c.Round.Duration = -time.Second }, "round.duration"},
		{"zero interval", func(c *Config) { c.Sampling.Interval = 0 }, "sampling.interval"},
		{"zero height", func(c *Config) { c.Output.Height = 0 }, "output size"},
		{"confidence above one", func(c *Config) { c.Detection.Confidence = 1.5 }, "detection.confidence"},
		{"strike angle 180", func(c *Config) { c.Heuristics.StrikeAngle = 180 }, "heuristics.strikeAngle"},
		{"orientation 90", func(c *Config) { c.Heuristics.OrientationThreshold = 90 }, "heuristics.orientationThreshold"},
		{"zero vertical", func(c *Config) { c.Heuristics.VerticalThreshold = 0 }, "heuristics.verticalThreshold"},
		{"bad side", func(c *Config) { c.Fighters.Two.TakedownSide = "middle" }, "fighters.two.takedownSide"},
		{"bad selector", func(c *Config) { c.Selector.Mode = "kalman" }, "selector.mode"},
		{"zero plugin timeout", func(c *Config) { c.Plugins.Timeout = 0 }, "plugins.timeout"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg, err := load(t, "fight.mp4")
	require.NoError(t, err)

	cfg.Round.Number = 0
	cfg.Selector.Mode = "kalman"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "round.number")
	assert.Contains(t, err.Error(), "selector.mode")
}

func TestConfig_App(t *testing.T) {
	cfg, err := load(t, "fight.mp4", "--round", "2")
	require.NoError(t, err)
	cfg.Fighters.One.TakedownSide = "right"

	ac := cfg.App()
	assert.Equal(t, 2, ac.Round)
	assert.Equal(t, 5*time.Minute, ac.RoundDuration)
	assert.Equal(t, time.Second, ac.SampleInterval)
	assert.Equal(t, 1280, ac.Width)
	assert.Equal(t, 160.0, ac.StrikeAngle)
	assert.Equal(t, [2]pose.Side{pose.Right, pose.Right}, ac.TakedownSides)
}

func TestConfig_Detector(t *testing.T) {
	cfg, err := load(t, "fight.mp4", "--model", "/models/yolov8n.onnx", "--python", "/venv/bin/python")
	require.NoError(t, err)

	dc := cfg.Detector()
	assert.Equal(t, "/models/yolov8n.onnx", dc.ModelPath)
	assert.Equal(t, 0.25, dc.MinConfidence)
	assert.Equal(t, 0.7, dc.NMSThreshold)
	assert.Equal(t, "/venv/bin/python", dc.PythonPath)
}
