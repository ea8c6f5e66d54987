// Package config loads runtime settings from defaults, an optional config
// file, CORNERMAN_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/cornerman/internal/app"
	"github.com/ayusman/cornerman/internal/detector"
	"github.com/ayusman/cornerman/internal/fighter"
	"github.com/ayusman/cornerman/internal/logging"
	"github.com/ayusman/cornerman/internal/pose"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names.
const EnvPrefix = "CORNERMAN"

// VideoConfig holds input settings
type VideoConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// RoundConfig selects the round to analyze
type RoundConfig struct {
	Number   int           `json:"number" mapstructure:"number"`
	Duration time.Duration `json:"duration" mapstructure:"duration"`
}

// OutputConfig is the resolution frames are resized to
type OutputConfig struct {
	Width  int `json:"width" mapstructure:"width"`
	Height int `json:"height" mapstructure:"height"`
}

// SamplingConfig holds frame sampling settings
type SamplingConfig struct {
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

// DetectionConfig holds person detector settings
type DetectionConfig struct {
	Model      string  `json:"model" mapstructure:"model"`
	Confidence float64 `json:"confidence" mapstructure:"confidence"`
	NMS        float64 `json:"nms" mapstructure:"nms"`
}

// PoseConfig holds pose estimator settings
type PoseConfig struct {
	MinDetectionConfidence float64 `json:"minDetectionConfidence" mapstructure:"minDetectionConfidence"`
	MinTrackingConfidence  float64 `json:"minTrackingConfidence" mapstructure:"minTrackingConfidence"`
	Script                 string  `json:"script" mapstructure:"script"`
	Python                 string  `json:"python" mapstructure:"python"`
}

// HeuristicsConfig holds event detector thresholds
type HeuristicsConfig struct {
	StrikeAngle          float64 `json:"strikeAngle" mapstructure:"strikeAngle"`
	OrientationThreshold float64 `json:"orientationThreshold" mapstructure:"orientationThreshold"`
	VerticalThreshold    float64 `json:"verticalThreshold" mapstructure:"verticalThreshold"`
}

// FighterConfig holds per-slot settings
type FighterConfig struct {
	TakedownSide string `json:"takedownSide" mapstructure:"takedownSide"`
}

// FightersConfig holds settings for both slots
type FightersConfig struct {
	One FighterConfig `json:"one" mapstructure:"one"`
	Two FighterConfig `json:"two" mapstructure:"two"`
}

// SelectorConfig picks the fighter selection strategy
type SelectorConfig struct {
	Mode string `json:"mode" mapstructure:"mode"`
}

// PreviewConfig controls the preview window and HTTP preview server
type PreviewConfig struct {
	Window bool   `json:"window" mapstructure:"window"`
	Listen string `json:"listen" mapstructure:"listen"`
	Static string `json:"static" mapstructure:"static"`
}

// PluginsConfig locates event plugins. An empty dir disables them.
type PluginsConfig struct {
	Dir     string        `json:"dir" mapstructure:"dir"`
	Enabled []string      `json:"enabled" mapstructure:"enabled"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// Config is the full runtime configuration.
type Config struct {
	Video      VideoConfig      `json:"video" mapstructure:"video"`
	Round      RoundConfig      `json:"round" mapstructure:"round"`
	Output     OutputConfig     `json:"output" mapstructure:"output"`
	Sampling   SamplingConfig   `json:"sampling" mapstructure:"sampling"`
	Detection  DetectionConfig  `json:"detection" mapstructure:"detection"`
	Pose       PoseConfig       `json:"pose" mapstructure:"pose"`
	Heuristics HeuristicsConfig `json:"heuristics" mapstructure:"heuristics"`
	Fighters   FightersConfig   `json:"fighters" mapstructure:"fighters"`
	Selector   SelectorConfig   `json:"selector" mapstructure:"selector"`
	Preview    PreviewConfig    `json:"preview" mapstructure:"preview"`
	Plugins    PluginsConfig    `json:"plugins" mapstructure:"plugins"`
	Log        LogConfig        `json:"log" mapstructure:"log"`
}

// setDefaults registers every key with its default value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("video.path", "")

	v.SetDefault("round.number", 1)
	v.SetDefault("round.duration", "5m")

	v.SetDefault("output.width", app.DefaultWidth)
	v.SetDefault("output.height", app.DefaultHeight)

	v.SetDefault("sampling.interval", "1s")

	v.SetDefault("detection.model", "yolov8s.onnx")
	v.SetDefault("detection.confidence", 0.25)
	v.SetDefault("detection.nms", 0.7)

	v.SetDefault("pose.minDetectionConfidence", 0.5)
	v.SetDefault("pose.minTrackingConfidence", 0.5)
	v.SetDefault("pose.script", "")
	v.SetDefault("pose.python", "")

	v.SetDefault("heuristics.strikeAngle", 160.0)
	v.SetDefault("heuristics.orientationThreshold", 5.0)
	v.SetDefault("heuristics.verticalThreshold", 0.1)

	v.SetDefault("fighters.one.takedownSide", string(pose.Left))
	v.SetDefault("fighters.two.takedownSide", string(pose.Right))

	v.SetDefault("selector.mode", fighter.ModeLargest)

	v.SetDefault("preview.window", true)
	v.SetDefault("preview.listen", "")
	v.SetDefault("preview.static", "")

	v.SetDefault("plugins.dir", "")
	v.SetDefault("plugins.enabled", []string{})
	v.SetDefault("plugins.timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"video":          "video.path",
	"round":          "round.number",
	"round-duration": "round.duration",
	"width":          "output.width",
	"height":         "output.height",
	"interval":       "sampling.interval",
	"model":          "detection.model",
	"confidence":     "detection.confidence",
	"pose-script":    "pose.script",
	"python":         "pose.python",
	"selector":       "selector.mode",
	"window":         "preview.window",
	"listen":         "preview.listen",
	"static":         "preview.static",
	"plugins":        "plugins.dir",
	"plugin":         "plugins.enabled",
	"log-level":      "log.level",
	"log-pretty":     "log.pretty",
}

// NewFlagSet returns the command-line flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String("config", "", "path to a JSON, YAML or TOML config file")
	fs.String("video", "", "path to the fight video (may also be given as the first argument)")
	fs.Int("round", 1, "round number to analyze, starting at 1")
	fs.Duration("round-duration", 5*time.Minute, "length of one round")
	fs.Int("width", app.DefaultWidth, "output frame width")
	fs.Int("height", app.DefaultHeight, "output frame height")
	fs.Duration("interval", time.Second, "time between analyzed frames")
	fs.String("model", "yolov8s.onnx", "YOLOv8 ONNX model path")
	fs.Float64("confidence", 0.25, "minimum person detection confidence")
	fs.String("pose-script", "", "pose service script path")
	fs.String("python", "", "python interpreter for the pose service")
	fs.String("selector", fighter.ModeLargest, "fighter selection: largest or centroid")
	fs.Bool("window", true, "show the preview window")
	fs.String("listen", "", "serve the HTTP preview on this address, e.g. :8080")
	fs.String("static", "", "directory of static files served by the preview server")
	fs.String("plugins", "", "directory of event plugins (disabled when empty)")
	fs.StringSlice("plugin", nil, "run only the named plugins (repeatable, all when empty)")
	fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	fs.Bool("log-pretty", false, "human-readable console logs")

	return fs
}

// Load parses args with fs and resolves the configuration. fs must come
// from NewFlagSet. A -h/--help request returns pflag.ErrHelp.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	if fs.NArg() > 0 && !fs.Changed("video") {
		v.Set("video.path", fs.Arg(0))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks ranges and enumerations. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Video.Path != "", "video.path is required")
	check(c.Round.Number >= 1, "round.number must be at least 1, got %d", c.Round.Number)
	check(c.Round.Duration > 0, "round.duration must be positive, got %s", c.Round.Duration)
	check(c.Output.Width > 0 && c.Output.Height > 0, "output size must be positive, got %dx%d", c.Output.Width, c.Output.Height)
	check(c.Sampling.Interval > 0, "sampling.interval must be positive, got %s", c.Sampling.Interval)

	check(c.Detection.Confidence > 0 && c.Detection.Confidence <= 1, "detection.confidence must be in (0, 1], got %v", c.Detection.Confidence)
	check(c.Detection.NMS > 0 && c.Detection.NMS <= 1, "detection.nms must be in (0, 1], got %v", c.Detection.NMS)
	check(c.Pose.MinDetectionConfidence >= 0 && c.Pose.MinDetectionConfidence <= 1, "pose.minDetectionConfidence must be in [0, 1], got %v", c.Pose.MinDetectionConfidence)
	check(c.Pose.MinTrackingConfidence >= 0 && c.Pose.MinTrackingConfidence <= 1, "pose.minTrackingConfidence must be in [0, 1], got %v", c.Pose.MinTrackingConfidence)

	check(c.Heuristics.StrikeAngle > 0 && c.Heuristics.StrikeAngle < 180, "heuristics.strikeAngle must be in (0, 180), got %v", c.Heuristics.StrikeAngle)
	check(c.Heuristics.OrientationThreshold > 0 && c.Heuristics.OrientationThreshold < 90, "heuristics.orientationThreshold must be in (0, 90), got %v", c.Heuristics.OrientationThreshold)
	check(c.Heuristics.VerticalThreshold > 0, "heuristics.verticalThreshold must be positive, got %v", c.Heuristics.VerticalThreshold)

	_, ok := pose.ParseSide(c.Fighters.One.TakedownSide)
	check(ok, "fighters.one.takedownSide must be left or right, got %q", c.Fighters.One.TakedownSide)
	_, ok = pose.ParseSide(c.Fighters.Two.TakedownSide)
	check(ok, "fighters.two.takedownSide must be left or right, got %q", c.Fighters.Two.TakedownSide)

	check(c.Plugins.Timeout > 0, "plugins.timeout must be positive, got %s", c.Plugins.Timeout)

	_, err := fighter.New(c.Selector.Mode)
	check(err == nil, "selector.mode must be %s or %s, got %q", fighter.ModeLargest, fighter.ModeCentroid, c.Selector.Mode)

	_, err = logging.ParseLevel(c.Log.Level)
	check(err == nil, "log.level: %v", err)

	return errors.Join(errs...)
}

// App returns the analysis settings.
func (c *Config) App() app.Config {
	one, _ := pose.ParseSide(c.Fighters.One.TakedownSide)
	two, _ := pose.ParseSide(c.Fighters.Two.TakedownSide)

	return app.Config{
		Round:                c.Round.Number,
		RoundDuration:        c.Round.Duration,
		SampleInterval:       c.Sampling.Interval,
		Width:                c.Output.Width,
		Height:               c.Output.Height,
		StrikeAngle:          c.Heuristics.StrikeAngle,
		OrientationThreshold: c.Heuristics.OrientationThreshold,
		VerticalThreshold:    c.Heuristics.VerticalThreshold,
		TakedownSides:        [2]pose.Side{one, two},
	}
}

// Detector returns the person detector and pose estimator settings.
func (c *Config) Detector() detector.Config {
	return detector.Config{
		ModelPath:         c.Detection.Model,
		MinConfidence:     c.Detection.Confidence,
		NMSThreshold:      c.Detection.NMS,
		MinPoseConfidence: c.Pose.MinDetectionConfidence,
		MinTrackingConf:   c.Pose.MinTrackingConfidence,
		ScriptPath:        c.Pose.Script,
		PythonPath:        c.Pose.Python,
	}
}
