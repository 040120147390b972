// Package config collects the harness settings from flags and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"image-score-harness/internal/frameclock"
	"image-score-harness/internal/models"
	"image-score-harness/internal/sources"
	"image-score-harness/internal/surface"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	ImageURL      string
	MovieURL      string
	RefreshRate   int
	DeviceRefresh time.Duration
	MetricsAddr   string
	Headless      bool
	LogLevel      string
	LogFormat     string

	Params models.DegradeParameters
}

func Default() Config {
	return Config{
		ImageURL:      surface.BuiltinImageURL,
		RefreshRate:   frameclock.DefaultRefreshRate,
		DeviceRefresh: sources.DefaultRefreshInterval,
		LogLevel:      "info",
		LogFormat:     "console",
		Params:        models.DefaultDegradeParameters(),
	}
}

// Parse reads args (without the program name) over the defaults. getenv
// supplies LOG_LEVEL and DEBUG when --log-level is not given.
func Parse(args []string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Default()

	fs := pflag.NewFlagSet("imagescore", pflag.ContinueOnError)
	fs.StringVar(&cfg.ImageURL, "image", cfg.ImageURL, "still image path or URL used by the \"image\" option")
	fs.StringVar(&cfg.MovieURL, "movie", cfg.MovieURL, "movie file used by the \"movie\" option")
	fs.IntVar(&cfg.RefreshRate, "fps", cfg.RefreshRate, "frame clock refresh rate in Hz")
	fs.DurationVar(&cfg.DeviceRefresh, "device-refresh", cfg.DeviceRefresh, "camera enumeration interval")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	fs.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without a window and log status lines")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json")
	fs.IntVar(&cfg.Params.WorkingWidthPx, "width", cfg.Params.WorkingWidthPx, "initial working width in pixels")
	fs.IntVar(&cfg.Params.BlurRadiusPx, "blur", cfg.Params.BlurRadiusPx, "initial blur radius in pixels")
	fs.BoolVar(&cfg.Params.UseAcceleratedPath, "accelerated", cfg.Params.UseAcceleratedPath, "start on the OpenCV path")
	kind := fs.String("degrade", string(cfg.Params.Kind), "initial degradation: blur or grey")

	if err := fs.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	cfg.Params.Kind = models.DegradeKind(strings.ToLower(*kind))

	if !fs.Changed("log-level") {
		cfg.LogLevel = levelFromEnv(getenv, cfg.LogLevel)
	}

	return cfg, cfg.Validate()
}

func levelFromEnv(getenv func(string) string, fallback string) string {
	if level := getenv("LOG_LEVEL"); level != "" {
		return level
	}
	if getenv("DEBUG") == "1" {
		return "debug"
	}
	return fallback
}

func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.ImageURL) == "" {
		problems = append(problems, "image must not be empty")
	}
	if c.RefreshRate <= 0 || c.RefreshRate > 1000 {
		problems = append(problems, fmt.Sprintf("fps must be in 1..1000, got %d", c.RefreshRate))
	}
	if c.DeviceRefresh <= 0 {
		problems = append(problems, "device-refresh must be positive")
	}
	if !models.WorkingWidthRange.Contains(c.Params.WorkingWidthPx) {
		problems = append(problems, fmt.Sprintf("width must be in %d..%d step %d, got %d",
			models.WorkingWidthRange.Min, models.WorkingWidthRange.Max, models.WorkingWidthRange.Step, c.Params.WorkingWidthPx))
	}
	if !models.BlurRadiusRange.Contains(c.Params.BlurRadiusPx) {
		problems = append(problems, fmt.Sprintf("blur must be in %d..%d, got %d",
			models.BlurRadiusRange.Min, models.BlurRadiusRange.Max, c.Params.BlurRadiusPx))
	}
	if !c.Params.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("unknown degradation %q", c.Params.Kind))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log-format must be console or json, got %q", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
