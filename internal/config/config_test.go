package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-score-harness/internal/models"
	"image-score-harness/internal/surface"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil, env(nil))
	require.NoError(t, err)

	assert.Equal(t, surface.BuiltinImageURL, cfg.ImageURL)
	assert.Empty(t, cfg.MovieURL)
	assert.Equal(t, 60, cfg.RefreshRate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.Headless)
	assert.Equal(t, models.DefaultDegradeParameters(), cfg.Params)
}

func TestParseFlags(t *testing.T) {
	cfg, err := Parse([]string{
		"--image", "photo.png",
		"--movie", "clip.mp4",
		"--fps", "30",
		"--device-refresh", "10s",
		"--metrics-addr", ":9090",
		"--headless",
		"--log-format", "json",
		"--width", "128",
		"--blur", "7",
		"--accelerated",
		"--degrade", "GREY",
	}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "photo.png", cfg.ImageURL)
	assert.Equal(t, "clip.mp4", cfg.MovieURL)
	assert.Equal(t, 30, cfg.RefreshRate)
	assert.Equal(t, 10*time.Second, cfg.DeviceRefresh)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, models.DegradeParameters{
		BlurRadiusPx:       7,
		WorkingWidthPx:     128,
		UseAcceleratedPath: true,
		Kind:               models.DegradeGrey,
	}, cfg.Params)
}

func TestLogLevelFromEnvironment(t *testing.T) {
	cfg, err := Parse(nil, env(map[string]string{"LOG_LEVEL": "warn"}))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg, err = Parse(nil, env(map[string]string{"DEBUG": "1"}))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	// the flag wins
	cfg, err = Parse([]string{"--log-level", "error"}, env(map[string]string{"LOG_LEVEL": "debug"}))
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cases := map[string][]string{
		"width off grid":  {"--width", "100"},
		"width too large": {"--width", "512"},
		"blur too large":  {"--blur", "21"},
		"zero fps":        {"--fps", "0"},
		"bad kind":        {"--degrade", "sepia"},
		"bad format":      {"--log-format", "xml"},
		"empty image":     {"--image", ""},
		"unknown flag":    {"--nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(args, env(nil))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}
