package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Input settings
	MovieDir     string `yaml:"movie_dir" env:"MOVIE_DIR"`
	Pattern      string `yaml:"pattern" env:"PATTERN"`
	SortPlaylist bool   `yaml:"sort_playlist" env:"SORT_PLAYLIST"`

	// Output settings. PositiveDir and NegativeDir are set from the command
	// line; when both are empty every snapshot goes to SnapshotDir.
	SnapshotDir string `yaml:"snapshot_dir" env:"SNAPSHOT_DIR"`
	PositiveDir string `yaml:"-"`
	NegativeDir string `yaml:"-"`

	LogFile string `yaml:"log_file" env:"LOG_FILE"`

	// Concurrency bounds parallel ffprobe runs in the list command
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`

	// FFmpeg settings
	FFmpeg FFmpegConfig `yaml:"ffmpeg" envPrefix:"FFMPEG_"`

	// Player settings
	Player PlayerConfig `yaml:"player" envPrefix:"PLAYER_"`

	// Keys maps action names to single-key bindings
	Keys map[string]string `yaml:"keys"`
}

type FFmpegConfig struct {
	BinaryPath string        `yaml:"binary_path" env:"BINARY_PATH"`
	ProbePath  string        `yaml:"probe_path" env:"PROBE_PATH"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Quality    int           `yaml:"quality" env:"QUALITY"`
	Threads    int           `yaml:"threads" env:"THREADS"`
}

type PlayerConfig struct {
	BinaryPath string   `yaml:"binary_path" env:"BINARY_PATH"`
	SocketPath string   `yaml:"socket_path" env:"SOCKET_PATH"`
	ExtraArgs  []string `yaml:"extra_args"`
}

// Load reads configuration from file, applies FRAMEFINDER_* environment
// overrides and returns the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "FRAMEFINDER_"}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	return cfg, nil
}

// TwoWay reports whether snapshots are sorted into positive and negative
// directories.
func (c *Config) TwoWay() bool {
	return c.PositiveDir != "" && c.NegativeDir != ""
}

// OutputDirs returns the positive and negative snapshot directories. In
// single-directory mode both are SnapshotDir.
func (c *Config) OutputDirs() (positive, negative string) {
	if c.TwoWay() {
		return c.PositiveDir, c.NegativeDir
	}
	return c.SnapshotDir, c.SnapshotDir
}

func defaultConfig() *Config {
	return &Config{
		MovieDir:    "movies",
		Pattern:     "*.mp4",
		SnapshotDir: ".",
		LogFile:     "framefinder.log",
		Concurrency: 4,
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Timeout:    30 * time.Second,
			Quality:    2,
		},
		Player: PlayerConfig{
			BinaryPath: "mpv",
			SocketPath: filepath.Join(os.TempDir(), fmt.Sprintf("framefinder-%d.sock", os.Getpid())),
		},
		Keys: make(map[string]string),
	}
}

func findConfigFile() string {
	candidates := []string{
		"./framefinder.yaml",
		"./framefinder.yml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	if path, err := xdg.SearchConfigFile(filepath.Join("framefinder", "config.yaml")); err == nil {
		return path
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
