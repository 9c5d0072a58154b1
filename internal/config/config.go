// Package config loads ledforge settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledforge/internal/history"
	"github.com/roach88/ledforge/internal/render"
)

const (
	// DefaultStorePath is the pattern database used when none is configured.
	DefaultStorePath = "ledforge.db"

	// DefaultFileName is the config file picked up from the working
	// directory when no path is given.
	DefaultFileName = "ledforge.yaml"
)

// Config is the complete ledforge configuration. Zero sections in a file
// keep their Default values.
type Config struct {
	History HistoryConfig `yaml:"history"`
	Render  RenderConfig  `yaml:"render"`
	Actions ActionsConfig `yaml:"actions"`
	Store   StoreConfig   `yaml:"store"`
}

// HistoryConfig configures undo/redo.
type HistoryConfig struct {
	// Max is the per-frame undo limit.
	Max int `yaml:"max"`
}

// RenderConfig configures rasterization and the background render worker.
type RenderConfig struct {
	// QueueCapacity bounds pending preview requests; the oldest is dropped
	// when full.
	QueueCapacity int `yaml:"queue_capacity"`

	// PixelSize is the edge of one LED in output pixels before zoom.
	PixelSize int     `yaml:"pixel_size"`
	Zoom      float64 `yaml:"zoom"`

	// GridGap is the black gap between LEDs, in output pixels.
	GridGap int `yaml:"grid_gap"`

	// WaitTimeout is how long the worker idles before rechecking its queue.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// ActionsConfig configures the action engine.
type ActionsConfig struct {
	// LenientKinds makes unknown action names fall back to scroll.
	LenientKinds bool `yaml:"lenient_kinds"`
}

// StoreConfig locates the pattern database.
type StoreConfig struct {
	// Path is the SQLite file. The --db flag overrides it.
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		History: HistoryConfig{Max: history.DefaultMaxHistory},
		Render: RenderConfig{
			QueueCapacity: render.DefaultQueueCapacity,
			PixelSize:     render.DefaultPixelSize,
			Zoom:          render.DefaultZoom,
			WaitTimeout:   render.DefaultWaitTimeout,
		},
		Store: StoreConfig{Path: DefaultStorePath},
	}
}

// Load reads path over the defaults. Unknown keys are rejected so typos
// surface instead of being ignored. An empty file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every out-of-range field.
func (c *Config) Validate() error {
	var errs []error
	if c.History.Max < 1 {
		errs = append(errs, fmt.Errorf("history.max must be at least 1, got %d", c.History.Max))
	}
	if c.Render.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("render.queue_capacity must be at least 1, got %d", c.Render.QueueCapacity))
	}
	if c.Render.PixelSize < 1 {
		errs = append(errs, fmt.Errorf("render.pixel_size must be at least 1, got %d", c.Render.PixelSize))
	}
	if c.Render.Zoom <= 0 {
		errs = append(errs, fmt.Errorf("render.zoom must be positive, got %g", c.Render.Zoom))
	}
	if c.Render.GridGap < 0 {
		errs = append(errs, fmt.Errorf("render.grid_gap must not be negative, got %d", c.Render.GridGap))
	}
	if c.Render.WaitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("render.wait_timeout must be positive, got %s", c.Render.WaitTimeout))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path must be set"))
	}
	return errors.Join(errs...)
}

// RenderOptions converts the render section for render.Rasterize.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		PixelSize: c.Render.PixelSize,
		Zoom:      c.Render.Zoom,
		GridGap:   c.Render.GridGap,
	}
}

// WorkerOptions converts the render section for render.NewWorker.
func (c *Config) WorkerOptions() []render.WorkerOption {
	return []render.WorkerOption{
		render.WithQueueCapacity(c.Render.QueueCapacity),
		render.WithWaitTimeout(c.Render.WaitTimeout),
		render.WithOptions(c.RenderOptions()),
	}
}
