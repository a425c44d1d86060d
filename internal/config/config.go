package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/loupedev/loupe/internal/event"
)

// Config captures the viewer settings loupe reads from its TOML file.
type Config struct {
	MaxQueueSize   int
	MinLevel       event.Level
	TimeFormat     string
	UTC            bool
	StripNamespace bool
	Template       string
	Delimiter      string

	// colors maps lower-cased category names to display colors.
	colors map[string]string
}

const (
	defaultConfigPath = "~/.config/loupe/config.toml"

	// DefaultMaxQueueSize bounds backlog retention when unconfigured.
	DefaultMaxQueueSize = 10000
	// DefaultColor is used for categories with no mapped color.
	DefaultColor = "black"
	// DefaultDelimiter joins template fields when composing display lines.
	DefaultDelimiter = " "
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxQueueSize: DefaultMaxQueueSize,
		MinLevel:     event.LevelTrace,
		TimeFormat:   event.DefaultTimeFormat,
		Delimiter:    DefaultDelimiter,
		colors:       make(map[string]string),
	}
}

// Load locates and parses the loupe config, falling back to defaults when the
// file is missing. A malformed file is an error; missing fields take defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	return Parse(bytes)
}

// Parse decodes TOML config bytes over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw struct {
		MaxQueueSize   int               `toml:"max_queue_size"`
		MinLevel       string            `toml:"min_level"`
		TimeFormat     string            `toml:"time_format"`
		UTC            bool              `toml:"utc"`
		StripNamespace bool              `toml:"strip_namespace"`
		Template       string            `toml:"template"`
		Delimiter      string            `toml:"delimiter"`
		Colors         map[string]string `toml:"colors"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.MaxQueueSize > 0 {
		cfg.MaxQueueSize = raw.MaxQueueSize
	}
	if strings.TrimSpace(raw.MinLevel) != "" {
		level, err := event.ParseLevel(raw.MinLevel)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg.MinLevel = level
	}
	if strings.TrimSpace(raw.TimeFormat) != "" {
		cfg.TimeFormat = raw.TimeFormat
	}
	cfg.UTC = raw.UTC
	cfg.StripNamespace = raw.StripNamespace
	cfg.Template = strings.TrimSpace(raw.Template)
	if raw.Delimiter != "" {
		cfg.Delimiter = raw.Delimiter
	}
	for name, color := range raw.Colors {
		if err := cfg.SetColor(name, color); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	return cfg, nil
}

// Color returns the display color mapped to the category, matching
// case-insensitively. Unmapped categories get DefaultColor.
func (c *Config) Color(name string) string {
	if color, ok := c.colors[strings.ToLower(strings.TrimSpace(name))]; ok {
		return color
	}
	return DefaultColor
}

// SetColor assigns a display color to a category. The name must not be blank;
// this is configuration-time validation and fails loudly, unlike the runtime
// filter paths.
func (c *Config) SetColor(name, color string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return errors.New("category name must not be blank")
	}
	if c.colors == nil {
		c.colors = make(map[string]string)
	}
	c.colors[key] = strings.TrimSpace(color)
	return nil
}

// StripHandle shortens a namespaced category ("a/b/pkg.Type" -> "pkg.Type",
// then "pkg.Type" -> "Type") when namespace stripping is enabled.
func (c *Config) StripHandle(handle string) string {
	if !c.StripNamespace {
		return handle
	}
	if i := strings.LastIndex(handle, "/"); i >= 0 {
		handle = handle[i+1:]
	}
	if i := strings.LastIndex(handle, "."); i >= 0 {
		handle = handle[i+1:]
	}
	return handle
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
