package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultReconcileInterval = 10 * time.Second
	MinReconcileInterval     = time.Second
	DefaultThickness         = 48
)

// ActivitiesMode selects where the current activity comes from.
type ActivitiesMode string

const (
	ActivitiesAuto ActivitiesMode = "auto" // KDE when available, otherwise none.
	ActivitiesKDE  ActivitiesMode = "kde"
	ActivitiesNone ActivitiesMode = "none"
)

// View configures one tracked dock or panel.
type View struct {
	Name      string `yaml:"name"`
	Screen    int    `yaml:"screen"`
	Edge      string `yaml:"edge"`      // top, bottom, left or right
	Thickness int    `yaml:"thickness"` // pixels
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty"`
	// Activities pins the view to fixed activities; empty follows the
	// current activity.
	Activities []string `yaml:"activities,omitempty"`
}

// IsEnabled reports whether the view starts enabled.
func (v View) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

// Config is the daemon configuration.
type Config struct {
	// Display overrides DISPLAY for the X connection.
	Display string `yaml:"display,omitempty"`
	// XAuthority overrides XAUTHORITY.
	XAuthority        string         `yaml:"xauthority,omitempty"`
	LogLevel          string         `yaml:"log_level"`
	ReconcileInterval time.Duration  `yaml:"reconcile_interval"`
	Activities        ActivitiesMode `yaml:"activities"`
	Views             []View         `yaml:"views"`
}

// DefaultConfig returns a configuration with a single bottom dock on the
// first screen.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		ReconcileInterval: DefaultReconcileInterval,
		Activities:        ActivitiesAuto,
		Views: []View{
			{Name: "dock", Screen: 0, Edge: "bottom", Thickness: DefaultThickness},
		},
	}
}

func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "dockwatch", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dockwatch", "config.yaml"), nil
}

// View returns the configured view with the given name.
func (c *Config) View(name string) (View, bool) {
	for _, v := range c.Views {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates and writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidationError reports an invalid setting and, when known, where it was
// written.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate performs strict validation of the configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	if c.ReconcileInterval < MinReconcileInterval {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= %s", MinReconcileInterval)}
	}
	switch c.Activities {
	case ActivitiesAuto, ActivitiesKDE, ActivitiesNone:
	default:
		return &ValidationError{Path: "activities", Err: fmt.Errorf("activities must be one of: auto, kde, none")}
	}

	seen := make(map[string]struct{}, len(c.Views))
	for i, v := range c.Views {
		path := fmt.Sprintf("views[%d]", i)
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("name is required")}
		}
		if _, dup := seen[name]; dup {
			return &ValidationError{Path: path + ".name", Err: fmt.Errorf("duplicate view name %q", name)}
		}
		seen[name] = struct{}{}

		switch strings.ToLower(v.Edge) {
		case "top", "bottom", "left", "right":
		default:
			return &ValidationError{Path: path + ".edge", Err: fmt.Errorf("edge must be one of: top, bottom, left, right")}
		}
		if v.Thickness <= 0 {
			return &ValidationError{Path: path + ".thickness", Err: fmt.Errorf("thickness must be > 0")}
		}
		if v.Screen < 0 {
			return &ValidationError{Path: path + ".screen", Err: fmt.Errorf("screen must be >= 0")}
		}
	}
	return nil
}
