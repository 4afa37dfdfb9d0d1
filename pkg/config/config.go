// Package config provides TOML-based configuration for pulsebar. YAML files
// are accepted too, chosen by file extension.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// Output kinds.
const (
	OutputX11    = "x11"
	OutputStdout = "stdout"
)

// Config is the complete pulsebar configuration.
type Config struct {
	General GeneralConfig `toml:"general" yaml:"general"`
	Status  StatusConfig  `toml:"status" yaml:"status"`

	// Blocks is the registration table. Order is display order. When a
	// file defines no blocks, the blocks of Status.Preset are used.
	Blocks []BlockConfig `toml:"block" yaml:"blocks"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Tick is the unit block intervals are counted in.
	Tick Duration `toml:"tick" yaml:"tick"`

	// PIDFile, when set, records the running instance's pid so scripts can
	// signal it without pkill.
	PIDFile string `toml:"pid_file" yaml:"pid_file"`

	// SlowProducer is the producer run time above which a warning is logged.
	// Zero disables the warning.
	SlowProducer Duration `toml:"slow_producer" yaml:"slow_producer"`
}

// StatusConfig controls the published line.
type StatusConfig struct {
	// Output is "x11" (root window name) or "stdout".
	Output string `toml:"output" yaml:"output"`

	// PadLeft and PadRight surround the whole line.
	PadLeft  string `toml:"pad_left" yaml:"pad_left"`
	PadRight string `toml:"pad_right" yaml:"pad_right"`

	// BlockCapacity is the per-block text buffer size in bytes.
	BlockCapacity int `toml:"block_capacity" yaml:"block_capacity"`

	// Preset names the built-in block table used when no blocks are given.
	Preset string `toml:"preset" yaml:"preset"`
}

// BlockConfig is one [[block]] entry.
type BlockConfig struct {
	Producer string `toml:"producer" yaml:"producer"`
	Interval int    `toml:"interval" yaml:"interval"`
	Signal   int    `toml:"signal" yaml:"signal"`
	PadLeft  string `toml:"pad_left" yaml:"pad_left"`
	PadRight string `toml:"pad_right" yaml:"pad_right"`
	Arg      string `toml:"arg" yaml:"arg"`
	Label    string `toml:"label" yaml:"label"`
}

// Level returns LogLevel as a slog level.
func (g GeneralConfig) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", g.LogLevel, err)
	}
	return l, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.General.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.General.Tick.Duration <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive"))
	} else if c.General.Tick.Duration < 10*time.Millisecond {
		errs = append(errs, fmt.Errorf("tick %s is below 10ms", c.General.Tick))
	}
	switch c.Status.Output {
	case OutputX11, OutputStdout:
	default:
		errs = append(errs, fmt.Errorf("output %q: must be %q or %q", c.Status.Output, OutputX11, OutputStdout))
	}
	if c.Status.BlockCapacity <= 0 {
		errs = append(errs, fmt.Errorf("block_capacity must be positive"))
	}
	if c.Status.Preset != "" && !slices.Contains(Presets(), c.Status.Preset) {
		errs = append(errs, fmt.Errorf("preset %q: must be one of %s", c.Status.Preset, strings.Join(Presets(), ", ")))
	}
	if len(c.Blocks) == 0 {
		errs = append(errs, fmt.Errorf("no blocks configured"))
	}
	for i, b := range c.Blocks {
		if b.Producer == "" {
			errs = append(errs, fmt.Errorf("block %d: producer is required", i))
		}
		if b.Interval < 0 {
			errs = append(errs, fmt.Errorf("block %d (%s): negative interval", i, b.Producer))
		}
		if b.Signal < 0 {
			errs = append(errs, fmt.Errorf("block %d (%s): negative signal", i, b.Producer))
		}
	}
	return errors.Join(errs...)
}
