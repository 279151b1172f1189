// Package config loads gorepl settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itsmostafa/gorepl/internal/input"
	"github.com/itsmostafa/gorepl/internal/runner"
)

// EnvConfig names the environment variable holding the config file path
const EnvConfig = "GOREPL_CONFIG"

// Config holds the user-facing settings
type Config struct {
	// Compiler is the compiler command line; {src}, {bin} and {dir} are
	// replaced per attempt
	Compiler string `yaml:"compiler"`

	// CompileTimeout bounds each compiler run (default: 60s)
	CompileTimeout time.Duration `yaml:"compile_timeout"`

	// RunTimeout bounds each run of the compiled program (default: 10s)
	RunTimeout time.Duration `yaml:"run_timeout"`

	// MaxOutputChars truncates reported output; 0 disables it (default: 10000)
	MaxOutputChars int `yaml:"max_output_chars"`

	// AutoImports fixes the generated program's imports before compiling
	AutoImports bool `yaml:"auto_imports"`

	// ModulePath is written to a go.mod beside the generated source;
	// empty disables it
	ModulePath string `yaml:"module_path"`

	// TempDir is where per-attempt workspaces are created
	TempDir string `yaml:"temp_dir"`

	// Color enables styled output on terminals
	Color bool `yaml:"color"`

	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`

	// HistorySize bounds the recall history (default: 1000)
	HistorySize int `yaml:"history_size"`

	// LogFile receives structured logs; empty discards them
	LogFile string `yaml:"log_file"`

	// LogLevel is one of debug, info, warn, error (default: info)
	LogLevel string `yaml:"log_level"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	rc := runner.DefaultConfig()
	return Config{
		Compiler:           strings.Join(rc.Compiler, " "),
		CompileTimeout:     rc.CompileTimeout,
		RunTimeout:         rc.RunTimeout,
		MaxOutputChars:     rc.MaxOutputChars,
		AutoImports:        true,
		ModulePath:         rc.ModulePath,
		Color:              true,
		Prompt:             input.DefaultPrompt,
		ContinuationPrompt: input.DefaultContinuationPrompt,
		HistorySize:        1000,
		LogLevel:           "info",
	}
}

// DefaultPath returns the config file location: $GOREPL_CONFIG, or
// gorepl/config.yaml under the user config directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	return filepath.Join(dir, "gorepl", "config.yaml"), nil
}

// Load loads configuration from the default path
func Load() (Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from path. A missing file yields the
// defaults.
func LoadFromPath(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML over the defaults. Unknown keys are errors.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings for values the session cannot work with
func (c Config) Validate() error {
	tmpl := runner.ParseTemplate(c.Compiler)
	if len(tmpl) == 0 {
		return errors.New("compiler must not be empty")
	}
	if !strings.Contains(c.Compiler, runner.SourcePlaceholder) {
		return fmt.Errorf("compiler %q must reference %s", c.Compiler, runner.SourcePlaceholder)
	}
	if c.CompileTimeout <= 0 {
		return fmt.Errorf("compile_timeout must be positive, got %s", c.CompileTimeout)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("run_timeout must be positive, got %s", c.RunTimeout)
	}
	if c.MaxOutputChars < 0 {
		return fmt.Errorf("max_output_chars must not be negative, got %d", c.MaxOutputChars)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Runner returns the compile/run settings
func (c Config) Runner() runner.Config {
	rc := runner.DefaultConfig()
	rc.Compiler = runner.ParseTemplate(c.Compiler)
	rc.ModulePath = c.ModulePath
	rc.TempDir = c.TempDir
	rc.CompileTimeout = c.CompileTimeout
	rc.RunTimeout = c.RunTimeout
	rc.MaxOutputChars = c.MaxOutputChars
	return rc
}
