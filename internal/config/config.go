// Package config loads the configuration of the bykeblend tool from an
// HCL file and environment variables prefixed with BYKEBLEND_.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/oliverbestmann/bykeblend/bridge"
)

const EnvPrefix = "BYKEBLEND_"

type Config struct {
	AssetRoot  string
	Workers    int
	Duplicates string
	LogLevel   string
	LogFormat  string
	Scenes     []Scene
}

type Scene struct {
	Name string
	Path string
}

// hclFile is the layout of a configuration file.
type hclFile struct {
	AssetRoot  string     `hcl:"asset_root,optional"`
	Workers    int        `hcl:"workers,optional"`
	Duplicates string     `hcl:"duplicates,optional"`
	LogLevel   string     `hcl:"log_level,optional"`
	LogFormat  string     `hcl:"log_format,optional"`
	Scenes     []hclScene `hcl:"scene,block"`
}

type hclScene struct {
	Name string `hcl:"name,label"`
	Path string `hcl:"path"`
}

// envOverrides holds the values that can be set using environment variables.
type envOverrides struct {
	AssetRoot  string   `env:"ASSET_ROOT"`
	Workers    int      `env:"WORKERS"`
	Duplicates string   `env:"DUPLICATES"`
	LogLevel   string   `env:"LOG_LEVEL"`
	LogFormat  string   `env:"LOG_FORMAT"`
	Scenes     []string `env:"SCENES" envSeparator:","`
}

func Default() Config {
	return Config{
		AssetRoot:  ".",
		Duplicates: bridge.LastWins.String(),
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Override modifies the configuration after the environment was applied.
// It is used to apply command line flags.
type Override func(config *Config)

// Load reads the configuration file at filePath, applies the environment
// and the overrides and validates the result. An empty filePath only uses
// the defaults.
func Load(filePath string, overrides ...Override) (Config, error) {
	if filePath == "" {
		return finish(Default(), overrides)
	}

	src, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	return Parse(src, filePath, overrides...)
}

// Parse is like Load but reads the configuration from src.
func Parse(src []byte, filename string, overrides ...Override) (Config, error) {
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	config := Default()

	if parsed.AssetRoot != "" {
		config.AssetRoot = parsed.AssetRoot
	}

	if parsed.Workers != 0 {
		config.Workers = parsed.Workers
	}

	if parsed.Duplicates != "" {
		config.Duplicates = parsed.Duplicates
	}

	if parsed.LogLevel != "" {
		config.LogLevel = parsed.LogLevel
	}

	if parsed.LogFormat != "" {
		config.LogFormat = parsed.LogFormat
	}

	for _, scene := range parsed.Scenes {
		config.Scenes = append(config.Scenes, Scene(scene))
	}

	return finish(config, overrides)
}

func finish(config Config, overrides []Override) (Config, error) {
	if err := applyEnv(&config); err != nil {
		return Config{}, err
	}

	for _, override := range overrides {
		override(&config)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func applyEnv(config *Config) error {
	// unset variables keep the current value
	raw := envOverrides{
		AssetRoot:  config.AssetRoot,
		Workers:    config.Workers,
		Duplicates: config.Duplicates,
		LogLevel:   config.LogLevel,
		LogFormat:  config.LogFormat,
	}

	if err := env.ParseWithOptions(&raw, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	config.AssetRoot = raw.AssetRoot
	config.Workers = raw.Workers
	config.Duplicates = raw.Duplicates
	config.LogLevel = raw.LogLevel
	config.LogFormat = raw.LogFormat

	if len(raw.Scenes) > 0 {
		for idx := range raw.Scenes {
			raw.Scenes[idx] = strings.TrimSpace(raw.Scenes[idx])
		}

		WithScenePaths(raw.Scenes...)(config)
	}

	return nil
}

// WithScenePaths replaces the configured scenes.
func WithScenePaths(paths ...string) Override {
	return func(config *Config) {
		config.Scenes = nil

		for _, scenePath := range paths {
			config.Scenes = append(config.Scenes, Scene{
				Name: sceneNameOf(scenePath),
				Path: scenePath,
			})
		}
	}
}

func sceneNameOf(scenePath string) string {
	name, _, _ := strings.Cut(path.Base(scenePath), ".")
	return name
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	var errs []error

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}

	if _, err := c.DuplicatePolicy(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}

	if len(c.Scenes) == 0 {
		errs = append(errs, errors.New("at least one scene must be configured"))
	}

	names := map[string]bool{}
	for _, scene := range c.Scenes {
		if scene.Path == "" {
			errs = append(errs, fmt.Errorf("scene %q has no path", scene.Name))
		}

		if names[scene.Name] {
			errs = append(errs, fmt.Errorf("scene %q is configured more than once", scene.Name))
		}

		names[scene.Name] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	return nil
}

func (c Config) DuplicatePolicy() (bridge.DuplicatePolicy, error) {
	switch c.Duplicates {
	case bridge.LastWins.String():
		return bridge.LastWins, nil
	case bridge.FirstWins.String():
		return bridge.FirstWins, nil
	default:
		return 0, fmt.Errorf("duplicates must be %s or %s, got %q", bridge.LastWins, bridge.FirstWins, c.Duplicates)
	}
}

func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}

	return level, nil
}

func (c Config) ScenePaths() []string {
	paths := make([]string, 0, len(c.Scenes))
	for _, scene := range c.Scenes {
		paths = append(paths, scene.Path)
	}

	return paths
}
