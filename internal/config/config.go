// Package config provides configuration management for rustle using Viper for
// flexible loading from files, environment variables, and command-line flags.
//
// The configuration system supports YAML files, environment variable overrides
// with the RUSTLE_ prefix, validation, and security checks. Every field has a
// default, so a `.rustle.yml` written by an older release keeps loading after
// new fields are added.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Build  BuildConfig  `yaml:"build"`
	Wasm   WasmConfig   `yaml:"wasm"`
	Watch  WatchConfig  `yaml:"watch"`
	Checks ChecksConfig `yaml:"checks"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	Open           bool     `yaml:"open"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Environment    string   `yaml:"environment"`
}

type BuildConfig struct {
	Cargo    string   `yaml:"cargo"`
	Locked   bool     `yaml:"locked"`
	Features []string `yaml:"features"`
}

type WasmConfig struct {
	Crate   string `yaml:"crate"`
	Target  string `yaml:"target"`
	Profile string `yaml:"profile"`
	Bindgen string `yaml:"bindgen"`
	Dist    string `yaml:"dist"`
	Assets  string `yaml:"assets"`
}

type WatchConfig struct {
	Paths      []string `yaml:"paths"`
	Ignore     []string `yaml:"ignore"`
	DebounceMs int      `yaml:"debounce_ms"`
}

type ChecksConfig struct {
	Parallel bool     `yaml:"parallel"`
	Jobs     int      `yaml:"jobs"`
	Enabled  []string `yaml:"enabled"`
	Typos    string   `yaml:"typos"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultCheckOrder is the order checks run in when not configured otherwise.
var DefaultCheckOrder = []string{"fmt", "lint", "check", "test", "spell"}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle slices set via viper (workaround for viper slice handling)
	if viper.IsSet("watch.paths") && len(config.Watch.Paths) == 0 {
		config.Watch.Paths = viper.GetStringSlice("watch.paths")
	}
	if viper.IsSet("watch.ignore") && len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = viper.GetStringSlice("watch.ignore")
	}
	if viper.IsSet("checks.enabled") && len(config.Checks.Enabled) == 0 {
		config.Checks.Enabled = viper.GetStringSlice("checks.enabled")
	}
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}

	// Handle booleans set via viper (workaround for viper bool handling)
	if viper.IsSet("checks.parallel") {
		config.Checks.Parallel = viper.GetBool("checks.parallel")
	}
	if viper.IsSet("build.locked") {
		config.Build.Locked = viper.GetBool("build.locked")
	}

	applyDefaults(&config)

	// Override no-open if explicitly set via flag
	if viper.IsSet("server.no-open") && viper.GetBool("server.no-open") {
		config.Server.Open = false
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults fills every unset field. New fields added here keep old
// config files loading unchanged.
func applyDefaults(config *Config) {
	if config.Server.Port == 0 && !viper.IsSet("server.port") {
		config.Server.Port = 8420
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}
	if !viper.IsSet("server.open") && !viper.IsSet("server.no-open") {
		config.Server.Open = true
	}

	if config.Build.Cargo == "" {
		config.Build.Cargo = "cargo"
	}

	if config.Wasm.Target == "" {
		config.Wasm.Target = "wasm32-unknown-unknown"
	}
	if config.Wasm.Profile == "" {
		config.Wasm.Profile = "dev"
	}
	if config.Wasm.Bindgen == "" {
		config.Wasm.Bindgen = "wasm-bindgen"
	}
	if config.Wasm.Dist == "" {
		config.Wasm.Dist = "dist"
	}
	if config.Wasm.Assets == "" {
		config.Wasm.Assets = "assets"
	}

	if len(config.Watch.Paths) == 0 {
		config.Watch.Paths = []string{"src"}
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = []string{"target", ".git"}
	}
	if config.Watch.DebounceMs <= 0 {
		config.Watch.DebounceMs = 300
	}

	if !viper.IsSet("checks.parallel") {
		config.Checks.Parallel = true
	}
	if config.Checks.Jobs <= 0 {
		config.Checks.Jobs = runtime.NumCPU()
	}
	if len(config.Checks.Enabled) == 0 {
		config.Checks.Enabled = append([]string(nil), DefaultCheckOrder...)
	}
	if config.Checks.Typos == "" {
		config.Checks.Typos = "typos"
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateWasmConfig(&config.Wasm); err != nil {
		return fmt.Errorf("wasm config: %w", err)
	}

	for _, path := range config.Watch.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid watch path '%s': %w", path, err)
		}
	}

	for _, name := range config.Checks.Enabled {
		if !knownCheck(name) {
			return fmt.Errorf("checks config: unknown check '%s'", name)
		}
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

func validateWasmConfig(config *WasmConfig) error {
	for name, dir := range map[string]string{"dist": config.Dist, "assets": config.Assets} {
		cleanPath := filepath.Clean(dir)

		if strings.Contains(cleanPath, "..") {
			return fmt.Errorf("%s contains path traversal: %s", name, dir)
		}

		// Relative paths only, the server roots them under the project
		if filepath.IsAbs(cleanPath) {
			return fmt.Errorf("%s should be a relative path: %s", name, dir)
		}
	}

	if !strings.HasPrefix(config.Target, "wasm32-") {
		return fmt.Errorf("target '%s' is not a WebAssembly target", config.Target)
	}

	return nil
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

func knownCheck(name string) bool {
	for _, known := range DefaultCheckOrder {
		if name == known {
			return true
		}
	}
	return name == "doc"
}
