// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "NODEFMT_CONFIG"

// Environment selects which override section applies.
type Environment string

const (
	// Local is a developer workstation.
	Local Environment = "local"
	// CI is a shared build machine.
	CI Environment = "ci"
)

// Config is the nodefmt configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Paths       PathsConfig       `yaml:"paths"`
	Executables ExecutablesConfig `yaml:"executables"`
	Server      ServerConfig      `yaml:"server"`
	REST        RESTConfig        `yaml:"rest"`
	Log         LogConfig         `yaml:"log"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	// CIOverrides applies when Environment is CI.
	CIOverrides *Overrides `yaml:"ci,omitempty"`
}

// Overrides holds the sections an environment may override.
type Overrides struct {
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Server *ServerConfig `yaml:"server,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// BuildDir holds one working directory per formatter step.
	BuildDir string `yaml:"build_dir"`

	// CacheDir holds installed dependency trees shared between builds.
	// Empty disables the install cache: every new working directory
	// runs npm install.
	CacheDir string `yaml:"cache_dir"`
}

// ExecutablesConfig pins the npm and node binaries. Empty values are
// resolved from the environment (NVM_BIN, NODE_PATH, PATH).
type ExecutablesConfig struct {
	Npm  string `yaml:"npm"`
	Node string `yaml:"node"`
}

// ServerConfig configures the formatter server lifecycle. Durations
// use time.ParseDuration syntax.
type ServerConfig struct {
	StartupTimeout string `yaml:"startup_timeout"`
	PollInterval   string `yaml:"poll_interval"`
	ShutdownGrace  string `yaml:"shutdown_grace"`

	// UniqueInstance gives every server start its own signal file name
	// so a leftover file from a crashed run can never be mistaken for
	// the new server's announcement.
	UniqueInstance bool `yaml:"unique_instance"`
}

// RESTConfig configures the HTTP client talking to the servers.
type RESTConfig struct {
	ConnectTimeout string `yaml:"connect_timeout"`
	ReadTimeout    string `yaml:"read_timeout"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// MetricsConfig configures metrics export.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics in node_exporter
	// textfile format after each command.
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used for unset values.
func Default() *Config {
	cacheHome, err := os.UserCacheDir()
	if err != nil {
		cacheHome = os.TempDir()
	}
	return &Config{
		Environment: Local,
		Paths: PathsConfig{
			BuildDir: filepath.Join("build", "nodefmt"),
			CacheDir: filepath.Join(cacheHome, "nodefmt", "node-modules"),
		},
		Server: ServerConfig{
			StartupTimeout: "60s",
			PollInterval:   "100ms",
			ShutdownGrace:  "5s",
		},
		REST: RESTConfig{
			ConnectTimeout: "60s",
			ReadTimeout:    "120s",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the file named by NODEFMT_CONFIG, or returns Default when
// the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		config := Default()
		config.expandVariables()
		return config, nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path on top of Default.
func LoadFile(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	config.applyEnvironmentOverrides()
	config.expandVariables()
	return config, nil
}

func (c *Config) applyEnvironmentOverrides() {
	if c.Environment != CI || c.CIOverrides == nil {
		return
	}
	overrides := c.CIOverrides

	if overrides.Paths != nil {
		if overrides.Paths.BuildDir != "" {
			c.Paths.BuildDir = overrides.Paths.BuildDir
		}
		if overrides.Paths.CacheDir != "" {
			c.Paths.CacheDir = overrides.Paths.CacheDir
		}
	}

	if overrides.Server != nil {
		if overrides.Server.StartupTimeout != "" {
			c.Server.StartupTimeout = overrides.Server.StartupTimeout
		}
		if overrides.Server.PollInterval != "" {
			c.Server.PollInterval = overrides.Server.PollInterval
		}
		if overrides.Server.ShutdownGrace != "" {
			c.Server.ShutdownGrace = overrides.Server.ShutdownGrace
		}
		// A bool cannot be "unset", so the override always applies.
		c.Server.UniqueInstance = overrides.Server.UniqueInstance
	}

	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func (c *Config) expandVariables() {
	c.Paths.BuildDir = expandVars(c.Paths.BuildDir)
	c.Paths.CacheDir = expandVars(c.Paths.CacheDir)
	c.Executables.Npm = expandVars(c.Executables.Npm)
	c.Executables.Node = expandVars(c.Executables.Node)
	c.Metrics.Textfile = expandVars(c.Metrics.Textfile)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// process environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Local && c.Environment != CI {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	if c.Paths.BuildDir == "" {
		errs = append(errs, errors.New("paths.build_dir is required"))
	}

	var timeouts Timeouts
	for _, field := range c.durationFields(&timeouts) {
		if _, err := parsePositive(field.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field.name, err))
		}
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Timeouts holds the parsed server and REST durations.
type Timeouts struct {
	StartupTimeout time.Duration
	PollInterval   time.Duration
	ShutdownGrace  time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Timeouts parses the duration fields. Call Validate first for a
// complete error report.
func (c *Config) Timeouts() (Timeouts, error) {
	var timeouts Timeouts
	for _, field := range c.durationFields(&timeouts) {
		parsed, err := parsePositive(field.value)
		if err != nil {
			return Timeouts{}, fmt.Errorf("%s: %w", field.name, err)
		}
		*field.target = parsed
	}
	return timeouts, nil
}

type durationField struct {
	name   string
	value  string
	target *time.Duration
}

func (c *Config) durationFields(timeouts *Timeouts) []durationField {
	return []durationField{
		{"server.startup_timeout", c.Server.StartupTimeout, &timeouts.StartupTimeout},
		{"server.poll_interval", c.Server.PollInterval, &timeouts.PollInterval},
		{"server.shutdown_grace", c.Server.ShutdownGrace, &timeouts.ShutdownGrace},
		{"rest.connect_timeout", c.REST.ConnectTimeout, &timeouts.ConnectTimeout},
		{"rest.read_timeout", c.REST.ReadTimeout, &timeouts.ReadTimeout},
	}
}

func parsePositive(value string) (time.Duration, error) {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", value)
	}
	return parsed, nil
}

// SlogLevel maps Level to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", l.Level)
	}
}
