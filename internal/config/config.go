// Package config provides Viper-based configuration loading for the dice
// tools and the dice shell server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/gamzia/internal/histogram"
)

// ResolverConfig holds expression resolver settings.
type ResolverConfig struct {
	// Mode is "strict" (errors returned) or "lenient" (recoverable errors yield 0).
	Mode string `mapstructure:"mode"`
	// Source selects the dice random source: "time", "crypto", or "seeded".
	Source string `mapstructure:"source"`
	// Seed is the base seed for the "seeded" source.
	Seed uint64 `mapstructure:"seed"`
	// MaxDice caps the dice rolled by a single d operator.
	MaxDice int64 `mapstructure:"max_dice"`
}

// Lenient reports whether the resolver runs in lenient mode.
func (r ResolverConfig) Lenient() bool { return r.Mode == "lenient" }

// HistogramConfig holds sampler settings.
type HistogramConfig struct {
	// Columns is the width of the modal bar in the pictorial histogram.
	Columns int `mapstructure:"columns"`
	// MaxTrials is the upper clamp on trials per run.
	MaxTrials int64 `mapstructure:"max_trials"`
	// DefaultTrials is used when a caller does not name a trial count. Like
	// any requested count it is clamped to [1, MaxTrials] when sampling.
	DefaultTrials int64 `mapstructure:"default_trials"`
	// Workers is the number of parallel resolvers per run.
	Workers int `mapstructure:"workers"`
	// Budget bounds a run's wall-clock duration; 0 disables the bound.
	Budget time.Duration `mapstructure:"budget"`
}

// SamplerConfig converts to the sampler's own configuration.
func (h HistogramConfig) SamplerConfig() histogram.Config {
	return histogram.Config{
		Columns:   h.Columns,
		MaxTrials: h.MaxTrials,
		Workers:   h.Workers,
		Budget:    h.Budget,
	}
}

// DatabaseConfig holds PostgreSQL connection settings for the sampling-run store.
type DatabaseConfig struct {
	// Enabled turns on recording of histogram runs.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout", or a file path.
	Output string `mapstructure:"output"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit bounds the VM instructions a single script call may run.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// PresetsConfig locates the named-expression file.
type PresetsConfig struct {
	// Path is the YAML presets file; empty disables presets.
	Path string `mapstructure:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Histogram HistogramConfig `mapstructure:"histogram"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Presets   PresetsConfig   `mapstructure:"presets"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateLogging(c.Logging),
		validateResolver(c.Resolver),
		validateHistogram(c.Histogram),
		validateTelnet(c.Telnet),
		validateScripting(c.Scripting),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateResolver(r ResolverConfig) error {
	var errs []string
	validModes := map[string]bool{"strict": true, "lenient": true}
	if !validModes[r.Mode] {
		errs = append(errs, fmt.Sprintf("resolver.mode must be one of [strict, lenient], got %q", r.Mode))
	}
	validSources := map[string]bool{"time": true, "crypto": true, "seeded": true}
	if !validSources[r.Source] {
		errs = append(errs, fmt.Sprintf("resolver.source must be one of [time, crypto, seeded], got %q", r.Source))
	}
	if r.MaxDice < 1 {
		errs = append(errs, fmt.Sprintf("resolver.max_dice must be >= 1, got %d", r.MaxDice))
	}
	return joined(errs)
}

func validateHistogram(h HistogramConfig) error {
	var errs []string
	if h.Columns < 1 {
		errs = append(errs, fmt.Sprintf("histogram.columns must be >= 1, got %d", h.Columns))
	}
	if h.MaxTrials < 1 || h.MaxTrials > histogram.DefaultMaxTrials {
		errs = append(errs, fmt.Sprintf("histogram.max_trials must be 1-%d, got %d", histogram.DefaultMaxTrials, h.MaxTrials))
	}
	if h.Workers < 1 {
		errs = append(errs, fmt.Sprintf("histogram.workers must be >= 1, got %d", h.Workers))
	}
	if h.Budget < 0 {
		errs = append(errs, "histogram.budget must not be negative")
	}
	return joined(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 1 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// New returns a Viper instance with the DICE_ environment overrides and all
// defaults applied.
func New() *viper.Viper {
	v := viper.New()

	// Environment variable overrides with DICE_ prefix
	v.SetEnvPrefix("DICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// Default returns the defaults with environment overrides and no config file.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Default() (Config, error) {
	return LoadFromViper(New())
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("resolver.mode", "strict")
	v.SetDefault("resolver.source", "time")
	v.SetDefault("resolver.seed", 0)
	v.SetDefault("resolver.max_dice", 1_000_000)

	v.SetDefault("histogram.columns", histogram.DefaultColumns)
	v.SetDefault("histogram.max_trials", histogram.DefaultMaxTrials)
	v.SetDefault("histogram.default_trials", 10_000)
	v.SetDefault("histogram.workers", 1)
	v.SetDefault("histogram.budget", "0s")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "5m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dice")
	v.SetDefault("database.password", "dice")
	v.SetDefault("database.name", "dice")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("scripting.instruction_limit", 100_000)

	v.SetDefault("presets.path", "")
}
