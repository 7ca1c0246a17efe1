// Package config loads crawler settings from defaults, a YAML file, the
// environment and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures everything needed to run one crawl.
type Config struct {
	Seed          string        `yaml:"seed"`
	LogFile       string        `yaml:"log_file"`
	Concurrency   int           `yaml:"concurrency"`
	Interactive   bool          `yaml:"interactive"`
	FetchTimeout  Duration      `yaml:"fetch_timeout"`
	RobotsTimeout Duration      `yaml:"robots_timeout"`
	RobotsMode    string        `yaml:"robots_mode"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`
	MetricsAddr   string        `yaml:"metrics_addr"`
	Archive       ArchiveConfig `yaml:"archive"`
	Display       DisplayConfig `yaml:"display"`
	Logging       LoggingConfig `yaml:"logging"`
}

// ArchiveConfig selects where fetched pages are stored.
type ArchiveConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

// DisplayConfig tunes the live status screen.
type DisplayConfig struct {
	Interval    Duration `yaml:"interval"`
	SampleWidth int      `yaml:"sample_width"`
	Step        int      `yaml:"step"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Seed:          "https://www.google.com",
		LogFile:       "crawl.log",
		Concurrency:   20,
		Interactive:   true,
		FetchTimeout:  DurationFrom(4 * time.Second),
		RobotsTimeout: DurationFrom(5 * time.Second),
		RobotsMode:    "prefix",
		UserAgent:     "crawly/1.0",
		MaxBodyBytes:  1 << 20,
		Archive: ArchiveConfig{
			Backend: "none",
		},
		Display: DisplayConfig{
			Interval:    DurationFrom(500 * time.Millisecond),
			SampleWidth: 40,
			Step:        10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path on top of Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes YAML from r on top of Default.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from CRAWLY_* variables and MONGODB_URI.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CRAWLY_SEED"); ok && v != "" {
		c.Seed = v
	}
	if v, ok := lookup("CRAWLY_LOG_FILE"); ok && v != "" {
		c.LogFile = v
	}
	if v, ok := lookup("CRAWLY_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CRAWLY_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v, ok := lookup("CRAWLY_INTERACTIVE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CRAWLY_INTERACTIVE: %w", err)
		}
		c.Interactive = b
	}
	if v, ok := lookup("CRAWLY_USER_AGENT"); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup("CRAWLY_METRICS_ADDR"); ok {
		c.MetricsAddr = v
	}
	if v, ok := lookup("CRAWLY_ARCHIVE"); ok && v != "" {
		c.Archive.Backend = v
	}
	if v, ok := lookup("MONGODB_URI"); ok && v != "" && c.Archive.Backend == "mongo" && c.Archive.DSN == "" {
		c.Archive.DSN = v
	}
	return nil
}

// Validate checks the configuration for values the crawler cannot use.
func (c Config) Validate() error {
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.FetchTimeout.Duration <= 0 || c.RobotsTimeout.Duration <= 0 {
		return ErrInvalidTimeout
	}
	switch c.RobotsMode {
	case "prefix", "agent":
	default:
		return ErrInvalidRobotsMode
	}
	switch c.Archive.Backend {
	case "none", "mongo", "sqlite":
	default:
		return ErrInvalidArchive
	}
	if c.MaxBodyBytes < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Display.SampleWidth <= 0 {
		return ErrInvalidSampleWidth
	}
	if c.Display.Interval.Duration <= 0 {
		return ErrInvalidDisplayTimer
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel maps Logging.Level to a slog level.
func (c Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, ErrInvalidLogLevel
	}
}
