package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pfrederiksen/uqam-horaire/internal/course"
	"github.com/pfrederiksen/uqam-horaire/internal/logger"
	"github.com/pfrederiksen/uqam-horaire/internal/scraper"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvHost        = "UQAM_HORAIRE_HOST"
	EnvConcurrency = "UQAM_HORAIRE_CONCURRENCY"
	EnvRPS         = "UQAM_HORAIRE_RPS"
	EnvTimeout     = "UQAM_HORAIRE_TIMEOUT"
	EnvMaxRetries  = "UQAM_HORAIRE_MAX_RETRIES"
	EnvLogLevel    = "UQAM_HORAIRE_LOG_LEVEL"
)

// Config is the batch configuration
type Config struct {
	Host              string          `toml:"host" yaml:"host"`
	BaseURL           string          `toml:"base_url" yaml:"base_url"` // Scheme and host, overrides Host
	Concurrency       int             `toml:"concurrency" yaml:"concurrency"`
	RequestsPerSecond float64         `toml:"requests_per_second" yaml:"requests_per_second"`
	Timeout           string          `toml:"timeout" yaml:"timeout"`
	MaxRetries        int             `toml:"max_retries" yaml:"max_retries"`
	CacheTTL          string          `toml:"cache_ttl" yaml:"cache_ttl"`
	LogLevel          string          `toml:"log_level" yaml:"log_level"`
	Fields            []string        `toml:"fields" yaml:"fields"`
	Courses           []course.Course `toml:"courses" yaml:"courses"`
}

// Default returns the configuration used when a file leaves a value out
func Default() *Config {
	return &Config{
		Host:              course.DefaultHost,
		Concurrency:       4,
		RequestsPerSecond: scraper.DefaultRequestsPerSecond,
		Timeout:           scraper.Timeout.String(),
		MaxRetries:        scraper.DefaultMaxRetries,
		CacheTTL:          scraper.DefaultCacheTTL.String(),
		LogLevel:          "info",
	}
}

// Load reads a batch file, applies environment overrides and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("loading from environment: %w", err)
	}

	for i := range cfg.Courses {
		cfg.Courses[i] = course.New(cfg.Courses[i].Symbol, cfg.Courses[i].Year, cfg.Courses[i].Semester, cfg.Courses[i].ProgramCode)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// decode picks the format from the file extension
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// applyEnv overrides values with UQAM_HORAIRE_* environment variables
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvHost); ok {
		cfg.Host = v
	}
	if v, ok := os.LookupEnv(EnvConcurrency); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConcurrency, err)
		}
		cfg.Concurrency = n
	}
	if v, ok := os.LookupEnv(EnvRPS); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRPS, err)
		}
		cfg.RequestsPerSecond = f
	}
	if v, ok := os.LookupEnv(EnvTimeout); ok {
		cfg.Timeout = v
	}
	if v, ok := os.LookupEnv(EnvMaxRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxRetries, err)
		}
		cfg.MaxRetries = n
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks every value and every course
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative, got %g", c.RequestsPerSecond)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.CacheTTLDuration(); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := scraper.ParseFields(c.Fields); err != nil {
		return err
	}

	if len(c.Courses) == 0 {
		return fmt.Errorf("at least one course is required")
	}
	for i, crs := range c.Courses {
		if err := crs.Validate(); err != nil {
			return fmt.Errorf("course %d: %w", i+1, err)
		}
	}

	return nil
}

// TimeoutDuration parses Timeout
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid timeout: %q", c.Timeout)
	}
	return d, nil
}

// CacheTTLDuration parses CacheTTL. An empty value disables the page cache.
func (c *Config) CacheTTLDuration() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid cache_ttl: %q", c.CacheTTL)
	}
	return d, nil
}

// ScraperOptions converts the configuration to scraper options. It assumes
// Validate has succeeded.
func (c *Config) ScraperOptions() []scraper.Option {
	timeout, _ := c.TimeoutDuration()
	ttl, _ := c.CacheTTLDuration()
	fields, _ := scraper.ParseFields(c.Fields)

	opts := []scraper.Option{
		scraper.WithHost(c.Host),
		scraper.WithTimeout(timeout),
		scraper.WithRateLimit(c.RequestsPerSecond),
		scraper.WithMaxRetries(uint64(c.MaxRetries)),
		scraper.WithCacheTTL(ttl),
		scraper.WithFields(fields),
	}
	if c.BaseURL != "" {
		opts = append(opts, scraper.WithBaseURL(c.BaseURL))
	}
	return opts
}
