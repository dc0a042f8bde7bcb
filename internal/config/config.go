// Package config loads the headline harvester configuration from a YAML
// file, fills in defaults and applies command line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidSettleDelay = errors.New("browser.settle_delay must be positive")
	ErrInvalidPoll        = errors.New("browser.poll_interval must be positive and not exceed settle_delay")
	ErrInvalidNavTimeout  = errors.New("browser.nav_timeout must be positive")
	ErrInvalidMaxLoadMore = errors.New("crawler.max_load_more must be at least 1")
	ErrInvalidScanLimit   = errors.New("crawler.scan_limit must be non-negative")
	ErrInvalidRetries     = errors.New("crawler.retries must be non-negative")
	ErrMissingBaseURL     = errors.New("archive.base_url is required")
	ErrInvalidFormat      = errors.New("output.format must be one of: csv, json, sqlite")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrIncompleteLayout   = errors.New("layout needs results_root, load_more, article and at least one headline and published pattern")
)

// Config is the complete configuration
type Config struct {
	Archive ArchiveConfig `yaml:"archive"`
	Browser BrowserConfig `yaml:"browser"`
	Crawler CrawlerConfig `yaml:"crawler"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Layout  Layout        `yaml:"layout"`
}

// ArchiveConfig points at the archive search
type ArchiveConfig struct {
	BaseURL  string `yaml:"base_url"`
	Category string `yaml:"category"`
}

// BrowserConfig configures session construction and settle waits
type BrowserConfig struct {
	DriverPath   string        `yaml:"driver_path"`
	Headless     bool          `yaml:"headless"`
	UserAgent    string        `yaml:"user_agent"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	NavTimeout   time.Duration `yaml:"nav_timeout"`
}

// CrawlerConfig bounds the probe and harvest loops
type CrawlerConfig struct {
	// ScanLimit caps DOM positions visited by the harvester; 0 derives it
	// from the wanted count
	ScanLimit   int    `yaml:"scan_limit"`
	MaxLoadMore int    `yaml:"max_load_more"`
	Retries     int    `yaml:"retries"`
	Snapshot    string `yaml:"snapshot"`
}

// OutputConfig selects the sink
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// LoggingConfig sets the log level
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Layout holds the CSS selectors describing the results markup. Headline
// and published patterns are relative to an article and tried in order.
type Layout struct {
	ResultsRoot       string   `yaml:"results_root"`
	LoadMore          string   `yaml:"load_more"`
	Article           string   `yaml:"article"`
	HeadlinePatterns  []string `yaml:"headline_patterns"`
	PublishedPatterns []string `yaml:"published_patterns"`
}

const resultsRoot = "body > div:nth-of-type(1) > div:nth-of-type(2) > div:nth-of-type(3) > div:nth-of-type(1) > div:nth-of-type(2) > main > section:nth-of-type(4) > section > div:nth-of-type(2) > section"

// DefaultLayout matches the archive's search results page
func DefaultLayout() Layout {
	return Layout{
		ResultsRoot: resultsRoot,
		LoadMore:    "div > button",
		Article:     "article",
		HeadlinePatterns: []string{
			"a > section > div:nth-of-type(1) > div:nth-of-type(2) > h2 > span:nth-of-type(2)",
			"a > section > div:nth-of-type(1) > div:nth-of-type(2) > h2 > span",
			"a > section > div:nth-of-type(1) > div > h2 > span:nth-of-type(2)",
			"a > section > div:nth-of-type(1) > div > h2 > span",
		},
		PublishedPatterns: []string{
			"a > section > div:nth-of-type(2) > div:nth-of-type(1) > time",
			"a > section > div:nth-of-type(2) > div:nth-of-type(2) > time",
		},
	}
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Archive: ArchiveConfig{
			BaseURL:  "https://www.hs.fi",
			Category: "kaikki",
		},
		Browser: BrowserConfig{
			Headless:     true,
			SettleDelay:  3 * time.Second,
			PollInterval: 250 * time.Millisecond,
			NavTimeout:   45 * time.Second,
		},
		Crawler: CrawlerConfig{
			MaxLoadMore: 500,
			Retries:     2,
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: "csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Layout: DefaultLayout(),
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, cfg.Validate()
}

// Merge applies non-zero fields of override on top of c
func (c *Config) Merge(override Config) error {
	if err := mergo.Merge(c, override, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge config overrides: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the crawler cannot run with
func (c *Config) Validate() error {
	if c.Archive.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Browser.SettleDelay <= 0 {
		return ErrInvalidSettleDelay
	}
	if c.Browser.PollInterval <= 0 || c.Browser.PollInterval > c.Browser.SettleDelay {
		return ErrInvalidPoll
	}
	if c.Browser.NavTimeout <= 0 {
		return ErrInvalidNavTimeout
	}
	if c.Crawler.MaxLoadMore < 1 {
		return ErrInvalidMaxLoadMore
	}
	if c.Crawler.ScanLimit < 0 {
		return ErrInvalidScanLimit
	}
	if c.Crawler.Retries < 0 {
		return ErrInvalidRetries
	}

	switch c.Output.Format {
	case "csv", "json", "sqlite":
	default:
		return ErrInvalidFormat
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	l := c.Layout
	if l.ResultsRoot == "" || l.LoadMore == "" || l.Article == "" ||
		len(l.HeadlinePatterns) == 0 || len(l.PublishedPatterns) == 0 {
		return ErrIncompleteLayout
	}

	return nil
}
