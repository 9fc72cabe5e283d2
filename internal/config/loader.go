package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".wikibinder"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk YAML configuration.
// Every field is optional. Unset fields leave the Config untouched, so
// the file only needs to name what differs from the defaults.
//
// Credentials are deliberately absent: they come from the environment.
type File struct {
	SpaceID  string        `yaml:"space_id"`
	BaseURL  string        `yaml:"base_url"`
	Proxy    string        `yaml:"proxy"`
	Timeout  time.Duration `yaml:"timeout"`
	Manifest string        `yaml:"manifest"`

	Output    OutputSection    `yaml:"output"`
	Crawl     CrawlSection     `yaml:"crawl"`
	Export    ExportSection    `yaml:"export"`
	Retry     RetrySection     `yaml:"retry"`
	RateLimit RateLimitSection `yaml:"rate_limit"`
}

// OutputSection configures where the bound document goes.
type OutputSection struct {
	Dir   string `yaml:"dir"`
	Name  string `yaml:"name"`
	Cover string `yaml:"cover"`
}

// CrawlSection configures the wiki tree walk.
type CrawlSection struct {
	Concurrency int `yaml:"concurrency"`
	MaxDepth    int `yaml:"max_depth"`
	PageSize    int `yaml:"page_size"`
}

// ExportSection configures the export jobs.
type ExportSection struct {
	Concurrency  int           `yaml:"concurrency"`
	PollInterval time.Duration `yaml:"poll_interval"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
}

// RetrySection configures the backoff policy.
type RetrySection struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// RateLimitSection configures the client-side throttle.
type RateLimitSection struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Apply copies every non-zero field of f into c.
func (f *File) Apply(c *Config) {
	setString(&c.SpaceID, f.SpaceID)
	setString(&c.BaseURL, f.BaseURL)
	setString(&c.ProxyURL, f.Proxy)
	setString(&c.Manifest, f.Manifest)
	setString(&c.OutputDir, f.Output.Dir)
	setString(&c.OutputName, f.Output.Name)
	setString(&c.CoverPath, f.Output.Cover)

	setDuration(&c.Timeout, f.Timeout)
	setDuration(&c.PollInterval, f.Export.PollInterval)
	setDuration(&c.PollTimeout, f.Export.PollTimeout)
	setDuration(&c.BaseDelay, f.Retry.BaseDelay)
	setDuration(&c.MaxDelay, f.Retry.MaxDelay)

	setInt(&c.CrawlConcurrency, f.Crawl.Concurrency)
	setInt(&c.MaxDepth, f.Crawl.MaxDepth)
	setInt(&c.PageSize, f.Crawl.PageSize)
	setInt(&c.ExportConcurrency, f.Export.Concurrency)
	setInt(&c.MaxAttempts, f.Retry.MaxAttempts)
	setInt(&c.Burst, f.RateLimit.Burst)

	if f.RateLimit.RequestsPerSecond != 0 {
		c.RequestsPerSecond = f.RateLimit.RequestsPerSecond
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// LoadConfigFile loads the configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .wikibinder in the current directory
// 3. Look for .wikibinder in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
