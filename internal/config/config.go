package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "wikibinder"

	// DefaultSpaceID is the wiki space exported when none is configured.
	DefaultSpaceID = "7355566671643279392"

	// DefaultOutputDir receives the bound document.
	DefaultOutputDir = "out"

	// DefaultOutputName is the bound document's file name.
	DefaultOutputName = "guide.pdf"

	// DefaultBaseURL is the Feishu Open API origin. Lark tenants use
	// https://open.larksuite.com.
	DefaultBaseURL = "https://open.feishu.cn"

	// DefaultTimeout bounds one HTTP request including the body. Large
	// exports take a while to download.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxAttempts is the total number of attempts per remote call.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the backoff unit.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxDelay caps the exponential backoff.
	DefaultMaxDelay = 30 * time.Second

	// DefaultPollInterval is the wait between status queries of a pending
	// export job.
	DefaultPollInterval = 1 * time.Second

	// DefaultPollTimeout bounds how long an export job may stay pending.
	DefaultPollTimeout = 10 * time.Minute

	// DefaultExportConcurrency is the number of documents exported at once.
	DefaultExportConcurrency = 8

	// DefaultCrawlConcurrency is the number of listing calls in flight.
	DefaultCrawlConcurrency = 4

	// DefaultRequestsPerSecond throttles requests on the client side.
	DefaultRequestsPerSecond = 5.0

	// DefaultBurst is the token bucket size of the client-side throttle.
	DefaultBurst = 5

	// DefaultPageSize is the node listing page size. 50 is the API maximum.
	DefaultPageSize = 50

	// MaxPageSize is the largest page size the listing API accepts.
	MaxPageSize = 50

	// DefaultUserAgent identifies wikibinder in HTTP requests.
	DefaultUserAgent = "wikibinder/1.0 (+https://github.com/nao1215/wikibinder)"

	// DefaultManifest disables the run manifest.
	DefaultManifest = ManifestNone
)

// Run manifest formats.
const (
	ManifestNone     = "none"
	ManifestText     = "text"
	ManifestMarkdown = "markdown"
	ManifestJSON     = "json"
)

// Config holds all configuration options for wikibinder.
// It is built once at startup from, in increasing priority, the YAML
// config file, .env files, environment variables and CLI flags, and is
// then passed to the components that need it.
type Config struct {
	// AppID and AppSecret are the Lark application credentials.
	AppID     string
	AppSecret string

	// SpaceID is the wiki space to export.
	SpaceID string

	// CoverPath is an optional PDF placed before the exported documents.
	CoverPath string

	// OutputDir and OutputName locate the bound document.
	OutputDir  string
	OutputName string

	// BaseURL is the Open API origin.
	BaseURL string

	// ProxyURL optionally routes API traffic through a socks5 or http proxy.
	ProxyURL string

	// UserAgent is sent with every API request.
	UserAgent string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxAttempts, BaseDelay and MaxDelay make up the retry policy.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// PollInterval is the wait between status queries of a pending job.
	PollInterval time.Duration

	// PollTimeout bounds how long a job may stay pending.
	PollTimeout time.Duration

	// ExportConcurrency is the number of documents exported at once.
	ExportConcurrency int

	// CrawlConcurrency is the number of listing calls in flight.
	CrawlConcurrency int

	// MaxDepth fails the crawl for deeper spaces. 0 means unlimited.
	MaxDepth int

	// PageSize is the number of nodes requested per listing call.
	PageSize int

	// RequestsPerSecond and Burst configure the client-side throttle.
	// A non-positive rate disables it.
	RequestsPerSecond float64
	Burst             int

	// Manifest selects the run manifest written next to the document.
	Manifest string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the log output to JSON.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .wikibinder is searched in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// DBDir is the directory holding the export history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB records successful runs in the export history.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		SpaceID:           DefaultSpaceID,
		OutputDir:         DefaultOutputDir,
		OutputName:        DefaultOutputName,
		BaseURL:           DefaultBaseURL,
		UserAgent:         DefaultUserAgent,
		Timeout:           DefaultTimeout,
		MaxAttempts:       DefaultMaxAttempts,
		BaseDelay:         DefaultBaseDelay,
		MaxDelay:          DefaultMaxDelay,
		PollInterval:      DefaultPollInterval,
		PollTimeout:       DefaultPollTimeout,
		ExportConcurrency: DefaultExportConcurrency,
		CrawlConcurrency:  DefaultCrawlConcurrency,
		PageSize:          DefaultPageSize,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
		Manifest:          DefaultManifest,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// OutputPath returns the path of the bound document.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputName)
}

// XDGDataDir returns the XDG data directory for wikibinder.
// On Linux: ~/.local/share/wikibinder
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikibinder.
// On Linux: ~/.config/wikibinder
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.AppID == "" || c.AppSecret == "" {
		return ErrMissingCredentials
	}
	if c.SpaceID == "" {
		return ErrMissingSpaceID
	}
	if c.OutputName == "" {
		return ErrEmptyOutputName
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.BaseDelay < 0 || c.MaxDelay < 0 {
		return ErrInvalidDelay
	}
	if c.PollInterval < 0 {
		return ErrInvalidPollInterval
	}
	if c.PollTimeout <= 0 {
		return ErrInvalidPollTimeout
	}
	if c.ExportConcurrency < 1 || c.CrawlConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		return ErrInvalidBurst
	}
	switch c.Manifest {
	case ManifestNone, ManifestText, ManifestMarkdown, ManifestJSON:
	default:
		return ErrInvalidManifestFormat
	}
	return nil
}
