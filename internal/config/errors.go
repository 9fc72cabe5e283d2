package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrMissingCredentials is returned when the app id or secret is missing.
	ErrMissingCredentials = errors.New("missing credentials: set LARK_APP_ID and LARK_APP_SECRET")

	// ErrMissingSpaceID is returned when no wiki space is configured.
	ErrMissingSpaceID = errors.New("no wiki space specified: set SPACE_ID or use --space")

	// ErrEmptyOutputName is returned when the output file name is empty.
	ErrEmptyOutputName = errors.New("output file name must not be empty")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxAttempts is returned when fewer than one attempt is allowed.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be at least 1")

	// ErrInvalidDelay is returned for negative backoff delays.
	ErrInvalidDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidPollInterval is returned for a negative poll interval.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be non-negative")

	// ErrInvalidPollTimeout is returned when the poll timeout is not positive.
	ErrInvalidPollTimeout = errors.New("invalid poll timeout: must be positive")

	// ErrInvalidConcurrency is returned when a concurrency limit is below 1.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidMaxDepth is returned for a negative maximum depth.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidPageSize is returned for a page size outside 1..50.
	ErrInvalidPageSize = errors.New("invalid page size: must be between 1 and 50")

	// ErrInvalidBurst is returned when throttling is enabled with no burst.
	ErrInvalidBurst = errors.New("invalid burst: must be at least 1 when a request rate is set")

	// ErrInvalidManifestFormat is returned for an unknown manifest format.
	ErrInvalidManifestFormat = errors.New("invalid manifest format: use none, text, markdown or json")
)
