package crawler

import "errors"

var (
	// ErrEmptySpaceID is returned when Crawl is called without a space.
	ErrEmptySpaceID = errors.New("space id is empty")

	// ErrMaxDepthExceeded is returned when the space is nested deeper than
	// the configured limit.
	ErrMaxDepthExceeded = errors.New("wiki tree exceeds maximum depth")
)
