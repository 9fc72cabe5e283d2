package exporter

import "errors"

var (
	// ErrPollTimeout is returned when a job stays pending longer than the
	// poll timeout.
	ErrPollTimeout = errors.New("export job did not finish in time")

	// ErrMissingFileToken is reported when a job succeeds without a file.
	ErrMissingFileToken = errors.New("export job succeeded without a file token")

	// ErrEmptyDownload is reported when a download yields no bytes.
	ErrEmptyDownload = errors.New("downloaded file is empty")
)
