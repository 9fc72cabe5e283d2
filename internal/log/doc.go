// Package log provides secure logging on top of log/slog.
//
// SecureHandler wraps any slog.Handler and masks sensitive attributes
// before they are written:
//   - HTTP headers (Authorization, Cookie, Proxy-Authorization)
//   - Lark credentials (app_secret, tenant_access_token and friends)
//   - Values that look like access tokens or proxy URLs with a password
//
// Masking also applies in verbose mode, so debug logs can be shared.
//
//	logger := log.New(os.Stderr, verbose, false)
//	logger.Info("token acquired", "tenant_access_token", tok) // tenant_access_token=***REDACTED***
package log
