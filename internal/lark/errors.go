package lark

import (
	"errors"
	"net/http"

	"github.com/nao1215/wikibinder/internal/model"
)

// Response codes with special handling.
const (
	codeOK = 0

	// codeInvalidAccessToken and friends mean the cached tenant token must
	// be refreshed.
	codeInvalidAccessToken   = 99991661
	codeExpiredAccessToken   = 99991663
	codeInvalidTenantToken   = 99991668
	codeInvalidAppTicket     = 10012
	codeInvalidAppCredential = 10014
)

var (
	// ErrInvalidProxyAddress is returned when the proxy URL is malformed.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected socks5://host:port or http(s)://host:port")

	// ErrMissingCredentials is returned when the app id or secret is empty.
	ErrMissingCredentials = errors.New("lark app id and app secret are required")

	// ErrEmptyTicket is returned when job submission succeeds without a ticket.
	ErrEmptyTicket = errors.New("export task created without a ticket")

	// ErrMissingJobStatus is returned when a status query carries no job status.
	ErrMissingJobStatus = errors.New("export task status response without job status")
)

// classify maps a response code and HTTP status to a model error.
// It returns nil when the response is a success.
func classify(op string, status, code int, msg string) error {
	switch {
	case code == model.RateLimitCode || status == http.StatusTooManyRequests:
		if code == codeOK {
			code = model.RateLimitCode
		}
		return &model.RateLimitError{Op: op, Code: code, Msg: msg}
	case code != codeOK:
		if code == codeInvalidAppCredential || code == codeInvalidAppTicket {
			return model.Permanent(&model.APIError{Op: op, Code: code, Msg: msg})
		}
		return &model.APIError{Op: op, Code: code, Msg: msg}
	case status >= http.StatusInternalServerError:
		return &model.TransportError{Op: op, Err: errors.New(http.StatusText(status))}
	case status >= http.StatusBadRequest:
		return &model.APIError{Op: op, Code: status, Msg: http.StatusText(status)}
	default:
		return nil
	}
}

// isTokenError reports whether code means the tenant token is unusable.
func isTokenError(code int) bool {
	switch code {
	case codeInvalidAccessToken, codeExpiredAccessToken, codeInvalidTenantToken:
		return true
	default:
		return false
	}
}
