package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/wikibinder/internal/model"
)

const (
	// DefaultBaseURL is the Feishu Open API endpoint.
	DefaultBaseURL = "https://open.feishu.cn"

	// DefaultPageSize is the node listing page size (the API maximum is 50).
	DefaultPageSize = 50

	// DefaultRequestsPerSecond spaces out requests on the client side.
	DefaultRequestsPerSecond = 5

	// tokenRefreshMargin renews the tenant token before it actually expires.
	tokenRefreshMargin = 5 * time.Minute

	// maxResponseSize bounds JSON response bodies.
	maxResponseSize = 8 * 1024 * 1024
)

// Client talks to the Lark Open API.
// It is safe for concurrent use.
type Client struct {
	// appID and appSecret are exchanged for a tenant access token.
	appID     string
	appSecret string

	// baseURL is the API origin without a trailing slash.
	baseURL string

	// httpClient performs the requests.
	httpClient *http.Client

	// limiter throttles outgoing requests.
	limiter *rate.Limiter

	// pageSize is sent with every node listing request.
	pageSize int

	logger *slog.Logger

	// now is replaced in tests.
	now func() time.Time

	// tokenMu guards token and tokenExpiry.
	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API origin, e.g. https://open.larksuite.com.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client. See NewHTTPClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit sets the client-side request rate. A non-positive rps
// disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithPageSize sets the node listing page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the given application credentials.
func NewClient(appID, appSecret string, opts ...Option) (*Client, error) {
	if appID == "" || appSecret == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		appID:      appID,
		appSecret:  appSecret,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultRequestsPerSecond),
		pageSize:   DefaultPageSize,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c, nil
}

// envelope is the common response wrapper.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// tokenResponse is the tenant access token response. Unlike other
// endpoints it is not wrapped in data.
type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// tenantToken returns a cached tenant access token, fetching a new one
// when the cache is empty or about to expire.
func (c *Client) tenantToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	const op = "fetch tenant access token"

	body, err := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", model.Permanent(fmt.Errorf("%s: %w", op, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", model.Permanent(fmt.Errorf("%s: create request: %w", op, err))
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &model.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&tr); err != nil {
		if cerr := classify(op, resp.StatusCode, codeOK, resp.Status); cerr != nil {
			return "", cerr
		}
		return "", &model.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := classify(op, resp.StatusCode, tr.Code, tr.Msg); err != nil {
		return "", err
	}
	if tr.TenantAccessToken == "" {
		return "", &model.APIError{Op: op, Code: tr.Code, Msg: "empty tenant access token"}
	}

	lifetime := time.Duration(tr.Expire) * time.Second
	if lifetime > 2*tokenRefreshMargin {
		lifetime -= tokenRefreshMargin
	} else {
		lifetime /= 2
	}
	c.token = tr.TenantAccessToken
	c.tokenExpiry = c.now().Add(lifetime)

	c.logger.Debug("tenant access token refreshed", "expires_in", lifetime)
	return c.token, nil
}

// invalidateToken drops the cached token.
func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = ""
	c.tokenExpiry = time.Time{}
}

// send performs an authenticated request. The caller closes the body.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.tenantToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, model.Permanent(fmt.Errorf("%s: marshal request: %w", op, err))
		}
		reader = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, model.Permanent(fmt.Errorf("%s: create request: %w", op, err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &model.TransportError{Op: op, Err: err}
	}
	return resp, nil
}

// decode reads an envelope from resp, maps error codes, and unmarshals
// data into out when out is non-nil.
func (c *Client) decode(op string, resp *http.Response, out any) error {
	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&env); err != nil {
		if cerr := classify(op, resp.StatusCode, codeOK, resp.Status); cerr != nil {
			return cerr
		}
		return &model.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	if isTokenError(env.Code) {
		c.invalidateToken()
	}
	if err := classify(op, resp.StatusCode, env.Code, env.Msg); err != nil {
		return err
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &model.TransportError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// call is send followed by decode.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, op, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.decode(op, resp, out)
}
