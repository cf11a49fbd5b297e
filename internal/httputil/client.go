// Package httputil provides the JSON client used for every call to the
// remote storefront API.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	sferrors "github.com/R3E-Network/storefront/internal/errors"
	"github.com/R3E-Network/storefront/internal/app/metrics"
	"github.com/R3E-Network/storefront/pkg/logger"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 8 << 20
	errorBodyLimit      = 64 << 10
)

// =============================================================================
// API Client
// =============================================================================

// Config configures the API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient is used to execute requests. When nil a client with Timeout
	// is built. Its transport is wrapped with request metrics.
	HTTPClient *http.Client
	Retry      RetryConfig
	Breaker    CircuitBreakerConfig
	// RateLimit is requests per second; zero disables limiting.
	RateLimit    float64
	RateBurst    int
	MaxBodyBytes int64
	Logger       *logger.Logger
}

// Client issues JSON requests to the storefront API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	retry        RetryConfig
	breaker      *CircuitBreaker
	limiter      *rate.Limiter
	maxBodyBytes int64
	log          *logger.Logger
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Token, when set, is sent as a bearer credential.
	Token string
}

// New creates an API client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("httputil: BaseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httputil: BaseURL must be a valid URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	} else {
		copied := *httpClient
		httpClient = &copied
	}
	httpClient.Transport = metrics.InstrumentTransport(httpClient.Transport)

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("api-client")
	}

	breakerCfg := cfg.Breaker
	onChange := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(from, to CircuitState) {
		metrics.SetCircuitState(int(to))
		log.WithField("from", from.String()).WithField("to", to.String()).Warn("api circuit state changed")
		if onChange != nil {
			onChange(from, to)
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		retry:        cfg.Retry,
		breaker:      NewCircuitBreaker(breakerCfg),
		limiter:      limiter,
		maxBodyBytes: maxBodyBytes,
		log:          log,
	}, nil
}

// BaseURL returns the normalized API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CircuitState returns the current breaker state.
func (c *Client) CircuitState() CircuitState {
	return c.breaker.State()
}

// Do executes req and decodes a successful JSON response into out (which
// may be nil). Every failure is a *errors.ServiceError: transport problems
// are network-kind, non-2xx answers are server-kind with the server detail.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if c == nil {
		return sferrors.Internal("api client is nil", nil)
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return sferrors.Internal("failed to marshal request body", err)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return sferrors.Network(fmt.Errorf("rate limit wait: %w", err))
		}
	}
	if err := c.breaker.Allow(); err != nil {
		return sferrors.Network(err)
	}

	maxRetries := 0
	if isIdempotent(method) {
		maxRetries = c.retry.MaxRetries
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			metrics.RecordRetry(method, req.Path)
			if err := wait(ctx, c.retry.delay(attempt)); err != nil {
				return sferrors.Network(err)
			}
		}

		resp, err := c.send(ctx, method, req, payload)
		if err != nil {
			if attempt < maxRetries && transient(err) {
				continue
			}
			c.breaker.RecordFailure()
			c.log.WithError(err).WithField("path", req.Path).Debug("api request failed")
			return sferrors.Network(err)
		}

		if resp.StatusCode >= 400 {
			if attempt < maxRetries && c.retry.retryableStatus(resp.StatusCode) {
				drain(resp)
				continue
			}
			if resp.StatusCode >= 500 {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
			return c.decodeError(resp)
		}

		c.breaker.RecordSuccess()
		return c.decodeBody(resp, out)
	}
}

func (c *Client) send(ctx context.Context, method string, req Request, payload []byte) (*http.Response, error) {
	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(req.Token); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(httpReq)
}

func (c *Client) decodeBody(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return nil
	}

	body, err := ReadAllStrict(resp.Body, c.maxBodyBytes)
	if err != nil {
		return sferrors.Network(fmt.Errorf("read response body: %w", err))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return sferrors.Internal("failed to decode response", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	defer resp.Body.Close()

	body, truncated, err := ReadAllWithLimit(resp.Body, errorBodyLimit)
	if err != nil {
		return sferrors.Server(resp.StatusCode, "")
	}
	detail := ErrorDetail(body)
	if detail == "" && !truncated {
		detail = strings.TrimSpace(string(body))
		if !gjson.ValidBytes(body) && len(detail) > 200 {
			detail = detail[:200]
		}
	}
	return sferrors.Server(resp.StatusCode, detail)
}

// ErrorDetail extracts the human-readable message from an error payload.
// It understands {"detail": "..."}, FastAPI validation lists
// {"detail": [{"msg": "..."}]}, and {"message"|"error": "..."}.
func ErrorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"detail", "detail.0.msg", "message", "error.message", "error"} {
		res := gjson.GetBytes(body, path)
		if res.Type == gjson.String && strings.TrimSpace(res.Str) != "" {
			return strings.TrimSpace(res.Str)
		}
	}
	return ""
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, errorBodyLimit))
	resp.Body.Close()
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, token string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Token: token}, out)
}

// Post performs a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body any, token string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Query: query, Body: body, Token: token}, out)
}

// Put performs a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body any, token string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Query: query, Body: body, Token: token}, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, token string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Token: token}, out)
}

// PathEscape escapes a single path segment.
func PathEscape(segment string) string {
	return url.PathEscape(segment)
}
