// Package http provides the HTTP transport used by the Billogram API client.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Logger interface for transport-level logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request represents an HTTP request to the Billogram API.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Response represents an HTTP response from the Billogram API. Body is always
// fully read before the response is returned so the underlying connection can
// be reused.
type Response struct {
	StatusCode  int
	ContentType string
	Headers     http.Header
	Body        []byte
}

// Client is a thin HTTP client with basic authentication, shared by every
// resource of one API session.
type Client struct {
	baseURL    string
	username   string
	secret     string
	userAgent  string
	logger     Logger
	debug      bool
	httpClient *retryablehttp.Client
}

// Option configures the client.
type Option func(*Client)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets a logger for the client.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging through the configured logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithTimeout sets the per-request timeout of the underlying client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// NewClient creates a new HTTP client for the given API base URL. The
// credential pair is applied to every request as basic authentication.
func NewClient(baseURL, username, secret string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	// The API contract is that failures surface immediately to the caller.
	// The retry policy is disabled entirely so error responses reach the
	// classifier instead of being swallowed as exhausted retries.
	retryClient.RetryMax = 0
	retryClient.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
		return false, err
	}
	retryClient.Logger = nil

	client := &Client{
		baseURL:    baseURL,
		username:   username,
		secret:     secret,
		httpClient: retryClient,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// Do executes an HTTP request and returns the response with its body fully
// read.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + "/" + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.SetBasicAuth(c.username, c.secret)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if len(req.Body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("API Request", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("API Response", map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": httpResp.StatusCode,
		})
	}

	return &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: mediaType(httpResp.Header.Get("Content-Type")),
		Headers:     httpResp.Header,
		Body:        respBody,
	}, nil
}

// CloseIdleConnections releases any connections held by the transport pool.
func (c *Client) CloseIdleConnections() {
	c.httpClient.HTTPClient.CloseIdleConnections()
}

// mediaType strips parameters such as charset from a Content-Type header.
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}

	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}

	return mt
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger Logger
}

func fieldsFromKeysAndValues(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsFromKeysAndValues(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsFromKeysAndValues(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsFromKeysAndValues(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsFromKeysAndValues(keysAndValues))
}
