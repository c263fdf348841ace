// Package transport sends command text to a data service over HTTP.
//
// The client is deliberately thin: it joins the service root and the
// encoded command, sets protocol headers, runs the caller's interception
// hooks around the single exchange and hands back the raw response.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PDNemesis/Simple.OData.Client/internal/command"
	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
)

// DefaultTimeout bounds a request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// HeaderRequestID carries the generated request ID.
const HeaderRequestID = "X-Request-ID"

// Client sends commands to one service.
//
// Thread-safety: Client is safe for concurrent use once constructed. The
// hooks are called from the goroutine that calls Do.
type Client struct {
	baseURL    string
	httpClient *http.Client
	protocol   ir.Protocol
	headers    http.Header

	// beforeRequest may mutate the outgoing request.
	beforeRequest func(*http.Request)
	// afterResponse sees the response before its body is read.
	afterResponse func(*http.Response)

	ids     IDGenerator
	clock   Clock
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client (default: a client with
// DefaultTimeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithProtocol selects the protocol version headers (default 4.0).
func WithProtocol(p ir.Protocol) Option {
	return func(c *Client) {
		c.protocol = p
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(name, value string) Option {
	return func(c *Client) {
		c.headers.Add(name, value)
	}
}

// WithBeforeRequest installs a hook called with each outgoing request
// after the client has set its headers.
func WithBeforeRequest(fn func(*http.Request)) Option {
	return func(c *Client) {
		c.beforeRequest = fn
	}
}

// WithAfterResponse installs a hook called with each response before the
// body is read.
func WithAfterResponse(fn func(*http.Response)) Option {
	return func(c *Client) {
		c.afterResponse = fn
	}
}

// WithIDGenerator sets the request ID generator (default UUIDv7).
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) {
		c.ids = g
	}
}

// WithClock sets the clock used to time requests.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics sink (default DefaultMetrics()). Passing
// nil disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("transport: empty base URL")
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		headers:    make(http.Header),
		ids:        UUIDv7Generator{},
		clock:      systemClock{},
		logger:     slog.Default(),
		metrics:    DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request is one exchange.
type Request struct {
	Operation command.Operation
	Command   command.Text
	Body      map[string]any
}

// Response is the raw result of an exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	Duration   time.Duration
}

// Decode decodes a JSON body into a map, keeping numbers as json.Number.
func (r *Response) Decode() (map[string]any, error) {
	v, err := ir.DecodeJSON(r.Body)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode: response body is %T, not an object", v)
	}
	return m, nil
}

// StatusError reports a response with a 4xx or 5xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	RequestID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Do sends req and returns the response. A 4xx or 5xx status returns the
// response together with a *StatusError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := req.Operation
	if op == "" {
		op = command.Get
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	return c.send(ctx, op.Method(), c.baseURL+"/"+req.Command.URI(), "application/json", body)
}

// FetchMetadata downloads $metadata and parses it.
func (c *Client) FetchMetadata(ctx context.Context) (*metadata.Static, error) {
	resp, err := c.send(ctx, http.MethodGet, c.baseURL+"/$metadata", "application/xml", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	static, err := metadata.ParseCSDL(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	return static, nil
}

// Resolver returns a metadata resolver that fetches $metadata on first
// use.
func (c *Client) Resolver() *metadata.Lazy {
	return metadata.NewLazy(func(ctx context.Context) (metadata.Resolver, error) {
		return c.FetchMetadata(ctx)
	})
}

func (c *Client) send(ctx context.Context, method, url, accept string, body io.Reader) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := c.ids.Generate()
	for name, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set(HeaderRequestID, requestID)
	if c.protocol == ir.V3 {
		httpReq.Header.Set("DataServiceVersion", "3.0")
		httpReq.Header.Set("MaxDataServiceVersion", "3.0")
	} else {
		httpReq.Header.Set("OData-Version", "4.0")
		httpReq.Header.Set("OData-MaxVersion", "4.0")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.beforeRequest != nil {
		c.beforeRequest(httpReq)
	}

	start := c.clock.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		elapsed := c.clock.Now().Sub(start)
		c.metrics.observe(method, 0, elapsed)
		c.logger.Error("request failed",
			"method", method,
			"url", url,
			"request_id", requestID,
			"error", err)
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	if c.afterResponse != nil {
		c.afterResponse(httpResp)
	}

	data, err := io.ReadAll(httpResp.Body)
	elapsed := c.clock.Now().Sub(start)
	c.metrics.observe(method, httpResp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("exchange",
		"method", method,
		"url", url,
		"status", httpResp.StatusCode,
		"request_id", requestID,
		"duration", elapsed)

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		RequestID:  requestID,
		Duration:   elapsed,
	}
	if httpResp.StatusCode >= 400 {
		return resp, &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
			RequestID:  requestID,
		}
	}
	return resp, nil
}
