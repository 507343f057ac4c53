// Package rest is the HTTP binding behind the Firecrawl facade. It issues one
// JSON request per call and turns non-2xx responses, transport failures and
// undecodable bodies into *errors.Error values.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"firecrawl/pkg/errors"
	"firecrawl/pkg/logger"

	"github.com/google/uuid"
)

// DefaultUserAgent is sent when no other User-Agent is configured
const DefaultUserAgent = "firecrawl-go"

// RequestIDHeader carries a per-request UUID for correlating client and
// server logs
const RequestIDHeader = "X-Request-ID"

// Observer is notified once per completed request. statusCode is 0 when no
// response was received.
type Observer interface {
	ObserveRequest(operation, method string, statusCode int, duration time.Duration)
}

// Request describes one API call
type Request struct {
	// Operation names the call for logs and metrics ("scrape", "crawl_status")
	Operation string
	Method    string
	// Path is relative to the base URL and may contain {name} placeholders
	Path       string
	PathParams map[string]string
	Headers    map[string]string
	Body       interface{}
}

// Client performs JSON requests against a base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	observer   Observer
	userAgent  string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a request observer
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for baseURL. The URL is used as given.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.NewNopLogger(),
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL requests are resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResolvePath substitutes {name} placeholders with escaped values
func ResolvePath(path string, params map[string]string) string {
	for name, value := range params {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return path
}

// Do sends req and decodes a successful JSON response into out. out may be
// nil when the response body is not needed.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	target := c.baseURL + ResolvePath(req.Path, req.PathParams)

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return errors.Wrap(errors.ErrorTypeParsing, "failed to encode request body", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeUnknown, "failed to create request", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(RequestIDHeader, requestID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	log := c.logger.WithFields(map[string]interface{}{
		"operation":  req.Operation,
		"request_id": requestID,
	})
	log.DebugWithFields("sending API request", map[string]interface{}{
		"method": req.Method,
		"url":    target,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.finish(log, req, target, 0, duration)
		return transportError(err)
	}
	defer resp.Body.Close()

	c.finish(log, req, target, resp.StatusCode, duration)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := transportError(err)
		apiErr.Code = resp.StatusCode
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errors.FromStatus(resp.StatusCode, errorMessage(data))
		apiErr.Body = data
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		log.DebugWithFields("failed to parse JSON response", map[string]interface{}{
			"status":       resp.StatusCode,
			"body_preview": preview(data),
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: "failed to parse response body",
			Code:    resp.StatusCode,
			Body:    data,
			Cause:   err,
		}
	}

	return nil
}

func (c *Client) finish(log logger.Logger, req Request, target string, status int, d time.Duration) {
	logger.LogRequest(log, req.Operation, req.Method, target, status, d)
	if c.observer != nil {
		c.observer.ObserveRequest(req.Operation, req.Method, status, d)
	}
}

// transportError classifies a failure that produced no usable response
func transportError(err error) *errors.Error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Wrap(errors.ErrorTypeTimeout, "request timed out", err)
	}
	return errors.Wrap(errors.ErrorTypeNetwork, "request failed", err)
}

// errorMessage extracts the message from an {"error": "..."} body. Bodies
// that are not JSON are returned as text.
func errorMessage(data []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		return payload.Message
	}
	return strings.TrimSpace(preview(data))
}

func preview(data []byte) string {
	const limit = 200
	if len(data) > limit {
		return fmt.Sprintf("%s...", data[:limit])
	}
	return string(data)
}
