// Package etsy is a client for the Etsy Open API v3. Client wraps the
// resource endpoints and Authorizer runs the OAuth2 authorization code flow
// with PKCE that produces the tokens Client needs.
package etsy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/etsy-v3/internal/metrics"
)

const (
	// DefaultBaseURL is the Etsy Open API host.
	DefaultBaseURL = "https://openapi.etsy.com"

	defaultUserAgent = "etsy-v3-go"
	instrumentation  = "github.com/donaldgifford/etsy-v3/pkg/etsy"
)

var tracer = otel.Tracer(instrumentation)

// TokenProvider supplies the OAuth2 access token sent with each request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Request describes one call to a resource endpoint. Path is relative to
// the base URL, e.g. "/v3/application/listings/1".
type Request struct {
	Operation string // label for metrics and tracing; defaults to Method
	Method    string
	Path      string
	Query     url.Values
	Body      any        // JSON-encoded when non-nil; Document is sent verbatim
	Form      url.Values // form-encoded body; ignored when Body is set
}

// Client calls Etsy resource endpoints with a bearer token and the app's
// x-api-key header. It performs no retries, paging or rate limiting.
type Client struct {
	clientID  string
	tokens    TokenProvider
	baseURL   string
	client    *http.Client
	log       *slog.Logger
	userAgent string
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the default API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for the app identified by clientID.
func NewClient(clientID string, tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		clientID:  clientID,
		tokens:    tokens,
		baseURL:   DefaultBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       discardLogger(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and returns the decoded response body.
func (c *Client) Do(ctx context.Context, req Request) (doc Document, err error) {
	op := req.Operation
	if op == "" {
		op = req.Method
	}

	ctx, span := tracer.Start(ctx, "etsy."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
		),
	)
	start := time.Now()
	status := "error"
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		metrics.APIRequestsTotal.WithLabelValues(op, status).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("getting access token: %w", err)
	}

	httpReq, err := c.newRequest(ctx, req, token)
	if err != nil {
		return Document{}, err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Document{}, fmt.Errorf("executing %s request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("reading response body: %w", err)
	}

	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	c.log.Debug("etsy request",
		"operation", op,
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Document{}, newAPIRequestError(req.Method, req.Path, resp.StatusCode, body)
	}

	doc, err = ParseDocument(body)
	if err != nil {
		return Document{}, &DecodingError{Op: op, Body: body, Err: err}
	}
	return doc, nil
}

func (c *Client) newRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader = http.NoBody
		contentType string
	)
	switch {
	case req.Body != nil:
		data, err := encodeBody(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("x-api-key", c.clientID)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	return httpReq, nil
}

func encodeBody(v any) ([]byte, error) {
	if d, ok := v.(Document); ok {
		return d.MarshalJSON()
	}
	d, err := NewDocument(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}
	return d.Raw(), nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values) (Document, error) {
	return c.Do(ctx, Request{Operation: op, Method: http.MethodGet, Path: path, Query: q})
}

func (c *Client) put(ctx context.Context, op, path string, body any) (Document, error) {
	return c.Do(ctx, Request{Operation: op, Method: http.MethodPut, Path: path, Body: body})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
