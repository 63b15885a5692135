package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/chuxorg/chux-travel/internal/logging"
	"github.com/chuxorg/chux-travel/internal/requestid"
	"github.com/chuxorg/chux-travel/internal/telemetry"
)

const tracerName = "github.com/chuxorg/chux-travel/internal/client"

// Client is a minimal HTTP client for the Travel Projects API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *telemetry.Metrics

	tracer trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero keeps the transport default.
// The timeout is set on a copy, so a client passed to WithHTTPClient is
// left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.HTTPClient
		hc.Timeout = d
		c.HTTPClient = &hc
	}
}

// WithLogger sets the logger used for per-request debug entries.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithMetrics records backend latency into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) {
		c.Metrics = m
	}
}

// New creates a client using the provided base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{},
		Logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestOptions configures a single call to Do. A nil value issues a GET
// without a body.
type RequestOptions struct {
	Method string
	// Body is sent as-is when it is []byte, json.RawMessage, string or
	// io.Reader; anything else is JSON encoded.
	Body   any
	Header http.Header
}

// Do performs one request/response cycle and returns the decoded payload:
// parsed JSON (numbers as json.Number) for JSON responses, the body text
// otherwise, or nil when the body could not be read or parsed.
// Non-2xx responses return *Error; transport failures return a wrapped
// error. A malformed body alone never fails the call.
func (c *Client) Do(ctx context.Context, path string, opts *RequestOptions) (any, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}

	fullURL, err := c.buildURL(path)
	if err != nil {
		return nil, err
	}
	reader, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	ctx, span := c.startSpan(ctx, method, path)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	log := logging.WithRequest(ctx, c.Logger)
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Metrics.ObserveBackend(method, path, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data := decodeBody(resp)
	elapsed := time.Since(start)
	c.Metrics.ObserveBackend(method, path, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(resp, data)
		span.SetStatus(codes.Error, apiErr.StatusText)
		return nil, apiErr
	}
	return data, nil
}

func (c *Client) startSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	tracer := c.tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, method+" "+telemetry.RouteOf(path),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		return bytes.NewReader(payload), nil
	}
}

func decodeBody(resp *http.Response) any {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return string(raw)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil
	}
	if dec.More() {
		return nil
	}
	return data
}

// buildURL appends path to the base URL, keeping any path prefix the base
// carries: http://host/api + /projects is http://host/api/projects.
func (c *Client) buildURL(path string) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base_url: %w", err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return u.String(), nil
}

// decodeInto converts a payload returned by Do into out.
func decodeInto(data any, out any) error {
	if out == nil {
		return nil
	}
	if _, ok := data.(string); ok {
		return fmt.Errorf("decode response: expected JSON, got text")
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
