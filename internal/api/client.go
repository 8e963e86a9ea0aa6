// Package api is the single entry point for talking to the delivery backend.
//
// Every call reads the access token from the token store and sends it as a
// bearer credential. A 401 on a call that has not been retried triggers one
// shared token refresh; the call is then re-dispatched exactly once. When the
// refresh cannot succeed both tokens are deleted, the session-expired handler
// runs, and the original 401 is returned.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"forkful/internal/platform/metrics"
	"forkful/internal/tokenstore"
	"forkful/pkg/platform/sentinel"
	"forkful/pkg/requestcontext"
)

const (
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = "forkful/1.0"
	maxResponseBytes = 4 << 20
	refreshPath      = "/auth/token/refresh/"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     tokenstore.Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	userAgent  string
	timeout    time.Duration

	mu               sync.RWMutex
	onSessionExpired func(ctx context.Context)

	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client. Its Timeout is
// overridden by WithTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each dispatch and the shared refresh.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithSessionExpiredHandler registers fn to run once per failed refresh,
// after the tokens have been deleted.
func WithSessionExpiredHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, tokens tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    tokens,
		logger:    slog.Default(),
		tracer:    otel.Tracer("forkful/api"),
		userAgent: defaultUserAgent,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	hc := http.Client{}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	hc.Timeout = c.timeout
	c.httpClient = &hc
	return c
}

// SetSessionExpiredHandler replaces the handler after construction. The state
// container uses it to close the loop between the client and the Auth slice.
func (c *Client) SetSessionExpiredHandler(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSessionExpired = fn
}

// call describes one logical API request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	// anonymous calls never carry a bearer and a 401 on them is a credential
	// failure, not an expired session.
	anonymous bool
}

type response struct {
	status int
	body   []byte
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, call{method: method, path: path, body: body}, out)
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	ctx, reqID := requestcontext.EnsureRequestID(ctx)
	ctx, span := c.tracer.Start(ctx, req.method+" "+req.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("url.path", req.path),
			attribute.String("forkful.request_id", reqID),
		))
	defer span.End()

	token := ""
	if !req.anonymous {
		var err error
		if token, err = c.storedToken(ctx, tokenstore.AccessTokenKey); err != nil {
			return c.fail(span, &Error{Kind: KindNetwork, Method: req.method, Path: req.path, Message: "token store unavailable", Err: err})
		}
	}

	resp, err := c.dispatch(ctx, req, token)
	if err != nil {
		return c.fail(span, err)
	}

	if resp.status == http.StatusUnauthorized && !req.anonymous {
		fresh, rerr := c.refreshAccess(ctx, token)
		if rerr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return c.fail(span, &Error{Kind: KindNetwork, Method: req.method, Path: req.path, Message: "request cancelled", Err: ctxErr})
			}
			c.logger.WarnContext(ctx, "session refresh failed",
				"method", req.method,
				"path", req.path,
				"request_id", reqID,
				"error", rerr,
			)
			return c.fail(span, newStatusError(req.method, req.path, resp.status, resp.body))
		}

		span.SetAttributes(attribute.Bool("forkful.retried", true))
		// The retried result is final, including a second 401.
		if resp, err = c.dispatch(ctx, req, fresh); err != nil {
			return c.fail(span, err)
		}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.status))
	if resp.status < 200 || resp.status >= 300 {
		return c.fail(span, newStatusError(req.method, req.path, resp.status, resp.body))
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return c.fail(span, &Error{Kind: KindDecode, Status: resp.status, Method: req.method, Path: req.path, Message: "unexpected response format", Err: err})
	}
	return nil
}

func (c *Client) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// dispatch performs a single HTTP round trip. Transport failures come back as
// *Error of KindNetwork; any status code is returned as a response.
func (c *Client) dispatch(ctx context.Context, req call, token string) (*response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Method: req.method, Path: req.path, Message: "cannot encode request", Err: err}
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Method: req.method, Path: req.path, Message: "invalid request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestcontext.RequestID(ctx))
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.method, 0, time.Since(start))
		c.logger.DebugContext(ctx, "api request failed",
			"method", req.method,
			"path", req.path,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		msg := "network error"
		var ue *url.Error
		if errors.As(err, &ue) && ue.Timeout() {
			msg = "request timed out"
		}
		return nil, &Error{Kind: KindNetwork, Method: req.method, Path: req.path, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.ObserveRequest(req.method, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Method: req.method, Path: req.path, Message: "failed to read response", Err: err}
	}

	c.logger.DebugContext(ctx, "api request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"request_id", requestcontext.RequestID(ctx),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &response{status: resp.StatusCode, body: payload}, nil
}

// storedToken returns "" for an absent token.
func (c *Client) storedToken(ctx context.Context, name string) (string, error) {
	v, err := c.tokens.Get(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return v, nil
}
