// pkg/httpx/client.go
// Package httpx provides the shared HTTP request executor used by all test
// modules. It owns connection pooling, redirect policy, per-request
// timeouts, and header/auth injection, so modules only deal with URLs,
// payloads and responses.
package httpx

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds how much of a response body is read. Detection
// heuristics only need the leading portion of a page.
const maxBodyBytes = 1 << 20 // 1 MiB

// Config holds HTTP client construction options.
type Config struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// FollowRedirects controls whether 3xx responses are followed.
	FollowRedirects bool
	// InsecureSkipVerify skips TLS certificate verification. Scanners
	// routinely probe hosts with broken certs, so this defaults to true.
	InsecureSkipVerify bool
	// Headers are added to every request.
	Headers map[string]string
	// BearerToken, when set, is sent as an Authorization: Bearer header.
	BearerToken string
	// BasicUser and BasicPassword, when set, are sent as basic auth.
	// BearerToken wins when both are configured.
	BasicUser     string
	BasicPassword string
	// UserAgent overrides the default scanner user agent.
	UserAgent string
}

// DefaultConfig returns defaults tuned for probing workloads.
func DefaultConfig() Config {
	return Config{
		Timeout:            10 * time.Second,
		InsecureSkipVerify: true,
	}
}

// RequestOptions customizes a single probe request.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Body is the request body, sent verbatim.
	Body string
	// ContentType is set when Body is non-empty; defaults to
	// application/x-www-form-urlencoded.
	ContentType string
	// Headers are per-request headers layered over the client headers.
	Headers map[string]string
}

// Response is the executor's view of a probe response: status, headers and
// the (bounded) body text. Cookies preserves every Set-Cookie value in
// arrival order for session heuristics.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
	Cookies    []string
	Duration   time.Duration
	FinalURL   string
}

// HeaderValue is a convenience accessor for a response header.
func (r *Response) HeaderValue(name string) string {
	if r == nil {
		return ""
	}
	return r.Header.Get(name)
}

// Client is the request executor handed to test modules through the scan
// context.
type Client struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// NewClient builds a Client from the given config.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.Timeout,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // scanning targets with broken certs is the point
		},
		TLSHandshakeTimeout: cfg.Timeout,
		MaxIdleConns:        100,
		MaxConnsPerHost:     25,
		IdleConnTimeout:     90 * time.Second,
	}

	hc := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
	if !cfg.FollowRedirects {
		hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Client{
		cfg:    cfg,
		client: hc,
		logger: log.With().Str("component", "httpx").Logger(),
	}
}

// Do issues one probe request. Network failures (timeout, refused, DNS) are
// returned as errors and logged at debug level; callers treat them as "no
// evidence", never as findings.
func (c *Client) Do(ctx context.Context, rawURL string, opts RequestOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != "" {
		body = strings.NewReader(opts.Body)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}

	c.applyHeaders(req, opts)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", rawURL).Str("method", method).Msg("Probe request failed")
		return nil, fmt.Errorf("probe %s %s: %w", method, rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		c.logger.Debug().Err(readErr).Str("url", rawURL).Msg("Probe body read truncated")
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(data),
		Cookies:    resp.Header.Values("Set-Cookie"),
		Duration:   time.Since(start),
		FinalURL:   rawURL,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = resp.Request.URL.String()
	}
	return out, nil
}

func (c *Client) applyHeaders(req *http.Request, opts RequestOptions) {
	ua := c.cfg.UserAgent
	if ua == "" {
		ua = "tenprobe/1.0 (+https://github.com/tenprobe/tenprobe)"
	}
	req.Header.Set("User-Agent", ua)

	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	switch {
	case c.cfg.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	case c.cfg.BasicUser != "":
		req.SetBasicAuth(c.cfg.BasicUser, c.cfg.BasicPassword)
	}

	if opts.Body != "" {
		ct := opts.ContentType
		if ct == "" {
			ct = "application/x-www-form-urlencoded"
		}
		req.Header.Set("Content-Type", ct)
	}

	// Per-request headers win over client-level ones.
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
}
