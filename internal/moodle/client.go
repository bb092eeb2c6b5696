package moodle

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
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"github.com/five82/lectern/internal/metrics"
	"github.com/five82/lectern/internal/session"
)

// SessionSource supplies the endpoint used for each call.
type SessionSource interface {
	Current() (session.Config, bool)
}

// Caller is the single choke point for web-service calls.
type Caller interface {
	Call(ctx context.Context, function string, params Params, dest any) error
}

var _ Caller = (*Client)(nil)

const (
	restPath         = "/webservice/rest/server.php"
	tokenPath        = "/login/token.php"
	defaultUserAgent = "lectern/0.1"
	defaultService   = "moodle_mobile_app"
	maxResponseBytes = 32 << 20
)

// Timeouts are the per-call-class deadlines.
type Timeouts struct {
	Default   time.Duration
	SiteInfo  time.Duration
	Autologin time.Duration
	File      time.Duration
}

// DefaultTimeouts returns the standard deadlines: content listing 15s,
// site info and file fetches 10s, autologin key 8s.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Default:   15 * time.Second,
		SiteInfo:  10 * time.Second,
		Autologin: 8 * time.Second,
		File:      10 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Default <= 0 {
		t.Default = d.Default
	}
	if t.SiteInfo <= 0 {
		t.SiteInfo = d.SiteInfo
	}
	if t.Autologin <= 0 {
		t.Autologin = d.Autologin
	}
	if t.File <= 0 {
		t.File = d.File
	}
	return t
}

// Options configure a Client.
type Options struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *slog.Logger
	UserAgent  string
	Timeouts   Timeouts
}

// Client talks to a Moodle-compatible REST web service.
type Client struct {
	session   SessionSource
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
	userAgent string
	timeouts  Timeouts
}

// NewClient builds a Client reading its endpoint from src.
func NewClient(src SessionSource, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		session:   src,
		http:      httpClient,
		limiter:   opts.Limiter,
		logger:    logger.With("component", "moodle"),
		userAgent: userAgent,
		timeouts:  opts.Timeouts.withDefaults(),
	}
}

// Timeouts returns the effective deadlines.
func (c *Client) Timeouts() Timeouts {
	return c.timeouts
}

// Call invokes function with the default deadline and decodes the JSON
// result into dest (which may be nil).
func (c *Client) Call(ctx context.Context, function string, params Params, dest any) error {
	return c.CallWithTimeout(ctx, c.timeouts.Default, function, params, dest)
}

// CallWithTimeout is Call with an explicit deadline.
func (c *Client) CallWithTimeout(ctx context.Context, timeout time.Duration, function string, params Params, dest any) error {
	cfg, err := c.endpoint()
	if err != nil {
		return err
	}
	return c.call(ctx, cfg, timeout, function, params, dest)
}

func (c *Client) endpoint() (session.Config, error) {
	if c == nil || c.session == nil {
		return session.Config{}, ErrNotConfigured
	}
	cfg, ok := c.session.Current()
	if !ok || !cfg.Usable() {
		return session.Config{}, ErrNotConfigured
	}
	return cfg, nil
}

func (c *Client) call(ctx context.Context, cfg session.Config, timeout time.Duration, function string, params Params, dest any) (err error) {
	base, err := ParseBaseURL(cfg.URL)
	if err != nil {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestID := uuid.NewString()
	ctx, span := otel.Tracer("lectern/moodle").Start(ctx, function)
	span.SetAttributes(
		attribute.String("moodle.function", function),
		attribute.String("request.id", requestID),
	)
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case IsRemote(err):
			outcome = "remote"
		case err != nil:
			outcome = "network"
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		metrics.GatewayCallsTotal.WithLabelValues(function, outcome).Inc()
		metrics.GatewayCallDuration.WithLabelValues(function).Observe(time.Since(start).Seconds())
		c.logger.Debug("web service call",
			slog.String("function", function),
			slog.String("request_id", requestID),
			slog.String("outcome", outcome),
			slog.Duration("elapsed", time.Since(start)),
		)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &NetworkError{Op: function, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	pairs := append([]Pair{
		{Key: "wstoken", Value: cfg.Token},
		{Key: "wsfunction", Value: function},
		{Key: "moodlewsrestformat", Value: "json"},
	}, Flatten(params)...)

	reqURL := *base
	reqURL.Path = base.Path + restPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), strings.NewReader(encodeForm(pairs)))
	if err != nil {
		return &NetworkError{Op: function, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)

	body, status, err := c.execute(req)
	if err != nil {
		return &NetworkError{Op: function, Err: err}
	}
	return decodeResponse(function, status, body, dest)
}

func (c *Client) execute(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

type exceptionProbe struct {
	Exception json.RawMessage `json:"exception"`
	ErrorCode string          `json:"errorcode"`
	Message   string          `json:"message"`
}

// decodeResponse maps a raw body onto dest. A top-level "exception" key is a
// RemoteError whatever the HTTP status.
func decodeResponse(function string, status int, body []byte, dest any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe exceptionProbe
		if err := json.Unmarshal(trimmed, &probe); err == nil && probe.Exception != nil {
			var exception string
			_ = json.Unmarshal(probe.Exception, &exception)
			return &RemoteError{
				Function:  function,
				Exception: exception,
				ErrorCode: probe.ErrorCode,
				Message:   probe.Message,
			}
		}
	}
	if status >= 400 {
		return &NetworkError{Op: function, Err: fmt.Errorf("server returned status %d", status)}
	}
	if dest == nil {
		return nil
	}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, dest); err != nil {
		return &NetworkError{Op: function, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type tokenResponse struct {
	Token     string `json:"token"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorcode"`
}

// Login exchanges credentials for a web-service token. It does not read or
// modify the session.
func (c *Client) Login(ctx context.Context, baseURL, username, password string) (string, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.SiteInfo)
	defer cancel()

	values := url.Values{}
	values.Set("username", username)
	values.Set("password", password)
	values.Set("service", defaultService)
	reqURL := *base
	reqURL.Path = base.Path + tokenPath
	reqURL.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", &NetworkError{Op: "login", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, status, err := c.execute(req)
	if err != nil {
		return "", &NetworkError{Op: "login", Err: err}
	}
	var payload tokenResponse
	if jsonErr := json.Unmarshal(body, &payload); jsonErr != nil {
		if status >= 400 {
			return "", &NetworkError{Op: "login", Err: fmt.Errorf("server returned status %d", status)}
		}
		return "", &NetworkError{Op: "login", Err: fmt.Errorf("decode response: %w", jsonErr)}
	}
	if payload.Error != "" {
		return "", &RemoteError{Function: "login", ErrorCode: payload.ErrorCode, Message: payload.Error}
	}
	if payload.Token == "" {
		return "", &RemoteError{Function: "login", Message: "no token returned"}
	}
	return payload.Token, nil
}

// FetchFile downloads a file URL, appending the session token when the URL
// does not already carry one.
func (c *Client) FetchFile(ctx context.Context, fileURL string) ([]byte, error) {
	cfg, err := c.endpoint()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.File)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, AppendToken(fileURL, cfg.Token), nil)
	if err != nil {
		return nil, &NetworkError{Op: "file", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	body, status, err := c.execute(req)
	if err != nil {
		return nil, &NetworkError{Op: "file", Err: err}
	}
	if status >= 400 {
		if remote := decodeResponse("file", status, body, nil); IsRemote(remote) {
			return nil, remote
		}
		return nil, &NetworkError{Op: "file", Err: fmt.Errorf("server returned status %d", status)}
	}
	return body, nil
}

// AppendToken adds token=... to rawURL unless a token or wstoken parameter
// is already present.
func AppendToken(rawURL, token string) string {
	if rawURL == "" || token == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "token=") {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "token=" + url.QueryEscape(token)
}

// ErrInvalidBaseURL is returned for endpoint URLs that are not http(s).
var ErrInvalidBaseURL = errors.New("moodle: base url must be http or https")

// ParseBaseURL normalizes an endpoint URL, keeping any sub-path the site is
// installed under.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrInvalidBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidBaseURL
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
