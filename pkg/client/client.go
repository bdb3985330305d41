// Package client talks to the remote form service over HTTP. It fetches
// definitions, submits answers and manages the forms of an authenticated
// creator. Failed submits come back as *submission.ServerError so the engine
// can map them onto fields.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/goliatone/go-formwise/pkg/model"
	"github.com/goliatone/go-formwise/pkg/submission"
)

const (
	apiVersion     = "v1"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

var (
	// ErrNoBaseURL indicates the client was built without a service address.
	ErrNoBaseURL = errors.New("client: base url is required")
	// ErrUnauthenticated indicates an owner operation was called without a token.
	ErrUnauthenticated = errors.New("client: bearer token required")
	// ErrNotFound indicates the service answered 404.
	ErrNotFound = errors.New("client: not found")
)

// Option customises the client.
type Option func(*Client)

// WithHTTPClient sets the transport used for anonymous calls. Authenticated
// calls wrap its transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithToken sets a static bearer token for owner operations.
func WithToken(token string) Option {
	return func(c *Client) {
		token = strings.TrimSpace(token)
		if token == "" {
			c.tokens = nil
			return
		}
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	}
}

// WithTokenSource sets the token source for owner operations.
func WithTokenSource(src oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is a form service client. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  oauth2.TokenSource
	timeout time.Duration
	logger  *zap.Logger
}

// New builds a client for the service at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}

	c := &Client{
		base:    base,
		http:    http.DefaultClient,
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// GetForm fetches a public form definition.
func (c *Client) GetForm(ctx context.Context, formID string) (model.FormDefinition, error) {
	var form model.FormDefinition
	err := c.do(ctx, request{method: http.MethodGet, path: []string{"forms", formID}}, &form)
	if err != nil {
		return model.FormDefinition{}, err
	}
	return form, nil
}

// Submit posts the answers of a form. Non-2xx responses are returned as
// *submission.ServerError; transport failures as a ServerError with status 0.
func (c *Client) Submit(ctx context.Context, formID string, payload submission.Payload) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   []string{"forms", formID, "submit"},
		body:   payload.Envelope(),
	}, nil)
}

// ListForms lists the forms owned by the token holder.
func (c *Client) ListForms(ctx context.Context) ([]model.FormOverview, error) {
	var forms []model.FormOverview
	err := c.do(ctx, request{method: http.MethodGet, path: []string{"forms"}, auth: true}, &forms)
	return forms, err
}

// CreateForm creates a form and returns the stored definition.
func (c *Client) CreateForm(ctx context.Context, create model.FormCreate) (model.FormDefinition, error) {
	var form model.FormDefinition
	err := c.do(ctx, request{method: http.MethodPost, path: []string{"forms"}, auth: true, body: create}, &form)
	if err != nil {
		return model.FormDefinition{}, err
	}
	return form, nil
}

// DeleteForm deletes a form owned by the token holder.
func (c *Client) DeleteForm(ctx context.Context, formID string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: []string{"forms", formID}, auth: true}, nil)
}

// Config fetches the limits enforced by the service.
func (c *Client) Config(ctx context.Context) (model.ServiceConfig, error) {
	var cfg model.ServiceConfig
	err := c.do(ctx, request{method: http.MethodGet, path: []string{"config"}}, &cfg)
	return cfg, err
}

type request struct {
	method string
	path   []string
	body   any
	auth   bool
}

func (c *Client) endpoint(segments []string) (string, error) {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, apiVersion)
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return "", errors.New("client: empty path segment")
		}
		parts = append(parts, url.PathEscape(segment))
	}
	return c.base.JoinPath(parts...).String(), nil
}

func (c *Client) transport(ctx context.Context, auth bool) (*http.Client, error) {
	if !auth {
		return c.http, nil
	}
	if c.tokens == nil {
		return nil, ErrUnauthenticated
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	return oauth2.NewClient(ctx, c.tokens), nil
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	endpoint, err := c.endpoint(req.path)
	if err != nil {
		return err
	}
	hc, err := c.transport(ctx, req.auth)
	if err != nil {
		return err
	}

	var body io.Reader
	if req.body != nil {
		raw, err := sonic.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("client: encode %s %s: %w", req.method, endpoint, err)
		}
		body = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		c.logger.Warn("form service request failed",
			zap.String("method", req.method),
			zap.String("url", endpoint),
			zap.Error(err),
		)
		return &submission.ServerError{Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("form service request",
		zap.String("method", req.method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		serverErr := submission.DecodeErrorBody(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, serverErr)
		}
		return serverErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &submission.ServerError{Status: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("client: %s %s: empty response body", req.method, endpoint)
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", req.method, endpoint, err)
	}
	return nil
}
