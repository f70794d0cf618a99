// Package backend talks to the remote records API on behalf of a signed-in user.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/contractor-desk/contractor-desk/internal/session"
	"github.com/contractor-desk/contractor-desk/internal/shared"
)

// Recorder receives one observation per backend call.
type Recorder interface {
	ObserveBackend(resource, op, outcome string, elapsed time.Duration)
}

// Client holds the process-wide connection settings for the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient constructs a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping checks that the backend answers HTTP at all. Any status below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &shared.NetworkError{Op: "ping", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &shared.ServerError{Op: "ping", Status: resp.StatusCode}
	}
	return nil
}

// Bind returns a connection authenticated by the given session store.
func (c *Client) Bind(store session.Store) *Conn {
	return &Conn{client: c, store: store}
}

// Conn is a Client bound to one session store. It attaches the bearer token
// and clears the store when the backend answers 401.
type Conn struct {
	client *Client
	store  session.Store
}

// Store returns the session store in effect for ctx: one attached to the
// request with session.WithStore wins over the bound one.
func (c *Conn) Store(ctx context.Context) session.Store {
	if s := session.FromContext(ctx); s != nil {
		return s
	}
	return c.store
}

type call struct {
	resource string
	op       string
	method   string
	path     string
	body     any
	// anonymous calls report 401 as rejected credentials instead of an expired session.
	anonymous bool
}

func (c *Conn) do(ctx context.Context, cl call) ([]byte, error) {
	start := time.Now()
	opName := cl.resource + "." + cl.op
	raw, status, err := c.roundTrip(ctx, cl)
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "network_error"
		err = &shared.NetworkError{Op: opName, Err: err}
	case status == http.StatusUnauthorized:
		outcome = "unauthorized"
		if cl.anonymous {
			err = &shared.AuthError{Status: status, Message: errorMessage(raw)}
			break
		}
		if store := c.Store(ctx); store != nil {
			if clearErr := store.Clear(); clearErr != nil {
				c.client.logger.Warn("clear session after 401", slog.Any("error", clearErr))
			}
		}
		err = &shared.AuthError{Status: status, Expired: true}
	case status < 200 || status > 299:
		outcome = "server_error"
		if cl.anonymous {
			err = &shared.AuthError{Status: status, Message: errorMessage(raw)}
			break
		}
		err = &shared.ServerError{Op: opName, Status: status, Message: errorMessage(raw)}
	}
	elapsed := time.Since(start)
	c.client.logger.Debug("backend call",
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.Int("status", status),
		slog.String("outcome", outcome),
		slog.Duration("elapsed", elapsed),
	)
	if c.client.recorder != nil {
		c.client.recorder.ObserveBackend(cl.resource, cl.op, outcome, elapsed)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Conn) roundTrip(ctx context.Context, cl call) ([]byte, int, error) {
	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.client.baseURL+cl.path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if store := c.Store(ctx); store != nil {
		if token := store.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	resp, err := c.client.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}

// errorMessage pulls a human message out of an error body, if any.
func errorMessage(raw []byte) string {
	var body struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if msg, ok := body.Error.(string); ok && msg != "" {
		return msg
	}
	return body.Message
}
