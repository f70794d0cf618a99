// Package report turns record documents into PDFs through a Gotenberg service.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable marks failures to reach Gotenberg at all, including a
// missing URL. Rejected conversions are reported as *RenderError.
var ErrUnavailable = errors.New("pdf rendering unavailable")

// RenderError is a conversion Gotenberg answered with a non-2xx status.
type RenderError struct {
	Status int
	Trace  string
	Detail string
}

func (e *RenderError) Error() string {
	msg := fmt.Sprintf("gotenberg: render failed with status %d", e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Trace != "" {
		msg += " (trace " + e.Trace + ")"
	}
	return msg
}

// Page holds the chromium page properties sent with every conversion.
// Sizes are in inches.
type Page struct {
	Width, Height float64
	Margin        float64
	Landscape     bool
}

// A4 portrait with half-inch margins.
var A4 = Page{Width: 8.27, Height: 11.7, Margin: 0.5}

// Client wraps the Gotenberg chromium conversion API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	page       Page
}

// NewClient constructs a client printing on A4. An empty baseURL yields a
// client whose calls fail with ErrUnavailable.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		page:       A4,
	}
}

// WithPage returns a copy of c printing on page.
func (c *Client) WithPage(page Page) *Client {
	cp := *c
	cp.page = page
	return &cp
}

// Enabled reports whether a Gotenberg URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Ping calls Gotenberg's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrUnavailable
	}
	resp, err := c.send(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: health returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a standalone HTML page into a PDF.
func (c *Client) RenderHTML(ctx context.Context, html []byte) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrUnavailable
	}
	body, contentType, err := c.form(html)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodPost, "/forms/chromium/convert/html", body, contentType)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &RenderError{
			Status: resp.StatusCode,
			Trace:  resp.Header.Get("Gotenberg-Trace"),
			Detail: strings.TrimSpace(string(detail)),
		}
	}
	return io.ReadAll(resp.Body)
}

// form builds the multipart body. Gotenberg requires the entry file to be
// called index.html.
func (c *Client) form(html []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(html); err != nil {
		return nil, "", err
	}
	fields := map[string]string{
		"paperWidth":      formatInches(c.page.Width),
		"paperHeight":     formatInches(c.page.Height),
		"marginTop":       formatInches(c.page.Margin),
		"marginBottom":    formatInches(c.page.Margin),
		"marginLeft":      formatInches(c.page.Margin),
		"marginRight":     formatInches(c.page.Margin),
		"landscape":       fmt.Sprint(c.page.Landscape),
		"printBackground": "true",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func formatInches(v float64) string {
	return fmt.Sprintf("%gin", v)
}
