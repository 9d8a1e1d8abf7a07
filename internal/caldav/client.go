// Package caldav implements the WebDAV/CalDAV wire protocol used by the sync
// engine: PROPFIND-based calendar collection discovery and REPORT
// (calendar-query) event retrieval. Request bodies are fixed XML documents
// and responses are parsed as WebDAV multistatus.
package caldav

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrInvalidResponse  = errors.New("invalid server response")
	ErrMalformedContent = errors.New("malformed multistatus response")
)

const (
	defaultTimeout = 30 * time.Second
	minTLSVersion  = tls.VersionTLS12
)

const (
	nsDAV    = "DAV:"
	nsCalDAV = "urn:ietf:params:xml:ns:caldav"
)

// Client issues CalDAV requests with a fixed set of Basic Auth credentials
// applied to every request.
type Client struct {
	httpClient *http.Client
	username   string
	password   string
}

// NewClient creates a CalDAV client for the given credentials.
func NewClient(username, password string) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: minTLSVersion,
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
		username: username,
		password: password,
	}
}

// NewClientWithHTTP creates a client around an existing *http.Client.
func NewClientWithHTTP(httpClient *http.Client, username, password string) *Client {
	return &Client{
		httpClient: httpClient,
		username:   username,
		password:   password,
	}
}

// do sends one WebDAV request and returns the response body. The caller
// decides whether a non-success status is fatal; checkStatus controls
// whether statuses >= 400 are rejected before the body is returned.
func (c *Client) do(ctx context.Context, method, rawURL, body string, checkStatus bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create %s request: %w", ErrConnectionFailed, method, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Depth", "1")
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrConnectionFailed, method, rawURL, err)
	}
	defer resp.Body.Close()

	if checkStatus && resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrInvalidResponse, method, rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s response: %w", ErrConnectionFailed, method, err)
	}
	return data, nil
}

// toggleTrailingSlash appends a trailing slash if absent and strips it if
// present. CalDAV servers disagree on collection URL conventions, so a
// failed request is retried once against the toggled form.
func toggleTrailingSlash(rawURL string) string {
	if strings.HasSuffix(rawURL, "/") {
		return strings.TrimSuffix(rawURL, "/")
	}
	return rawURL + "/"
}

// resolveCalendarURL resolves a calendar path returned by discovery against
// the base URL. Absolute URLs pass through; relative paths borrow the base's
// scheme, host, and port.
func resolveCalendarURL(baseURL, calendarPath string) (string, error) {
	if strings.HasPrefix(calendarPath, "http") {
		return calendarPath, nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: unparsable base URL %q: %w", ErrInvalidResponse, baseURL, err)
	}
	return parsed.Scheme + "://" + parsed.Host + calendarPath, nil
}
