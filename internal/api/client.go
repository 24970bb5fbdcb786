// Package api talks to the Acrolinx checking service over HTTP+JSON.
//
// Client attaches the client-signature and auth-token headers to every call
// and returns raw responses; Decode turns a response into a generic JSON map
// and classifies failures into the error kinds declared in errors.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Header names required on every request.
const (
	HeaderClient = "X-Acrolinx-Client"
	HeaderAuth   = "X-Acrolinx-Auth"
)

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes = 16 << 20

// Logger receives request traces and decoder warnings.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// Options configures a Client.
type Options struct {
	ServerURL   string
	Signature   string
	Token       string
	Timeout     time.Duration
	Credentials CredentialSource
	Logger      Logger
	HTTPClient  *http.Client
	// MaxResponseBytes bounds a response body; zero means
	// DefaultMaxResponseBytes. Larger bodies fail with ErrTransport.
	MaxResponseBytes int64
}

// Response is a completed HTTP exchange.
type Response struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// Client issues authenticated requests against one Acrolinx server.
type Client struct {
	serverURL   string
	signature   string
	token       string
	credentials CredentialSource
	logger      Logger
	httpClient  *http.Client
	maxBody     int64
}

// New creates a Client. A nil HTTPClient gets one with opts.Timeout.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	maxBody := opts.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseBytes
	}
	return &Client{
		serverURL:   strings.TrimRight(opts.ServerURL, "/"),
		signature:   opts.Signature,
		token:       opts.Token,
		credentials: opts.Credentials,
		logger:      opts.Logger,
		httpClient:  httpClient,
		maxBody:     maxBody,
	}
}

// ServerURL returns the base URL without a trailing slash.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Endpoint joins path onto the server URL.
func (c *Client) Endpoint(path string) string {
	return c.serverURL + "/" + strings.TrimLeft(path, "/")
}

// Do performs one request. An empty method means GET. A non-nil body is
// sent as JSON unless it is already a []byte.
func (c *Client) Do(ctx context.Context, method, rawURL string, headers map[string]string, body any) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, &Error{Kind: ErrTransport, Op: "encode", URL: rawURL, Err: err}
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Op: "request", URL: rawURL, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderClient, c.signature)
	req.Header.Set(HeaderAuth, c.resolveToken(req.URL))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.debugf("%s %s", method, rawURL)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: ErrCanceled, Op: "request", URL: rawURL, Err: ctx.Err()}
		}
		return nil, &Error{Kind: ErrTransport, Op: "request", URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Op: "read", URL: rawURL, Status: resp.StatusCode, Err: err}
	}
	if int64(len(data)) > c.maxBody {
		return nil, &Error{
			Kind:   ErrTransport,
			Op:     "read",
			URL:    rawURL,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("response body exceeds %d bytes", c.maxBody),
		}
	}
	c.debugf("%s %s -> %d (%d bytes, %s)", method, rawURL, resp.StatusCode, len(data), time.Since(start).Round(time.Millisecond))

	return &Response{
		URL:    rawURL,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

// resolveToken returns the explicit token, else the credential store entry
// for the request host. Lookup failures are logged and yield an empty token;
// the server then rejects the call and Decode reports it.
func (c *Client) resolveToken(u *url.URL) string {
	if c.token != "" {
		return c.token
	}
	if c.credentials == nil || u == nil {
		return ""
	}
	token, err := c.credentials.Lookup(c.signature, u.Hostname())
	if err != nil {
		c.warnf("credential lookup failed: %v", err)
		return ""
	}
	return token
}

func (c *Client) debugf(format string, args ...any) {
	if c.logger != nil {
		c.logger.LogDebug(fmt.Sprintf(format, args...))
	}
}

func (c *Client) warnf(format string, args ...any) {
	if c.logger != nil {
		c.logger.LogWarn(fmt.Sprintf(format, args...))
	}
}
