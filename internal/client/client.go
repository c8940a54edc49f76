// Package client talks to the blog REST API: admin post management, the public listing and
// asset uploads.
package client

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

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/config"
)

var clientLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	clientLogger = l
}

// TokenSource hands out the bearer token attached to authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http: &http.Client{
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	accept      string
	auth        bool
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	contentType := r.contentType
	if contentType == "" && r.body != nil {
		contentType = config.CTypeJSON
	}
	if contentType != "" {
		req.Header.Set(config.HCType, contentType)
	}
	if r.accept != "" {
		req.Header.Set(config.HAccept, r.accept)
	}
	req.Header.Set(config.HRequestID, uuid.NewString())

	if r.auth && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("get token: %w", err)
		}
		// An empty token is still sent on; the server answers 401.
		if token != "" {
			req.Header.Set(config.HAuthorization, "Bearer "+token)
		}
	}

	return req, nil
}

// send performs the request and returns the response when the status is 2xx. The caller
// owns the body.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		clientLogger.Debug().Err(err).Str("method", r.method).Str("path", r.path).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}

	clientLogger.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", res.StatusCode).
		Str("request_id", req.Header.Get(config.HRequestID)).
		Dur("duration", time.Since(start)).
		Msg("Request")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		return nil, newError(res.StatusCode, body)
	}
	return res, nil
}

// do sends the request and decodes a JSON answer into out. A 204 or an empty body leaves
// out untouched; so does a body that is not JSON.
func (c *Client) do(ctx context.Context, r request, out any) error {
	res, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent || out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", r.method, r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		clientLogger.Warn().Err(err).Str("path", r.path).Msg("Response body is not the expected JSON")
		return nil
	}
	return nil
}

func postPath(id string, suffix ...string) string {
	p := config.PostsPath + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
