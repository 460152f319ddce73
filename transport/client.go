// Package transport implements the HTTP layer of the storefront SDK: a plain
// JSON client bound to a fixed API origin, and an authentication-refresh
// decorator layered on top of it. The two are composed explicitly so each can
// be tested in isolation.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-Id"

// Doer issues one JSON request against the API origin. body and out may be
// nil. Non-2xx responses surface as *HTTPError, transport failures as
// *NetworkError.
type Doer interface {
	Do(ctx context.Context, method, path string, body any, out any) error
}

// Client is the plain transport: it builds requests against the base origin,
// attaches the bearer token when one is present, and maps failures onto the
// error taxonomy. It never retries.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenStore
	log     zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) { c.httpc = httpc }
}

func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient builds a transport bound to baseURL. The default http.Client
// carries a cookie jar: the refresh endpoint is cookie-based, so the refresh
// cookie set at login must ride along automatically.
func NewClient(baseURL string, tokens TokenStore, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		tokens: tokens,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	url := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= 400 {
		return &HTTPError{Status: resp.StatusCode, Payload: respBody}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
