// Package dashboard is the Go client behind the role dashboards. It wraps
// the REST API and the push channel, and keeps per-view list state.
package dashboard

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

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DefaultLoginTimeout bounds the login call. Other calls use the transport
// defaults.
const DefaultLoginTimeout = 5 * time.Second

type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	Logger       *zerolog.Logger
	LoginTimeout time.Duration
}

type Client struct {
	base         *url.URL
	http         *http.Client
	log          zerolog.Logger
	loginTimeout time.Duration
	validate     *validator.Validate
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	c := &Client{
		base:         base,
		http:         opts.HTTPClient,
		log:          zerolog.Nop(),
		loginTimeout: opts.LoginTimeout,
		validate:     validator.New(),
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	if c.loginTimeout <= 0 {
		c.loginTimeout = DefaultLoginTimeout
	}
	return c, nil
}

// dataEnvelope is the {"success": true, "data": ...} wrapper used by the
// vendor and driver endpoints.
type dataEnvelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// do sends one JSON request. out may be nil.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func remoteError(status int, raw []byte) *RemoteError {
	var eb errorBody
	msg := http.StatusText(status)
	if json.Unmarshal(raw, &eb) == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		}
	}
	return &RemoteError{Status: status, Message: msg}
}

// getData unwraps a {"success","data"} response.
func getData[T any](ctx context.Context, c *Client, method, path, token string, in any) (T, error) {
	var env dataEnvelope[T]
	err := c.do(ctx, method, path, token, in, &env)
	return env.Data, err
}

// wsURL maps the REST base onto the push channel endpoint.
func (c *Client) wsURL(token string) string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String()
}
