// Package backend is the typed HTTP client of the storefront REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Credentials supplies the bearer token; *session.Session implements it.
type Credentials interface {
	Token() string
}

type authMode int

// authCookie calls rely on the client's cookie jar holding the session cookie
// issued at login.
const (
	authNone authMode = iota
	authBearer
	authCookie
)

const maxErrorBody = 64 << 10

type Client struct {
	base    *url.URL
	hc      *http.Client
	creds   Credentials
	cookies CookieStore
	log     logrus.FieldLogger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Cookie-authenticated calls need it
// to carry a cookie jar.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTimeout bounds every request, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func New(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	c := &Client{
		base:  base,
		hc:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
		creds: creds,
		log:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.persistCookies(); err != nil {
		return nil, fmt.Errorf("loading stored cookies: %w", err)
	}
	return c, nil
}

func (c *Client) do(ctx context.Context, method, path string, auth authMode, in, out any) error {
	var token string
	if auth == authBearer {
		if token = c.creds.Token(); token == "" {
			return fmt.Errorf("%s %s: %w", method, path, ErrNoToken)
		}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	p, query, _ := strings.Cut(path, "?")
	u := c.base.JoinPath(p)
	u.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
		"since":  time.Since(start).String(),
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	se := &StatusError{Method: method, Path: path, Status: resp.StatusCode}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &eb) == nil {
		se.Message = eb.Error
		if se.Message == "" {
			se.Message = eb.Message
		}
	}
	return se
}
