package backend

import (
	"log/slog"
	"net/http"
	"time"
)

// Option customizes the Client.
type Option func(c *Client)

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request, including the body read.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithCookieJar replaces the jar that carries the analysis session cookie.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

// WithHeader sets a static header on all requests.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if c.headers == nil {
			c.headers = map[string]string{}
		}
		c.headers[key] = value
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
