// Package http provides the HTTP client and response helpers used to talk to the Graph API.
package http

import (
	"net/http"
	"time"
)

// ClientConfig represents HTTP client configuration
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultConfig returns default HTTP client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:   10 * time.Second,
		UserAgent: "ticket-bot/1.0",
		Headers:   make(map[string]string),
	}
}

// NewClient creates an *http.Client that applies the configured timeout and
// headers to every request. The client never retries: a failed request is
// reported to the caller as is.
func NewClient(config *ClientConfig) *http.Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &http.Client{
		Timeout: config.Timeout,
		Transport: &headerTransport{
			base:      http.DefaultTransport,
			userAgent: config.UserAgent,
			headers:   config.Headers,
		},
	}
}

// headerTransport sets default headers without mutating the caller's request
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for key, value := range t.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	return t.base.RoundTrip(req)
}
