// Package graph implements the feed client for Facebook Graph API event feeds.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/lepinkainen/ticket-bot/internal/errs"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
	httputil "github.com/lepinkainen/ticket-bot/pkg/http"
)

const (
	// DefaultBaseURL is the Graph API root
	DefaultBaseURL = "https://graph.facebook.com/"
	// DefaultAPIVersion is used when no version is configured
	DefaultAPIVersion = "2.6"
	// DefaultTimeout bounds every request
	DefaultTimeout = 10 * time.Second
)

// ValidAPIVersions lists the Graph API versions the client speaks
var ValidAPIVersions = []string{"2.0", "2.1", "2.2", "2.3", "2.4", "2.5", "2.6"}

// feedFields are the post fields requested from the feed edge
const feedFields = "id,message,link,actions,created_time"

// ValidateAPIVersion checks version against ValidAPIVersions
func ValidateAPIVersion(version string) error {
	if slices.Contains(ValidAPIVersions, version) {
		return nil
	}
	return &errs.ValidationError{
		Field:   "api_version",
		Message: fmt.Sprintf("unsupported version %q, valid API versions are %s", version, strings.Join(ValidAPIVersions, ", ")),
	}
}

// ClientConfig configures a feed client
type ClientConfig struct {
	BaseURL    string
	APIVersion string
	EventID    string
	Timeout    time.Duration
	AppID      string
	AppSecret  string
	LongLived  bool         // exchange the app token for a long-lived one
	HTTPClient *http.Client // optional, built from Timeout when nil
}

// Client fetches posts from one event feed
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	tokens     oauth2.TokenSource
}

// NewClient validates the configuration and creates a client. No network
// call is made until Authenticate.
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIVersion == "" {
		config.APIVersion = DefaultAPIVersion
	}
	if err := ValidateAPIVersion(config.APIVersion); err != nil {
		return nil, err
	}
	if strings.TrimSpace(config.EventID) == "" {
		return nil, &errs.ValidationError{Field: "event_id", Message: "event id is required"}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpConfig := httputil.DefaultConfig()
		httpConfig.Timeout = config.Timeout
		httpClient = httputil.NewClient(httpConfig)
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// EventID returns the id of the event whose feed is polled
func (c *Client) EventID() string {
	return c.config.EventID
}

// FeedURL returns the feed endpoint of the configured event
func (c *Client) FeedURL() string {
	return fmt.Sprintf("%sv%s/%s/feed", c.config.BaseURL, c.config.APIVersion, url.PathEscape(c.config.EventID))
}

// LatestPost returns the newest post of the feed, or nil when the feed is empty
func (c *Client) LatestPost(ctx context.Context) (*feedtypes.Post, error) {
	posts, err := c.Posts(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

// Posts returns the first page of the feed, newest first. A limit <= 0 leaves
// the page size to the API.
func (c *Client) Posts(ctx context.Context, limit int) ([]feedtypes.Post, error) {
	params := url.Values{"fields": {feedFields}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	resp, err := c.get(ctx, c.FeedURL(), params)
	if err != nil {
		return nil, err
	}

	posts, err := decodeFeed(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read event feed: %w", err)
	}

	slog.Debug("Fetched event feed", "event", c.config.EventID, "posts", len(posts))
	return posts, nil
}

// get performs an authenticated GET request. No retries: the poll interval is
// the retry policy.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, err
		}
		token.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: http.MethodGet, URL: endpoint, Err: err}
	}

	return resp, nil
}
