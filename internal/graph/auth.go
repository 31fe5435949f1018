package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/lepinkainen/ticket-bot/internal/errs"
)

// Authenticate obtains an app access token with the client credentials grant
// and, when LongLived is set, exchanges it for a long-lived token. The token
// is cached and fetched again once it expires.
func (c *Client) Authenticate(ctx context.Context) error {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return err
	}

	c.tokens = oauth2.ReuseTokenSource(token, &refreshingSource{client: c})
	slog.Info("Successfully set access token", "expiry", token.Expiry)
	return nil
}

// fetchToken runs the credential exchange against the token endpoint
func (c *Client) fetchToken(ctx context.Context) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.credentialsConfig(nil).Token(ctx)
	if err != nil {
		return nil, c.tokenError(err)
	}

	if !c.config.LongLived {
		return token, nil
	}

	exchanged, err := c.credentialsConfig(url.Values{
		"grant_type":        {"fb_exchange_token"},
		"fb_exchange_token": {token.AccessToken},
	}).Token(ctx)
	if err != nil {
		return nil, c.tokenError(err)
	}

	slog.Info("Successfully renewed access token")
	return exchanged, nil
}

func (c *Client) credentialsConfig(params url.Values) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:       c.config.AppID,
		ClientSecret:   c.config.AppSecret,
		TokenURL:       c.tokenURL(),
		EndpointParams: params,
		AuthStyle:      oauth2.AuthStyleInParams,
	}
}

func (c *Client) tokenURL() string {
	return c.config.BaseURL + "oauth/access_token"
}

// tokenError maps oauth2 failures onto the error taxonomy
func (c *Client) tokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		respErr := &errs.ResponseError{Message: "token request rejected", Err: err}
		if retrieveErr.Response != nil {
			respErr.StatusCode = retrieveErr.Response.StatusCode
		}
		if retrieveErr.ErrorDescription != "" {
			respErr.Message = retrieveErr.ErrorDescription
		}
		return fmt.Errorf("failed to get access token: %w", respErr)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("failed to get access token: %w", &errs.TransportError{Op: "POST", URL: c.tokenURL(), Err: err})
	}

	return fmt.Errorf("failed to get access token: %w", &errs.ResponseError{Message: "invalid token response", Err: err})
}

// refreshingSource repeats the credential exchange when the cached token expires
type refreshingSource struct {
	client *Client
}

// Token implements oauth2.TokenSource
func (s *refreshingSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.client.config.Timeout)
	defer cancel()

	slog.Info("Access token expired, requesting a new one")
	return s.client.fetchToken(ctx)
}
