// Package notify delivers ticket notifications and error reports to the operator.
//
// Each channel implements both Notifier and ErrorHandler, so the pairing of
// a notification variant with its error handling variant is fixed by the type.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/ticket-bot/internal/classifier"
	"github.com/lepinkainen/ticket-bot/internal/errs"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
	"github.com/lepinkainen/ticket-bot/pkg/urlutils"
)

// Channel names
const (
	BrowserChannel = "browser"
	EmailChannel   = "email"
)

// FacebookURL is the base relative post links are resolved against
const FacebookURL = "https://www.facebook.com/"

// Notifier delivers a notification for a post that matched a taxonomy
type Notifier interface {
	Notify(ctx context.Context, post feedtypes.Post, source classifier.Source) error
}

// ErrorHandler reports a fatal polling error to the operator. It always
// returns the error it was given so the caller terminates.
type ErrorHandler interface {
	HandleError(ctx context.Context, err error) error
}

// Channel is a notifier paired with its error handler
type Channel interface {
	Notifier
	ErrorHandler
	Name() string
}

// Options holds everything any channel variant may need
type Options struct {
	ErrorURL string        // browser: page opened on error
	Opener   Opener        // browser: nil means OpenBrowser
	SMTP     SMTPConfig    // email
	Mailer   SenderFactory // email: nil means NewMailClient
	Logger   *slog.Logger
}

// NewChannel creates the channel variant named by kind
func NewChannel(kind string, opts Options) (Channel, error) {
	switch kind {
	case BrowserChannel:
		if opts.ErrorURL != "" && !urlutils.IsWebURL(opts.ErrorURL) {
			return nil, &errs.ValidationError{Field: "browser.error_url", Message: fmt.Sprintf("%q is not an http(s) URL", opts.ErrorURL)}
		}
		return NewBrowser(opts.ErrorURL, opts.Opener, opts.Logger), nil
	case EmailChannel:
		email, err := NewEmail(opts.SMTP, opts.Mailer, opts.Logger)
		if err != nil {
			return nil, err
		}
		return email, nil
	default:
		return nil, &errs.ValidationError{
			Field:   "notifier",
			Message: fmt.Sprintf("unknown notifier %q, expected %q or %q", kind, BrowserChannel, EmailChannel),
		}
	}
}

// ResolveLink returns the link to open for a matched post: the post's own
// link for marketplace posts, the first action's link for direct messages.
// Relative links are resolved against FacebookURL, any other link is
// returned as posted.
func ResolveLink(post feedtypes.Post, source classifier.Source) (string, error) {
	var link string
	switch source {
	case classifier.Marketplace:
		if post.Link == "" {
			return "", &errs.ValidationError{Field: "link", Message: fmt.Sprintf("post %s has no link", post.ID)}
		}
		link = post.Link
	case classifier.DirectMessage:
		link = post.FirstActionLink()
		if link == "" {
			return "", &errs.ValidationError{Field: "actions", Message: fmt.Sprintf("post %s has no action link", post.ID)}
		}
	default:
		return "", &errs.ValidationError{
			Field:   "source",
			Message: fmt.Sprintf("invalid source, expected %s or %s, found %s", classifier.Marketplace, classifier.DirectMessage, source),
		}
	}

	resolved, err := urlutils.ResolveURL(FacebookURL, link)
	if err != nil {
		return link, nil
	}
	return resolved, nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// logFailure writes the error and its cause chain to the console
func logFailure(logger *slog.Logger, err error) {
	logger.Error("Error", "error", err, "trace", errs.Trace(err))
}
