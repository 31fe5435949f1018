package notify

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"

	"github.com/lepinkainen/ticket-bot/internal/classifier"
	"github.com/lepinkainen/ticket-bot/internal/errs"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
)

// DefaultErrorURL is opened in the browser when the bot fails
const DefaultErrorURL = "http://bluegg.co.uk/404"

// Opener opens a URL for the operator
type Opener func(url string) error

// OpenBrowser opens the given URL in the default web browser.
func OpenBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}

// Browser opens matched posts in the browser, and a fallback page on errors
type Browser struct {
	errorURL string
	open     Opener
	logger   *slog.Logger
}

// NewBrowser creates a browser channel
func NewBrowser(errorURL string, open Opener, logger *slog.Logger) *Browser {
	if errorURL == "" {
		errorURL = DefaultErrorURL
	}
	if open == nil {
		open = OpenBrowser
	}
	return &Browser{
		errorURL: errorURL,
		open:     open,
		logger:   loggerOrDefault(logger),
	}
}

// Name implements Channel
func (b *Browser) Name() string { return BrowserChannel }

// Notify opens the post's link in the browser
func (b *Browser) Notify(ctx context.Context, post feedtypes.Post, source classifier.Source) error {
	link, err := ResolveLink(post, source)
	if err != nil {
		return err
	}

	b.logger.Info("Opening ticket page", "post", post.ID, "source", source, "url", link)
	if err := b.open(link); err != nil {
		return &errs.DeliveryError{Channel: BrowserChannel, Err: err}
	}
	return nil
}

// HandleError opens the error page, logs the failure and returns err
func (b *Browser) HandleError(ctx context.Context, err error) error {
	if openErr := b.open(b.errorURL); openErr != nil {
		b.logger.Error("Failed to open error page", "url", b.errorURL, "error", openErr)
	}
	logFailure(b.logger, err)
	return err
}
