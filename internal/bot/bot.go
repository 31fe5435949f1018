// Package bot runs the polling loop: it watches one event feed, classifies
// each new post and hands resale offers to a notification channel.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lepinkainen/ticket-bot/internal/classifier"
	"github.com/lepinkainen/ticket-bot/internal/errs"
	"github.com/lepinkainen/ticket-bot/internal/graph"
	"github.com/lepinkainen/ticket-bot/internal/notify"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
)

// Defaults for Options
const (
	DefaultRequestFrequency = 5 * time.Minute
	DefaultTimeout          = 10 * time.Second
)

// State is the position of the bot in its lifecycle
type State int

// Bot states
const (
	Idle State = iota
	TokenAcquired
	Polling
	Failed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case TokenAcquired:
		return "token_acquired"
	case Polling:
		return "polling"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FeedClient is the feed the bot polls. *graph.Client implements it.
type FeedClient interface {
	Authenticate(ctx context.Context) error
	LatestPost(ctx context.Context) (*feedtypes.Post, error)
}

// Options configures a bot
type Options struct {
	EventID          string
	APIVersion       string
	RequestFrequency time.Duration
	Timeout          time.Duration
	Keywords         classifier.Keywords
}

// Bot owns the last seen post and drives the poll loop
type Bot struct {
	opts       Options
	feed       FeedClient
	channel    notify.Channel
	classifier *classifier.Classifier
	logger     *slog.Logger
	sleep      func(time.Duration)

	state      State
	lastPostID string
}

// New validates opts and creates a bot. Validation happens before any
// network call.
func New(opts Options, feed FeedClient, channel notify.Channel, logger *slog.Logger) (*Bot, error) {
	if opts.APIVersion == "" {
		opts.APIVersion = graph.DefaultAPIVersion
	}
	if err := graph.ValidateAPIVersion(opts.APIVersion); err != nil {
		return nil, err
	}
	if opts.EventID == "" {
		return nil, &errs.ValidationError{Field: "event_id", Message: "event id is required"}
	}
	if opts.RequestFrequency == 0 {
		opts.RequestFrequency = DefaultRequestFrequency
	}
	if opts.RequestFrequency < 0 {
		return nil, &errs.ValidationError{Field: "request_frequency", Message: "must be positive"}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if err := opts.Keywords.Validate(); err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, &errs.ValidationError{Field: "feed", Message: "feed client is required"}
	}
	if channel == nil {
		return nil, &errs.ValidationError{Field: "channel", Message: "notification channel is required"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		opts:       opts,
		feed:       feed,
		channel:    channel,
		classifier: classifier.New(opts.Keywords),
		logger:     logger.With("event", opts.EventID),
		sleep:      time.Sleep,
		state:      Idle,
	}, nil
}

// State returns the current lifecycle state
func (b *Bot) State() State {
	return b.state
}

// LastPostID returns the id of the most recently processed post
func (b *Bot) LastPostID() string {
	return b.lastPostID
}

// Run authenticates, records the current latest post as baseline and polls
// forever. It only returns on failure, after the channel's error handler has
// reported the error with its stack; the returned error is the handler's.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(ctx); err != nil {
		return b.fail(ctx, err)
	}

	for {
		b.sleep(b.opts.RequestFrequency)

		if err := b.Poll(ctx); err != nil {
			return b.fail(ctx, err)
		}
	}
}

// Start moves the bot from Idle to Polling: it acquires a token and stores
// the newest post as baseline. The baseline is never classified.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Debug("Getting access token...")
	if err := b.feed.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	b.state = TokenAcquired

	post, err := b.fetchLatest(ctx)
	if err != nil {
		return err
	}
	if post != nil {
		b.lastPostID = post.ID
	}
	b.state = Polling

	b.logger.Info("Watching event feed", "baseline", b.lastPostID, "frequency", b.opts.RequestFrequency)
	return nil
}

// Poll runs one poll cycle: fetch the latest post and, if it is new, record
// it, classify it and notify on a match.
func (b *Bot) Poll(ctx context.Context) error {
	post, err := b.fetchLatest(ctx)
	if err != nil {
		return err
	}

	if post == nil || post.ID == b.lastPostID {
		b.logger.Debug("No new post found...")
		return nil
	}

	// Record before notifying so a post is never evaluated twice
	b.lastPostID = post.ID
	b.logger.Debug("Found new post, identifying source post...", "post", post.ID)

	source := b.classifier.Classify(post.Message)
	if !source.Matched() {
		// Operator console output, kept at Info
		b.logger.Info("New post but not selling...", "post", post.ID)
		return nil
	}

	b.logger.Info("Ticket offer found", "post", post.ID, "source", source)
	if err := b.channel.Notify(ctx, *post, source); err != nil {
		return fmt.Errorf("failed to notify about post %s: %w", post.ID, err)
	}
	return nil
}

func (b *Bot) fetchLatest(ctx context.Context) (*feedtypes.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	post, err := b.feed.LatestPost(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest post: %w", err)
	}
	return post, nil
}

// fail reports err through the channel with the stack of the failing loop
func (b *Bot) fail(ctx context.Context, err error) error {
	b.state = Failed
	return b.channel.HandleError(ctx, errs.WithStack(err))
}
