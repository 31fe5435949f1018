// Package main provides the CLI entry point for ticket-bot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"

	"github.com/lepinkainen/ticket-bot/internal/bot"
	"github.com/lepinkainen/ticket-bot/internal/classifier"
	"github.com/lepinkainen/ticket-bot/internal/config"
	"github.com/lepinkainen/ticket-bot/internal/graph"
	"github.com/lepinkainen/ticket-bot/internal/notify"
	"github.com/lepinkainen/ticket-bot/pkg/preview"
)

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:"config.yaml"`
	Debug  bool   `help:"Enable debug logging" default:"false"`

	Run struct {
		EventID          string   `arg:"" help:"Facebook event id to watch"`
		Keywords         []string `arg:"" name:"ticketswap-keywords" help:"Keywords of marketplace listings, e.g. ticketswap"`
		APIVersion       string   `help:"Graph API version" default:"2.6"`
		RequestFrequency int      `help:"Seconds between feed requests" default:"300"`
		Timeout          int      `help:"Request timeout in seconds" default:"10"`
		Notifier         string   `help:"Notification channel" enum:"browser,email" default:"browser"`
		Receivers        []string `help:"Email receivers, overrides email.receivers from the config file"`
		LongLivedToken   bool     `help:"Exchange the app token for a long-lived token"`
	} `cmd:"run" help:"Watch an event feed and notify about ticket offers."`

	Classify struct {
		Message  string   `arg:"" help:"Message to classify"`
		Keywords []string `arg:"" name:"ticketswap-keywords" help:"Keywords of marketplace listings"`
	} `cmd:"classify" help:"Classify a single message without contacting Facebook."`

	Preview struct {
		EventID    string   `arg:"" help:"Facebook event id"`
		Keywords   []string `arg:"" name:"ticketswap-keywords" help:"Keywords of marketplace listings"`
		APIVersion string   `help:"Graph API version" default:"2.6"`
		Timeout    int      `help:"Request timeout in seconds" default:"10"`
		Limit      int      `help:"Maximum number of posts to fetch" default:"25"`
		Index      int      `help:"Print the post at this index (0-based) to stdout" default:"-1"`
	} `cmd:"preview" help:"Preview how the current feed would be classified."`
}

func main() {
	// Parse CLI with Kong YAML configuration file loading
	ctx := kong.Parse(&CLI,
		kong.Configuration(kongyaml.Loader, "config.yaml", "~/.ticket-bot/config.yaml"),
	)

	// Configure logging level based on debug flag
	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}

	var err error
	switch ctx.Command() {
	case "run <event-id> <ticketswap-keywords>":
		err = runBot()
	case "classify <message> <ticketswap-keywords>":
		err = classify()
	case "preview <event-id> <ticketswap-keywords>":
		err = previewFeed()
	default:
		panic(ctx.Command())
	}

	if err != nil {
		slog.Error("ticket-bot failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

// keywords merges the marketplace keywords from the command line with the
// embedded taxonomy and the config file overrides
func keywords(cfg config.Config, marketplace []string) (classifier.Keywords, error) {
	kw, err := classifier.DefaultKeywords()
	if err != nil {
		return classifier.Keywords{}, err
	}

	kw.Marketplace = marketplace
	if len(cfg.Keywords.DirectMessage) > 0 {
		kw.DirectMessage = cfg.Keywords.DirectMessage
	}
	if len(cfg.Keywords.Negation) > 0 {
		kw.Negation = cfg.Keywords.Negation
	}

	return kw, kw.Validate()
}

func newGraphClient(cfg config.Config, eventID, version string, timeout time.Duration, longLived bool) (*graph.Client, error) {
	return graph.NewClient(graph.ClientConfig{
		BaseURL:    cfg.Facebook.GraphURL,
		APIVersion: version,
		EventID:    eventID,
		Timeout:    timeout,
		AppID:      cfg.Facebook.AppID,
		AppSecret:  cfg.Facebook.AppSecret,
		LongLived:  longLived,
	})
}

// runBot validates everything before the first network call, then polls
// until the bot fails
func runBot() error {
	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		return err
	}

	kw, err := keywords(cfg, CLI.Run.Keywords)
	if err != nil {
		return err
	}

	timeout := time.Duration(CLI.Run.Timeout) * time.Second
	frequency := time.Duration(CLI.Run.RequestFrequency) * time.Second

	smtpConfig := cfg.SMTP()
	if len(CLI.Run.Receivers) > 0 {
		smtpConfig.Receivers = CLI.Run.Receivers
	}

	logger := slog.Default()
	channel, err := notify.NewChannel(CLI.Run.Notifier, notify.Options{
		ErrorURL: cfg.Browser.ErrorURL,
		SMTP:     smtpConfig,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	client, err := newGraphClient(cfg, CLI.Run.EventID, CLI.Run.APIVersion, timeout, CLI.Run.LongLivedToken)
	if err != nil {
		return err
	}

	b, err := bot.New(bot.Options{
		EventID:          CLI.Run.EventID,
		APIVersion:       CLI.Run.APIVersion,
		RequestFrequency: frequency,
		Timeout:          timeout,
		Keywords:         kw,
	}, client, channel, logger)
	if err != nil {
		return err
	}

	slog.Info("Starting ticket bot", "event", CLI.Run.EventID, "notifier", channel.Name())
	return b.Run(context.Background())
}

func classify() error {
	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		return err
	}

	kw, err := keywords(cfg, CLI.Classify.Keywords)
	if err != nil {
		return err
	}

	fmt.Println(classifier.Classify(CLI.Classify.Message, kw))
	return nil
}

func previewFeed() error {
	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		return err
	}

	kw, err := keywords(cfg, CLI.Preview.Keywords)
	if err != nil {
		return err
	}

	timeout := time.Duration(CLI.Preview.Timeout) * time.Second
	client, err := newGraphClient(cfg, CLI.Preview.EventID, CLI.Preview.APIVersion, timeout, false)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	slog.Debug("Previewing feed", "event", CLI.Preview.EventID)
	posts, err := client.Posts(ctx, CLI.Preview.Limit)
	if err != nil {
		return err
	}

	entries := preview.NewEntries(posts, classifier.New(kw))

	// If index is specified, output the entry directly to stdout
	if CLI.Preview.Index >= 0 {
		if CLI.Preview.Index >= len(entries) {
			return fmt.Errorf("index %d out of range, feed has %d posts", CLI.Preview.Index, len(entries))
		}
		fmt.Print(preview.FormatDetailedItem(entries[CLI.Preview.Index]))
		return nil
	}

	return preview.Run(entries, CLI.Preview.EventID)
}
