package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/lepinkainen/ticket-bot/internal/classifier"
	"github.com/lepinkainen/ticket-bot/internal/errs"
	"github.com/lepinkainen/ticket-bot/pkg/feedtypes"
)

// Mail subjects
const (
	TicketSubject = "Your TicketBot found you tickets"
	ErrorSubject  = "TicketBot error"
)

// DefaultSMTPTimeout bounds dialing and every SMTP command
const DefaultSMTPTimeout = 30 * time.Second

// SMTPConfig holds the mail submission settings
type SMTPConfig struct {
	Host      string // host or host:port, implicit TLS on 465 when no port is given
	User      string
	Password  string
	Sender    string
	Receivers []string
}

// Sender opens an SMTP session, delivers the messages and closes the session
// again. *mail.Client implements it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SenderFactory builds the Sender for the given settings
type SenderFactory func(config SMTPConfig) (Sender, error)

// NewMailClient creates a go-mail client speaking implicit TLS with PLAIN
// auth when a user is configured
func NewMailClient(config SMTPConfig) (Sender, error) {
	host, port, err := splitHostPort(config.Host)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{mail.WithTimeout(DefaultSMTPTimeout)}
	if port == 0 {
		opts = append(opts, mail.WithSSLPort(false))
	} else {
		opts = append(opts, mail.WithSSL(), mail.WithPort(port))
	}
	if config.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.User),
			mail.WithPassword(config.Password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return client, nil
}

// splitHostPort returns port 0 when host carries none
func splitHostPort(hostport string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid SMTP port %q", portStr)
	}
	return host, port, nil
}

// Email mails matched posts and error reports to the configured receivers
type Email struct {
	config SMTPConfig
	sender Sender
	logger *slog.Logger
	now    func() time.Time
}

// NewEmail validates the SMTP settings and creates an email channel. A nil
// factory means NewMailClient.
func NewEmail(config SMTPConfig, newSender SenderFactory, logger *slog.Logger) (*Email, error) {
	if config.Host == "" {
		return nil, &errs.ValidationError{Field: "email.smtp_host", Message: "SMTP host is required"}
	}
	if config.Sender == "" {
		return nil, &errs.ValidationError{Field: "email.sender", Message: "sender address is required"}
	}
	if len(config.Receivers) == 0 {
		return nil, &errs.ValidationError{Field: "email.receivers", Message: "at least one receiver is required"}
	}
	config.Receivers = append([]string(nil), config.Receivers...)

	// Reject unusable addresses before the bot starts polling
	if _, err := composeMessage(config.Sender, config.Receivers, TicketSubject, "", time.Now()); err != nil {
		return nil, &errs.ValidationError{Field: "email", Message: err.Error()}
	}

	if newSender == nil {
		newSender = NewMailClient
	}
	sender, err := newSender(config)
	if err != nil {
		return nil, &errs.ValidationError{Field: "email.smtp_host", Message: err.Error()}
	}

	return &Email{
		config: config,
		sender: sender,
		logger: loggerOrDefault(logger),
		now:    time.Now,
	}, nil
}

// Name implements Channel
func (e *Email) Name() string { return EmailChannel }

// Notify mails the post's link
func (e *Email) Notify(ctx context.Context, post feedtypes.Post, source classifier.Source) error {
	link, err := ResolveLink(post, source)
	if err != nil {
		return err
	}

	e.logger.Info("Mailing ticket link", "post", post.ID, "source", source, "receivers", len(e.config.Receivers))
	return e.Send(ctx, TicketSubject, "Ticket available here: "+link)
}

// HandleError mails an error report, logs the failure and returns err
func (e *Email) HandleError(ctx context.Context, err error) error {
	content := fmt.Sprintf("TicketBot error: %v\n\nTraceback:\n%s", err, errs.Trace(err))
	if sendErr := e.Send(ctx, ErrorSubject, content); sendErr != nil {
		e.logger.Error("Failed to mail error report", "error", sendErr)
	}
	logFailure(e.logger, err)
	return err
}

// Send delivers one plain text message in its own SMTP session
func (e *Email) Send(ctx context.Context, subject, body string) error {
	msg, err := composeMessage(e.config.Sender, e.config.Receivers, subject, body, e.now())
	if err != nil {
		return &errs.DeliveryError{Channel: EmailChannel, Err: err}
	}

	if err := e.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return &errs.DeliveryError{Channel: EmailChannel, Err: err}
	}
	return nil
}

// composeMessage builds a plain text UTF-8 message, sent as 8bit
func composeMessage(from string, to []string, subject, body string, date time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))

	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid receivers: %w", err)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(date)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}
