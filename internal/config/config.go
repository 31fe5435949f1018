// Package config loads the viper backed application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/lepinkainen/ticket-bot/internal/notify"
	"github.com/lepinkainen/ticket-bot/pkg/filesystem"
)

// EnvPrefix prefixes environment variable overrides, e.g. TICKETBOT_FACEBOOK_APP_SECRET
const EnvPrefix = "TICKETBOT"

// Config holds the central application configuration
type Config struct {
	// Facebook app credentials used for the client credentials grant
	Facebook struct {
		AppID     string `mapstructure:"app_id"`
		AppSecret string `mapstructure:"app_secret"`
		GraphURL  string `mapstructure:"graph_url"`
	} `mapstructure:"facebook"`

	// Email notification settings
	Email struct {
		Sender       string   `mapstructure:"sender"`
		SMTPHost     string   `mapstructure:"smtp_host"` // host or host:port, implicit TLS
		SMTPUser     string   `mapstructure:"smtp_user"`
		SMTPPassword string   `mapstructure:"smtp_password"`
		Receivers    []string `mapstructure:"receivers"`
	} `mapstructure:"email"`

	Browser struct {
		ErrorURL string `mapstructure:"error_url"` // opened when the bot fails
	} `mapstructure:"browser"`

	// Keyword overrides, empty lists keep the embedded defaults
	Keywords struct {
		DirectMessage []string `mapstructure:"direct_message"`
		Negation      []string `mapstructure:"negation"`
	} `mapstructure:"keywords"`
}

// SMTP returns the email settings in the form the notifier expects
func (c Config) SMTP() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:      c.Email.SMTPHost,
		User:      c.Email.SMTPUser,
		Password:  c.Email.SMTPPassword,
		Sender:    c.Email.Sender,
		Receivers: append([]string(nil), c.Email.Receivers...),
	}
}

// LoadConfig loads the configuration from a file. A missing file is not an
// error: defaults and environment overrides still apply.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = "config.yaml"
	}
	path = filesystem.ResolvePath(path)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("facebook.app_id", "")
	v.SetDefault("facebook.app_secret", "")
	v.SetDefault("facebook.graph_url", "https://graph.facebook.com/")
	v.SetDefault("email.sender", "")
	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_user", "")
	v.SetDefault("email.smtp_password", "")
	v.SetDefault("email.receivers", []string{})
	v.SetDefault("browser.error_url", notify.DefaultErrorURL)
	v.SetDefault("keywords.direct_message", []string{})
	v.SetDefault("keywords.negation", []string{})

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// isNotFound reports a missing config file. SetConfigFile makes viper
// surface the raw fs error rather than ConfigFileNotFoundError.
func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}
