// Package classifier decides whether a post is a ticket resale offer.
package classifier

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/ticket-bot/configs"
	"github.com/lepinkainen/ticket-bot/internal/errs"
)

// Source identifies which taxonomy a post matched
type Source int

// Classification results
const (
	None Source = iota
	Marketplace
	DirectMessage
)

// String returns the label used in logs and notifications
func (s Source) String() string {
	switch s {
	case Marketplace:
		return "ticketswap"
	case DirectMessage:
		return "private_message"
	default:
		return "none"
	}
}

// Matched reports whether the post is a resale offer
func (s Source) Matched() bool {
	return s != None
}

// Keywords holds the keyword lists of both taxonomies and the negation list.
type Keywords struct {
	Marketplace   []string `yaml:"marketplace"`
	DirectMessage []string `yaml:"direct_message"`
	Negation      []string `yaml:"negation"`
}

// Validate checks that at least one taxonomy can ever match
func (k Keywords) Validate() error {
	if !hasKeyword(k.Marketplace) && !hasKeyword(k.DirectMessage) {
		return &errs.ValidationError{Field: "keywords", Message: "at least one marketplace or direct message keyword is required"}
	}
	return nil
}

// Clone returns a deep copy so callers can't mutate a classifier's lists.
func (k Keywords) Clone() Keywords {
	return Keywords{
		Marketplace:   slices.Clone(k.Marketplace),
		DirectMessage: slices.Clone(k.DirectMessage),
		Negation:      slices.Clone(k.Negation),
	}
}

// DefaultKeywords loads the embedded default taxonomy
func DefaultKeywords() (Keywords, error) {
	data, err := configs.EmbeddedConfigs.ReadFile("keywords.yaml")
	if err != nil {
		return Keywords{}, fmt.Errorf("failed to read embedded keywords: %w", err)
	}

	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("failed to parse embedded keywords: %w", err)
	}

	return kw, nil
}

// Classify returns the taxonomy message matches.
//
// Direct message keywords are checked first and win regardless of negation
// keywords. A marketplace match is cancelled by any negation keyword.
// Matching is plain case-sensitive substring containment, so short keywords
// like "vend" also match inside longer words.
func Classify(message string, kw Keywords) Source {
	if message == "" {
		return None
	}

	if containsAny(message, kw.DirectMessage) {
		return DirectMessage
	}

	if containsAny(message, kw.Marketplace) {
		if containsAny(message, kw.Negation) {
			return None
		}
		return Marketplace
	}

	return None
}

// Classifier classifies messages against a fixed taxonomy
type Classifier struct {
	keywords Keywords
}

// New creates a classifier. The keyword lists are copied.
func New(kw Keywords) *Classifier {
	return &Classifier{keywords: kw.Clone()}
}

// Classify classifies message against the classifier's taxonomy
func (c *Classifier) Classify(message string) Source {
	return Classify(message, c.keywords)
}

// Keywords returns a copy of the taxonomy
func (c *Classifier) Keywords() Keywords {
	return c.keywords.Clone()
}

// containsAny ignores empty keywords, they would match every message
func containsAny(message string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(message, k) {
			return true
		}
	}
	return false
}

func hasKeyword(keywords []string) bool {
	return slices.ContainsFunc(keywords, func(k string) bool { return k != "" })
}
